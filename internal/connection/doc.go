// Package connection owns the single TCP session to the simulation server.
//
// A Manager moves between Disconnected and Connected. While connected, one
// background reader goroutine frames prompt-terminated replies off the socket
// and queues them in an unbounded mailbox; it never decodes, since decoding
// needs the originating command. Callers send one command at a time and
// collect its reply with AwaitReply. Any terminal read failure (peer close,
// truncated reply, oversized reply, response timeout) tears the session down.
package connection
