// Package protocol owns the console wire contract.
//
// Ownership boundary:
// - prompt-delimited reply framing (frame)
// - command grammar (command)
// - command encoding and reply extraction (codec)
// - transport/session settings (session)
//
// Replies carry no length header. A reply ends where the server prints its
// prompt, so the reader buffers bytes until the configured prompt appears.
package protocol
