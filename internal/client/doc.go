// Package client runs the dispatcher: the single control loop between typed
// command lines and the server connection.
//
// The UI side pushes lines with Submit and pops DisplayMessages from
// Messages. Run owns every call into the connection, so command handling is
// strictly sequential: one command is transmitted, its reply awaited and
// decoded, and only then is the next line taken.
package client
