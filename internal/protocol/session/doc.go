// Package session owns console session settings shared by the connection
// manager and the runtime config loader.
//
// Ownership boundary:
// - connect/handshake/response/write timeouts
// - prompt delimiter and reply buffering limits
// - connect retry backoff
package session
