package protocol

import "errors"

var (
	ErrTruncated         = errors.New("protocol: truncated reply")
	ErrMalformedResponse = errors.New("protocol: malformed response")
	ErrTimeout           = errors.New("protocol: response timeout")
	ErrReplyTooLarge     = errors.New("protocol: reply too large")
	ErrInvalidCommand    = errors.New("protocol: invalid command")
	ErrPeerClosed        = errors.New("protocol: connection closed by server")
)

// Unrecoverable reports whether err leaves the byte stream in a state where no
// further prompt can be located, so the connection has to be dropped.
func Unrecoverable(err error) bool {
	return errors.Is(err, ErrTruncated) ||
		errors.Is(err, ErrReplyTooLarge) ||
		errors.Is(err, ErrPeerClosed) ||
		errors.Is(err, ErrTimeout)
}
