package frame

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/danmuck/vostok/internal/protocol"
)

const (
	// DefaultPrompt is the prompt printed by the stock simulation server.
	// Servers rename their captain, so callers treat it as configuration.
	DefaultPrompt = "Yuri@Восток:"

	LineTerminator byte = '\n'
)

var (
	ErrEmptyPrompt    = errors.New("frame: empty prompt delimiter")
	ErrLineTerminator = errors.New("frame: line contains terminator")
	ErrLineTooLarge   = errors.New("frame: line too large")
)

// Limits constrains reply buffering and command line size.
type Limits struct {
	MaxReplyBytes int
	MaxLineBytes  int
}

func DefaultLimits() Limits {
	return Limits{
		MaxReplyBytes: 1024 * 1024,
		MaxLineBytes:  4 * 1024,
	}
}

// ScanPrompt returns a bufio.SplitFunc yielding reply bodies terminated by
// prompt. The prompt itself is consumed and excluded from the token. Data
// left over at EOF without a trailing prompt fails with protocol.ErrTruncated.
//
// The split func remembers how much of the pending reply it has searched, so
// it must serve a single Scanner.
func ScanPrompt(prompt []byte) bufio.SplitFunc {
	delim := append([]byte(nil), prompt...)
	searched := 0
	return func(data []byte, atEOF bool) (int, []byte, error) {
		from := max(0, min(searched, len(data))-len(delim)+1)
		if i := bytes.Index(data[from:], delim); i >= 0 {
			searched = 0
			i += from
			return i + len(delim), data[:i], nil
		}
		searched = len(data)
		if atEOF && len(data) > 0 {
			return 0, nil, fmt.Errorf("%w: %d bytes without prompt", protocol.ErrTruncated, len(data))
		}
		return 0, nil, nil
	}
}

// Scanner wraps a bufio.Scanner configured for prompt framing.
type Scanner struct {
	sc *bufio.Scanner
}

func NewScanner(r io.Reader, prompt string, limits Limits) (*Scanner, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	max := limits.MaxReplyBytes
	if max <= 0 {
		max = DefaultLimits().MaxReplyBytes
	}
	// bufio.Scanner needs room for the prompt on top of the body.
	max += len(prompt)
	initial := 4096
	if initial > max {
		initial = max
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initial), max)
	sc.Split(ScanPrompt([]byte(prompt)))
	return &Scanner{sc: sc}, nil
}

// Next blocks until one complete reply is framed. It returns io.EOF when the
// stream ends cleanly on a reply boundary.
func (s *Scanner) Next() (string, error) {
	if s.sc.Scan() {
		return Normalize(s.sc.Bytes()), nil
	}
	err := s.sc.Err()
	switch {
	case err == nil:
		return "", io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return "", fmt.Errorf("%w: no prompt within buffer limit", protocol.ErrReplyTooLarge)
	default:
		return "", err
	}
}

// Normalize turns raw reply bytes into display-safe text: CRLF becomes LF and
// invalid UTF-8 sequences are replaced rather than rejected.
func Normalize(b []byte) string {
	out := string(b)
	if !utf8.ValidString(out) {
		out = strings.ToValidUTF8(out, string(utf8.RuneError))
	}
	return strings.ReplaceAll(out, "\r\n", "\n")
}

// EncodeLine appends the line terminator after validating line.
func EncodeLine(line string, limits Limits) ([]byte, error) {
	if strings.ContainsAny(line, "\r\n") {
		return nil, ErrLineTerminator
	}
	if limits.MaxLineBytes > 0 && len(line)+1 > limits.MaxLineBytes {
		return nil, ErrLineTooLarge
	}
	out := make([]byte, 0, len(line)+1)
	out = append(out, line...)
	return append(out, LineTerminator), nil
}
