package client

import "fmt"

type MessageKind int

const (
	MessageLogLine MessageKind = iota
	MessageLog
	MessageClearInput
	MessageConnectionFailed
	MessageConnected
	MessageDisconnected
)

var messageNames = map[MessageKind]string{
	MessageLogLine:          "log_line",
	MessageLog:              "log",
	MessageClearInput:       "clear_input",
	MessageConnectionFailed: "connection_failed",
	MessageConnected:        "connected",
	MessageDisconnected:     "disconnected",
}

func (k MessageKind) String() string {
	if name, ok := messageNames[k]; ok {
		return name
	}
	return fmt.Sprintf("message(%d)", int(k))
}

// DisplayMessage is one outbound item for the UI. Text is set for the log
// kinds; Addr for the connection status kinds.
type DisplayMessage struct {
	Kind MessageKind
	Text string
	Addr string
}

func LogLine(text string) DisplayMessage {
	return DisplayMessage{Kind: MessageLogLine, Text: text}
}

// Log carries text that is shown as-is, without an added newline.
func Log(text string) DisplayMessage {
	return DisplayMessage{Kind: MessageLog, Text: text}
}

func ClearInputField() DisplayMessage {
	return DisplayMessage{Kind: MessageClearInput}
}

func ConnectionFailed(addr string) DisplayMessage {
	return DisplayMessage{Kind: MessageConnectionFailed, Addr: addr}
}

func Connected(addr string) DisplayMessage {
	return DisplayMessage{Kind: MessageConnected, Addr: addr}
}

func Disconnected(addr string) DisplayMessage {
	return DisplayMessage{Kind: MessageDisconnected, Addr: addr}
}

// Render returns the plain text a line-oriented UI prints for m. Clear-input
// has no text.
func (m DisplayMessage) Render() string {
	switch m.Kind {
	case MessageLogLine:
		return m.Text + "\n"
	case MessageLog:
		return m.Text
	case MessageConnected:
		return fmt.Sprintf("Connected to %s\n", m.Addr)
	case MessageConnectionFailed:
		return fmt.Sprintf("Connection to %s failed\n", m.Addr)
	case MessageDisconnected:
		return fmt.Sprintf("Disconnected from %s\n", m.Addr)
	default:
		return ""
	}
}
