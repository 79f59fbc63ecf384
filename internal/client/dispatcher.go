package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/vostok/internal/connection"
	"github.com/danmuck/vostok/internal/mailbox"
	"github.com/danmuck/vostok/internal/observability"
	"github.com/danmuck/vostok/internal/protocol/codec"
	"github.com/danmuck/vostok/internal/protocol/command"
	"github.com/danmuck/vostok/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

// Connection is the session surface the dispatcher drives.
// *connection.Manager implements it.
type Connection interface {
	Connect(ctx context.Context, addr, prompt string) (string, error)
	Disconnect() error
	SendCommand(raw []byte) error
	AwaitReply(ctx context.Context) (string, error)
	Pending() <-chan struct{}
	Poll() (connection.Reply, bool)
	State() connection.State
	Config() session.Config
}

// TargetResolver maps a configured target name to its address and prompt.
type TargetResolver interface {
	Resolve(name string) (addr, prompt string, ok bool)
}

type Option func(*Dispatcher)

func WithTargets(r TargetResolver) Option {
	return func(d *Dispatcher) { d.targets = r }
}

type Dispatcher struct {
	conn    Connection
	targets TargetResolver

	inbox  *mailbox.Mailbox[string]
	outbox *mailbox.Mailbox[DisplayMessage]

	// addr is the address of the open session, empty while disconnected.
	addr string
}

func New(conn Connection, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		conn:   conn,
		inbox:  mailbox.New[string](),
		outbox: mailbox.New[DisplayMessage](),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit queues one typed line. It never blocks and returns false after
// Close.
func (d *Dispatcher) Submit(line string) bool {
	return d.inbox.Push(line)
}

// Messages is the outbound display queue. It is closed when Run returns.
func (d *Dispatcher) Messages() *mailbox.Mailbox[DisplayMessage] {
	return d.outbox
}

// Close stops accepting lines. Run handles what is already queued, then
// returns.
func (d *Dispatcher) Close() {
	d.inbox.Close()
}

// Run processes lines until ctx ends or Close is called and the inbox is
// drained. An open session is disconnected before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.outbox.Close()
	defer d.shutdown()

	for {
		if line, ok := d.inbox.TryPop(); ok {
			d.handleLine(ctx, line)
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.inbox.Notify():
		case <-d.inbox.Done():
			if d.inbox.Len() == 0 {
				return nil
			}
		case <-d.conn.Pending():
			d.drainUnsolicited()
		}
	}
}

func (d *Dispatcher) emit(m DisplayMessage) {
	d.outbox.Push(m)
}

func (d *Dispatcher) handleLine(ctx context.Context, line string) {
	d.emit(ClearInputField())
	if strings.TrimSpace(line) == "" {
		return
	}

	cmd, err := command.Parse(line)
	if err != nil {
		observability.RecordCommand("invalid", "rejected")
		d.emit(LogLine(parseFailure(err)))
		return
	}
	log.Debug().Str("cmd", cmd.String()).Msg("client.Dispatcher.handleLine parsed")

	switch cmd.Kind {
	case command.KindHelp:
		d.emit(LogLine(command.Usage()))
	case command.KindConnect:
		d.connect(ctx, cmd)
	case command.KindDisconnect:
		d.disconnect()
	default:
		d.execute(ctx, cmd)
	}
}

func parseFailure(err error) string {
	var perr *command.ParseError
	if errors.As(err, &perr) && errors.Is(err, command.ErrInvalidArgument) {
		return "Invalid command! " + perr.Detail
	}
	return "Invalid command! Type help for the list of commands."
}

func (d *Dispatcher) connect(ctx context.Context, cmd command.Command) {
	if d.conn.State() == connection.StateConnected {
		observability.RecordCommand(cmd.Kind.String(), "rejected")
		d.emit(LogLine("Error: Already connected to server!"))
		return
	}

	addr, prompt := cmd.Address, ""
	if d.targets != nil {
		if a, p, ok := d.targets.Resolve(cmd.Address); ok {
			addr, prompt = a, p
		}
	}

	greeting, err := d.conn.Connect(ctx, addr, prompt)
	if err != nil {
		observability.RecordCommand(cmd.Kind.String(), "failed")
		d.emit(ConnectionFailed(addr))
		d.emit(LogLine(fmt.Sprintf("Error: Could not connect to %s: %v", addr, err)))
		return
	}
	observability.RecordCommand(cmd.Kind.String(), "ok")
	d.addr = addr
	d.emit(Connected(addr))
	if text := strings.TrimSpace(greeting); text != "" {
		d.emit(LogLine(text))
	}
}

func (d *Dispatcher) disconnect() {
	if d.conn.State() != connection.StateConnected {
		observability.RecordCommand(command.KindDisconnect.String(), "rejected")
		d.emit(LogLine("Error: Not connected to server!"))
		return
	}
	addr := d.addr
	d.addr = ""
	if err := d.conn.Disconnect(); err != nil {
		observability.RecordCommand(command.KindDisconnect.String(), "failed")
		d.emit(LogLine("Error: Could not disconnect from server!\nConnection closed."))
		d.emit(Disconnected(addr))
		return
	}
	observability.RecordCommand(command.KindDisconnect.String(), "ok")
	d.emit(LogLine("ok"))
	d.emit(Disconnected(addr))
}

func (d *Dispatcher) execute(ctx context.Context, cmd command.Command) {
	kind := cmd.Kind.String()
	if d.conn.State() != connection.StateConnected {
		observability.RecordCommand(kind, "rejected")
		d.emit(LogLine("Error: Not connected to server!"))
		return
	}

	wire, err := codec.Encode(cmd, d.conn.Config().Limits)
	if err != nil {
		observability.RecordCommand(kind, "rejected")
		d.emit(LogLine(fmt.Sprintf("Error: %v", err)))
		return
	}

	// Replies framed before this command belong to nothing in flight.
	d.drainUnsolicited()
	if d.addr == "" {
		observability.RecordCommand(kind, "failed")
		return
	}

	start := time.Now()
	if err := d.conn.SendCommand(wire); err != nil {
		d.fail(kind, err)
		return
	}
	body, err := d.conn.AwaitReply(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		d.fail(kind, err)
		return
	}
	observability.RecordRoundTrip(kind, time.Since(start))

	resp, err := decode(cmd, body)
	if err != nil {
		observability.RecordCommand(kind, "malformed")
		log.Warn().Str("cmd", kind).Err(err).Msg("client.Dispatcher.execute decode failed")
		d.emit(LogLine(fmt.Sprintf("Error: %v", err)))
		return
	}
	observability.RecordCommand(kind, "ok")
	d.emit(FormatResponse(resp))
}

// decode interprets body for cmd. A raw line that spells a known query is
// decoded as that query, falling back to the verbatim body.
func decode(cmd command.Command, body string) (codec.Response, error) {
	if cmd.Kind == command.KindRaw {
		if query, ok := codec.Recognize(cmd.Text); ok {
			if resp, err := codec.Decode(query, body); err == nil {
				return resp, nil
			}
		}
	}
	return codec.Decode(cmd, body)
}

func (d *Dispatcher) fail(kind string, err error) {
	observability.RecordCommand(kind, "failed")
	d.emit(LogLine(fmt.Sprintf("Error: %v", err)))
	d.checkLink()
}

func (d *Dispatcher) drainUnsolicited() {
	for {
		r, ok := d.conn.Poll()
		if !ok {
			break
		}
		if r.Err != nil {
			d.emit(LogLine(fmt.Sprintf("Error: %v", r.Err)))
			continue
		}
		observability.RecordUnsolicitedReply()
		if text := strings.TrimRight(r.Body, "\n"); text != "" {
			d.emit(LogLine(text))
		}
	}
	d.checkLink()
}

// checkLink reports a session the connection dropped on its own.
func (d *Dispatcher) checkLink() {
	if d.addr == "" || d.conn.State() == connection.StateConnected {
		return
	}
	addr := d.addr
	d.addr = ""
	d.emit(LogLine(fmt.Sprintf("Connection to %s closed.", addr)))
	d.emit(Disconnected(addr))
}

func (d *Dispatcher) shutdown() {
	if d.conn.State() != connection.StateConnected {
		return
	}
	if err := d.conn.Disconnect(); err != nil {
		log.Warn().Err(err).Msg("client.Dispatcher.shutdown disconnect failed")
	}
	d.addr = ""
}
