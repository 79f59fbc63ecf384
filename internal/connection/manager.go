package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/danmuck/vostok/internal/mailbox"
	"github.com/danmuck/vostok/internal/observability"
	"github.com/danmuck/vostok/internal/protocol"
	"github.com/danmuck/vostok/internal/protocol/frame"
	"github.com/danmuck/vostok/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

var (
	ErrAddressRequired  = errors.New("connection: address required")
	ErrConnectRefused   = errors.New("connection: connect refused")
	ErrConnectTimeout   = errors.New("connection: connect timeout")
	ErrConnectFailed    = errors.New("connection: connect failed")
	ErrAlreadyConnected = errors.New("connection: already connected")
	ErrAlreadyClosed    = errors.New("connection: already closed")
	ErrNotConnected     = errors.New("connection: not connected")
	ErrIO               = errors.New("connection: io failure")
)

type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Reply is one framed server reply, or the terminal error that stopped the
// reader.
type Reply struct {
	Body string
	Err  error
	At   time.Time
}

// Dialer opens the transport stream. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type Option func(*Manager)

func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

// WithRand fixes the backoff jitter source.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

type Manager struct {
	cfg    session.Config
	dialer Dialer
	rng    *rand.Rand

	mu         sync.Mutex
	link       *link
	connecting bool
}

type link struct {
	conn        net.Conn
	addr        string
	prompt      string
	replies     *mailbox.Mailbox[Reply]
	done        chan struct{}
	stopping    atomic.Bool
	connectedAt time.Time
	closeOnce   sync.Once
}

func NewManager(cfg session.Config, opts ...Option) (*Manager, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:    cfg,
		dialer: &net.Dialer{Timeout: cfg.ConnectTimeout},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	observability.RegisterMetrics()
	return m, nil
}

func (m *Manager) Config() session.Config {
	return m.cfg
}

func (m *Manager) State() State {
	if m.current() == nil {
		return StateDisconnected
	}
	return StateConnected
}

func (m *Manager) current() *link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.link
}

// Connect dials addr, primes the remote prompt with the handshake newline and
// starts the reader. An empty prompt selects the configured default. With
// AwaitGreeting set, the reply primed by the handshake is consumed here and
// returned as the greeting. On failure the manager stays Disconnected.
func (m *Manager) Connect(ctx context.Context, addr, prompt string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", ErrAddressRequired
	}
	if !m.reserve() {
		return "", ErrAlreadyConnected
	}
	defer m.release()
	if prompt == "" {
		prompt = m.cfg.Prompt
	}

	conn, err := m.dialWithRetry(ctx, addr)
	if err != nil {
		observability.RecordConnect(connectOutcome(err))
		return "", err
	}

	l, err := m.start(conn, addr, prompt)
	if err != nil {
		_ = conn.Close()
		observability.RecordConnect("failed")
		return "", err
	}

	greeting := ""
	if m.cfg.AwaitGreeting {
		greeting, err = m.awaitGreeting(ctx, l)
		if err != nil {
			l.shutdown()
			observability.RecordConnect(connectOutcome(err))
			log.Warn().Str("addr", addr).Err(err).Msg("connection.Manager greeting failed")
			return "", err
		}
	}

	m.mu.Lock()
	m.link = l
	m.mu.Unlock()

	observability.RecordConnect("ok")
	observability.SetConnected(true)
	log.Info().Str("addr", addr).Msg("connection.Manager connected")
	return greeting, nil
}

// reserve claims the single connect slot. It fails while a session is open
// or another Connect is in progress, so at most one socket ever exists.
func (m *Manager) reserve() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.link != nil || m.connecting {
		return false
	}
	m.connecting = true
	return true
}

func (m *Manager) release() {
	m.mu.Lock()
	m.connecting = false
	m.mu.Unlock()
}

func (m *Manager) dialWithRetry(ctx context.Context, addr string) (net.Conn, error) {
	for attempt := 1; ; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
		conn, err := m.dialer.DialContext(dialCtx, "tcp", addr)
		cancel()
		if err == nil {
			return conn, nil
		}
		err = classifyDialError(addr, err)
		log.Warn().Int("attempt", attempt).Str("addr", addr).Err(err).Msg("connection.Manager dial failed")
		if attempt >= m.cfg.MaxConnectAttempts || ctx.Err() != nil {
			return nil, err
		}
		if err := sleepContext(ctx, m.cfg.Backoff.Delay(attempt, m.rng)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConnectFailed, addr, err)
		}
	}
}

func (m *Manager) start(conn net.Conn, addr, prompt string) (*link, error) {
	sc, err := frame.NewScanner(conn, prompt, m.cfg.Limits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(m.cfg.HandshakeTimeout))
	if _, err := conn.Write([]byte{frame.LineTerminator}); err != nil {
		return nil, fmt.Errorf("%w: handshake: %v", ErrConnectFailed, err)
	}
	_ = conn.SetWriteDeadline(time.Time{})

	l := &link{
		conn:        conn,
		addr:        addr,
		prompt:      prompt,
		replies:     mailbox.New[Reply](),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
	go l.readLoop(sc)
	return l, nil
}

func (m *Manager) awaitGreeting(ctx context.Context, l *link) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, m.cfg.HandshakeTimeout)
	defer cancel()
	r, err := l.replies.Pop(waitCtx)
	switch {
	case err == nil && r.Err == nil:
		return r.Body, nil
	case err == nil:
		return "", fmt.Errorf("%w: greeting: %v", ErrConnectFailed, r.Err)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return "", fmt.Errorf("%w: no prompt within %s", ErrConnectTimeout, m.cfg.HandshakeTimeout)
	default:
		return "", fmt.Errorf("%w: greeting: %v", ErrConnectFailed, err)
	}
}

// Disconnect shuts the socket down in both directions, waits for the reader
// to exit, then marks the manager Disconnected.
func (m *Manager) Disconnect() error {
	l := m.current()
	if l == nil {
		return ErrAlreadyClosed
	}
	m.drop(l, nil)
	return nil
}

// SendCommand writes one encoded wire line. A write failure drops the session.
func (m *Manager) SendCommand(raw []byte) error {
	l := m.current()
	if l == nil {
		return ErrNotConnected
	}
	_ = l.conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	_, err := l.conn.Write(raw)
	_ = l.conn.SetWriteDeadline(time.Time{})
	if err != nil {
		err = fmt.Errorf("%w: write: %v", ErrIO, err)
		m.drop(l, err)
		return err
	}
	return nil
}

// AwaitReply blocks for the next framed reply, bounded by the response
// timeout. A timeout or reader failure drops the session; the returned error
// says why.
func (m *Manager) AwaitReply(ctx context.Context) (string, error) {
	l := m.current()
	if l == nil {
		return "", ErrNotConnected
	}
	waitCtx, cancel := context.WithTimeout(ctx, m.cfg.ResponseTimeout)
	defer cancel()

	r, err := l.replies.Pop(waitCtx)
	switch {
	case err == nil && r.Err == nil:
		return r.Body, nil
	case err == nil:
		m.drop(l, r.Err)
		return "", r.Err
	case errors.Is(err, mailbox.ErrClosed):
		return "", ErrNotConnected
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		err = fmt.Errorf("%w: no prompt within %s", protocol.ErrTimeout, m.cfg.ResponseTimeout)
		m.drop(l, err)
		return "", err
	default:
		return "", err
	}
}

// Pending fires when the reader has queued something while no command is in
// flight. It is nil while disconnected, so a select on it blocks.
func (m *Manager) Pending() <-chan struct{} {
	l := m.current()
	if l == nil {
		return nil
	}
	return l.replies.Notify()
}

// Poll takes a queued reply without blocking. A terminal reader error drops
// the session and is returned in Reply.Err.
func (m *Manager) Poll() (Reply, bool) {
	l := m.current()
	if l == nil {
		return Reply{}, false
	}
	r, ok := l.replies.TryPop()
	if ok && r.Err != nil {
		m.drop(l, r.Err)
	}
	return r, ok
}

// Snapshot describes the session for status reporting.
type Snapshot struct {
	State       string    `json:"state"`
	Addr        string    `json:"addr,omitempty"`
	Prompt      string    `json:"prompt,omitempty"`
	ConnectedAt time.Time `json:"connected_at,omitzero"`
	Queued      int       `json:"queued"`
}

func (m *Manager) Snapshot() Snapshot {
	l := m.current()
	if l == nil {
		return Snapshot{State: StateDisconnected.String()}
	}
	return Snapshot{
		State:       StateConnected.String(),
		Addr:        l.addr,
		Prompt:      l.prompt,
		ConnectedAt: l.connectedAt,
		Queued:      l.replies.Len(),
	}
}

func (m *Manager) drop(l *link, cause error) {
	l.shutdown()
	m.mu.Lock()
	if m.link == l {
		m.link = nil
	}
	m.mu.Unlock()
	observability.SetConnected(false)
	if cause != nil {
		observability.RecordProtocolError(errorReason(cause))
		log.Warn().Str("addr", l.addr).Err(cause).Msg("connection.Manager session dropped")
		return
	}
	log.Info().Str("addr", l.addr).Msg("connection.Manager disconnected")
}

func (l *link) shutdown() {
	l.closeOnce.Do(func() {
		l.stopping.Store(true)
		if hc, ok := l.conn.(interface {
			CloseRead() error
			CloseWrite() error
		}); ok {
			_ = hc.CloseWrite()
			_ = hc.CloseRead()
		}
		_ = l.conn.Close()
		<-l.done
		l.replies.Close()
	})
}

func (l *link) readLoop(sc *frame.Scanner) {
	defer close(l.done)
	for {
		body, err := sc.Next()
		if err == nil {
			l.replies.Push(Reply{Body: body, At: time.Now()})
			continue
		}
		if l.stopping.Load() {
			return
		}
		switch {
		case errors.Is(err, io.EOF):
			err = protocol.ErrPeerClosed
		case !protocol.Unrecoverable(err):
			err = fmt.Errorf("%w: read: %v", ErrIO, err)
		}
		log.Debug().Str("addr", l.addr).Err(err).Msg("connection.link reader stopped")
		l.replies.Push(Reply{Err: err, At: time.Now()})
		return
	}
}

func classifyDialError(addr string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %s", ErrConnectRefused, addr)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %s", ErrConnectTimeout, addr)
	default:
		return fmt.Errorf("%w: %s: %v", ErrConnectFailed, addr, err)
	}
}

func connectOutcome(err error) string {
	switch {
	case errors.Is(err, ErrConnectRefused):
		return "refused"
	case errors.Is(err, ErrConnectTimeout):
		return "timeout"
	default:
		return "failed"
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrTimeout):
		return "timeout"
	case errors.Is(err, protocol.ErrPeerClosed):
		return "peer_closed"
	case errors.Is(err, protocol.ErrTruncated):
		return "truncated"
	case errors.Is(err, protocol.ErrReplyTooLarge):
		return "reply_too_large"
	default:
		return "io"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
