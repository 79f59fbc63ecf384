// Package simserver runs a scripted loopback stand-in for the ship
// simulation server. Each received line is answered by a Handler and framed
// with the configured prompt.
package simserver

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/vostok/internal/protocol/frame"
)

// Reply scripts the answer to one received line.
type Reply struct {
	Body string
	// Silent sends nothing back.
	Silent bool
	// NoPrompt writes Body without the trailing prompt.
	NoPrompt bool
	// Close drops the connection after writing.
	Close bool
	// Delay postpones the write.
	Delay time.Duration
}

type Handler func(line string) Reply

// Echo answers each line with the line itself.
func Echo(line string) Reply {
	return Reply{Body: line + "\n"}
}

type Option func(*Server)

func WithPrompt(prompt string) Option {
	return func(s *Server) { s.prompt = prompt }
}

// WithGreeting sets the banner written after the handshake line.
func WithGreeting(banner string) Option {
	return func(s *Server) { s.greeting = banner }
}

// WithoutGreeting leaves the handshake unanswered.
func WithoutGreeting() Option {
	return func(s *Server) { s.noGreeting = true }
}

func WithHandler(h Handler) Option {
	return func(s *Server) { s.handler = h }
}

// WithChunkSize splits every write into chunks of n bytes.
func WithChunkSize(n int) Option {
	return func(s *Server) { s.chunk = n }
}

type Server struct {
	ln         net.Listener
	prompt     string
	greeting   string
	noGreeting bool
	handler    Handler
	chunk      int

	mu      sync.Mutex
	lines   []string
	accepts int
	conns   map[net.Conn]struct{}
	wg      sync.WaitGroup
}

// Start listens on a loopback port and stops the server when t ends.
func Start(t testing.TB, opts ...Option) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("simserver listen: %v", err)
	}
	s := &Server{
		ln:       ln,
		prompt:   frame.DefaultPrompt,
		greeting: "Welcome aboard.\n",
		handler:  Echo,
		conns:    make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

func (s *Server) Prompt() string {
	return s.prompt
}

// Lines returns every line received so far, handshake included.
func (s *Server) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *Server) Accepts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepts
}

// Push writes an unsolicited prompt-framed reply to every open connection.
func (s *Server) Push(body string) {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = s.write(c, body+s.prompt)
	}
}

// DropConnections closes every open connection but keeps listening.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}

func (s *Server) Close() {
	_ = s.ln.Close()
	s.DropConnections()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepts++
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	r := bufio.NewReader(conn)
	handshake := true
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()

		if handshake {
			handshake = false
			if !s.noGreeting {
				if err := s.write(conn, s.greeting+s.prompt); err != nil {
					return
				}
			}
			continue
		}

		reply := s.handler(line)
		if reply.Delay > 0 {
			time.Sleep(reply.Delay)
		}
		if !reply.Silent {
			out := reply.Body
			if !reply.NoPrompt {
				out += s.prompt
			}
			if err := s.write(conn, out); err != nil {
				return
			}
		}
		if reply.Close {
			return
		}
	}
}

func (s *Server) write(w io.Writer, out string) error {
	data := []byte(out)
	if s.chunk <= 0 {
		_, err := w.Write(data)
		return err
	}
	for len(data) > 0 {
		n := s.chunk
		if n > len(data) {
			n = len(data)
		}
		if _, err := w.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
		time.Sleep(time.Millisecond)
	}
	return nil
}
