package domain

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Transport defines the interface for MCP transport mechanisms.
// Implementations frame and unframe JSON-RPC messages; they know nothing about MCP methods.
type Transport interface {
	// Start begins listening for incoming MCP messages.
	// Returns an error if the transport cannot be attached.
	Start(ctx context.Context) error

	// Send transmits a JSON-RPC response to the client.
	Send(response *Response) error

	// Receive returns a channel for incoming JSON-RPC requests.
	// The channel is closed when the transport has no more input.
	Receive() <-chan *Request

	// Close gracefully shuts down the transport.
	Close() error
}

// StdioTransport implements Transport over newline-delimited JSON on stdin/stdout.
// Nothing but protocol frames is ever written to the writer.
type StdioTransport struct {
	reader  *bufio.Reader
	writer  *bufio.Writer
	reqChan chan *Request
	logger  *slog.Logger
	mu      sync.Mutex
	started bool
	closed  bool
}

// NewStdioTransport creates a StdioTransport on os.Stdin and os.Stdout.
func NewStdioTransport() *StdioTransport {
	return NewStdioTransportWithIO(os.Stdin, os.Stdout)
}

// NewStdioTransportWithIO creates a StdioTransport with custom IO streams.
func NewStdioTransportWithIO(reader io.Reader, writer io.Writer) *StdioTransport {
	return &StdioTransport{
		reader:  bufio.NewReader(reader),
		writer:  bufio.NewWriter(writer),
		reqChan: make(chan *Request, 10),
		logger:  slog.Default(),
	}
}

// Start spawns the read loop.
func (t *StdioTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}
	if t.started {
		return fmt.Errorf("transport already started")
	}
	t.started = true

	go t.readLoop(ctx)
	return nil
}

// readLoop reads one message per line until EOF, a read error or cancellation.
func (t *StdioTransport) readLoop(ctx context.Context) {
	defer close(t.reqChan)

	for {
		line, err := t.reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if req := t.decode(line); req != nil {
				select {
				case t.reqChan <- req:
				case <-ctx.Done():
					return
				}
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.logger.Error("stdin read failed", "error", err)
			}
			return
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// decode parses a frame and answers protocol-level framing errors itself.
func (t *StdioTransport) decode(line string) *Request {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		t.reply(NewErrorResponse(nil, ParseError, "Parse error", err.Error()))
		return nil
	}

	if req.JSONRPC != JSONRPCVersion {
		t.reply(NewErrorResponse(req.ID, InvalidRequest, "Invalid Request", "invalid jsonrpc version"))
		return nil
	}

	return &req
}

func (t *StdioTransport) reply(response *Response) {
	if err := t.Send(response); err != nil {
		t.logger.Error("failed to send framing error", "error", err)
	}
}

// Send writes a response as a single line of JSON.
func (t *StdioTransport) Send(response *Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}

	data, err := encodeResponse(response)
	if err != nil {
		return err
	}

	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}

	return nil
}

// Receive returns the channel for incoming JSON-RPC requests.
func (t *StdioTransport) Receive() <-chan *Request {
	return t.reqChan
}

// Close marks the transport closed. The request channel is closed by the read loop.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	return nil
}

func encodeResponse(response *Response) ([]byte, error) {
	if response.JSONRPC == "" {
		response.JSONRPC = JSONRPCVersion
	}

	data, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	// encoding/json escapes control characters, so a frame never spans lines.
	return data, nil
}

// HTTPTransport implements Transport using HTTP with SSE.
// GET /mcp opens a session stream; POST /mcp/message?sessionId=... submits a request.
// Replies are delivered on the stream of the session that sent the request.
type HTTPTransport struct {
	host     string
	port     int
	server   *http.Server
	listener net.Listener
	reqChan  chan *Request
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool

	sessions   map[string]*sseSession
	sessionsMu sync.RWMutex
}

type sseSession struct {
	id       string
	messages chan *Response
	done     chan struct{}
	once     sync.Once
}

func (s *sseSession) close() {
	s.once.Do(func() { close(s.done) })
}

// NewHTTPTransport creates a new HTTPTransport instance.
func NewHTTPTransport(host string, port int) *HTTPTransport {
	return &HTTPTransport{
		host:     host,
		port:     port,
		reqChan:  make(chan *Request, 10),
		logger:   slog.Default(),
		sessions: make(map[string]*sseSession),
	}
}

// Start binds the listener synchronously so an unusable address fails startup.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}

	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	t.listener = listener

	t.server = &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := t.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("http transport stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = t.Close()
	}()

	t.logger.Info("http transport listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound address once Start succeeded.
func (t *HTTPTransport) Addr() string {
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

// Handler returns the HTTP handler serving both endpoints.
func (t *HTTPTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /mcp", t.handleSSE)
	mux.HandleFunc("POST /mcp/message", t.handleMessage)
	return mux
}

func (t *HTTPTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	session := &sseSession{
		id:       uuid.NewString(),
		messages: make(chan *Response, 10),
		done:     make(chan struct{}),
	}

	t.sessionsMu.Lock()
	t.sessions[session.id] = session
	t.sessionsMu.Unlock()

	defer func() {
		t.sessionsMu.Lock()
		delete(t.sessions, session.id)
		t.sessionsMu.Unlock()
		session.close()
	}()

	fmt.Fprintf(w, "event: endpoint\ndata: /mcp/message?sessionId=%s\n\n", session.id)
	flusher.Flush()
	t.logger.Debug("sse session opened", "session", session.id)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			t.logger.Debug("sse session closed by client", "session", session.id)
			return
		case <-session.done:
			return
		case response := <-session.messages:
			data, err := encodeResponse(response)
			if err != nil {
				t.logger.Error("failed to encode sse message", "session", session.id, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func (t *HTTPTransport) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "Missing sessionId parameter", http.StatusBadRequest)
		return
	}

	session, ok := t.session(sessionID)
	if !ok {
		http.Error(w, "Invalid session", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		t.deliver(session, NewErrorResponse(nil, ParseError, "Parse error", err.Error()))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if req.JSONRPC != JSONRPCVersion {
		t.deliver(session, NewErrorResponse(req.ID, InvalidRequest, "Invalid Request", "invalid jsonrpc version"))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	req.SessionID = session.id

	select {
	case t.reqChan <- &req:
		w.WriteHeader(http.StatusAccepted)
	default:
		t.deliver(session, NewErrorResponse(req.ID, InternalError, "Internal error", "request queue full"))
		w.WriteHeader(http.StatusServiceUnavailable)
	}
}

func (t *HTTPTransport) session(id string) (*sseSession, bool) {
	t.sessionsMu.RLock()
	defer t.sessionsMu.RUnlock()
	session, ok := t.sessions[id]
	return session, ok
}

func (t *HTTPTransport) deliver(session *sseSession, response *Response) {
	select {
	case session.messages <- response:
	case <-session.done:
	default:
		t.logger.Warn("dropping sse message: session queue full", "session", session.id)
	}
}

// Send delivers a response to the session that issued the matching request.
func (t *HTTPTransport) Send(response *Response) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return fmt.Errorf("transport is closed")
	}

	session, ok := t.session(response.SessionID)
	if !ok {
		return fmt.Errorf("unknown session: %q", response.SessionID)
	}

	t.deliver(session, response)
	return nil
}

// Receive returns the channel for incoming JSON-RPC requests.
func (t *HTTPTransport) Receive() <-chan *Request {
	return t.reqChan
}

// Close shuts down the HTTP server and all SSE sessions.
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	t.sessionsMu.Lock()
	for _, session := range t.sessions {
		session.close()
	}
	t.sessions = make(map[string]*sseSession)
	t.sessionsMu.Unlock()

	var err error
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = t.server.Shutdown(ctx)
	}

	close(t.reqChan)
	return err
}
