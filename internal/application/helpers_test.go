package application

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"linear-mcp-server/internal/domain"
)

// mockTransport is an in-memory domain.Transport.
type mockTransport struct {
	mu        sync.Mutex
	reqChan   chan *domain.Request
	responses []*domain.Response
	startErr  error
	closed    bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{reqChan: make(chan *domain.Request, 10)}
}

func (m *mockTransport) Start(ctx context.Context) error {
	return m.startErr
}

func (m *mockTransport) Send(response *domain.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
	return nil
}

func (m *mockTransport) Receive() <-chan *domain.Request {
	return m.reqChan
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.reqChan)
	}
	return nil
}

func (m *mockTransport) allResponses() []*domain.Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Response(nil), m.responses...)
}

// fakeRetriever returns canned results and records the descriptions it was asked for.
type fakeRetriever struct {
	mu      sync.Mutex
	tickets []domain.TicketSummary
	err     error
	calls   []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, description string) ([]domain.TicketSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, description)
	return f.tickets, f.err
}

func (f *fakeRetriever) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func discardLogger() *StructuredLogger {
	return NewStructuredLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestDispatcher registers the built-in capabilities over retriever.
func newTestDispatcher(retriever domain.TicketRetriever) *Dispatcher {
	registry := NewCapabilityRegistry()
	if err := RegisterCapabilities(registry, CapabilityDeps{
		Retriever: retriever,
		Logger:    discardLogger(),
	}); err != nil {
		panic(err)
	}
	return NewDispatcher(registry, discardLogger())
}
