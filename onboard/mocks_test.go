package onboard

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"time"
)

var errMockClosed = errors.New("mock port closed")

type mockPort struct {
	lock   sync.Mutex
	tx     bytes.Buffer
	txErr  error
	closed bool

	rx      chan []byte
	rxErr   chan error
	closing chan struct{}
	once    sync.Once
}

func newMockPort() *mockPort {
	return &mockPort{
		rx:      make(chan []byte, 16),
		rxErr:   make(chan error, 1),
		closing: make(chan struct{}),
	}
}

func (p *mockPort) Read(b []byte) (int, error) {
	select {
	case data := <-p.rx:
		return copy(b, data), nil
	case err := <-p.rxErr:
		return 0, err
	case <-p.closing:
		return 0, errMockClosed
	case <-time.After(10 * time.Millisecond):
		return 0, nil
	}
}

func (p *mockPort) Write(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return 0, errMockClosed
	}
	if p.txErr != nil {
		return 0, p.txErr
	}
	return p.tx.Write(b)
}

func (p *mockPort) Close() error {
	p.lock.Lock()
	p.closed = true
	p.lock.Unlock()
	p.once.Do(func() { close(p.closing) })
	return nil
}

func (p *mockPort) setTxErr(err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.txErr = err
}

func (p *mockPort) isClosed() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.closed
}

// lines returns every complete line written so far, terminators included.
func (p *mockPort) lines() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	var out []string
	for _, l := range strings.SplitAfter(p.tx.String(), "\n") {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

type recordingSink struct {
	lock       sync.Mutex
	sent       []string
	telemetry  []string
	validation []string
}

func (s *recordingSink) Sent(msg string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sent = append(s.sent, msg)
}

func (s *recordingSink) Telemetry(msg string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.telemetry = append(s.telemetry, msg)
}

func (s *recordingSink) ValidationError(msg string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.validation = append(s.validation, msg)
}

func (s *recordingSink) snapshot() (sent, telemetry, validation []string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.sent...),
		append([]string(nil), s.telemetry...),
		append([]string(nil), s.validation...)
}

func (s *recordingSink) sentContaining(sub string) int {
	sent, _, _ := s.snapshot()
	count := 0
	for _, msg := range sent {
		if strings.Contains(msg, sub) {
			count++
		}
	}
	return count
}

// eventually polls cond until it holds or the timeout passes.
func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
