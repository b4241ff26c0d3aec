package rotator

import "sync"

// TestPort records every write so tests can assert on the exact command
// stream. WriteErr, when set, makes writes fail.
type TestPort struct {
	mu       sync.Mutex
	writes   []string
	WriteErr error
	closed   bool
}

func NewTestPort() *TestPort { return &TestPort{} }

func (p *TestPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}
	p.writes = append(p.writes, string(b))
	return len(b), nil
}

func (p *TestPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Writes returns a copy of everything written so far.
func (p *TestPort) Writes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.writes))
	copy(out, p.writes)
	return out
}

// Closed reports whether Close was called.
func (p *TestPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
