package history

import (
	"context"
	"sync"
)

// Memory keeps the last limit rounds of each room in process memory.
type Memory struct {
	mu     sync.Mutex
	limit  int
	rounds map[string][]Round
}

func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = 20
	}
	return &Memory{limit: limit, rounds: make(map[string][]Round)}
}

func (m *Memory) Record(_ context.Context, r Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rs := append(m.rounds[r.Room], r)
	if len(rs) > m.limit {
		rs = rs[len(rs)-m.limit:]
	}
	m.rounds[r.Room] = rs
	return nil
}

func (m *Memory) Recent(_ context.Context, room string, n int) ([]Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rs := m.rounds[room]
	if n <= 0 || n > len(rs) {
		n = len(rs)
	}
	out := make([]Round, 0, n)
	for i := len(rs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, rs[i])
	}
	return out, nil
}

func (m *Memory) Forget(room string) {
	m.mu.Lock()
	delete(m.rounds, room)
	m.mu.Unlock()
}
