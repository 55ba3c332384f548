package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/wattson-io/wattson-core/internal/audit"
)

// reloadDepth is how many persisted exchanges are pulled back into memory
// at startup.
const reloadDepth = 50

// Memory is a bounded conversation buffer used for prompt context.
//
// The full history lives in chat_history; this ring keeps the newest
// exchanges in process so prompt assembly never touches the database.
type Memory struct {
	mu       sync.Mutex
	capacity int
	records  []audit.ChatRecord
}

// NewMemory creates a conversation buffer holding at most capacity
// exchanges.
func NewMemory(capacity int) *Memory {
	if capacity < 1 {
		capacity = 100
	}
	return &Memory{capacity: capacity}
}

// Load restores the most recent persisted exchanges, oldest first.
func (m *Memory) Load(ctx context.Context, repo audit.Repository) error {
	records, err := repo.RecentExchanges(ctx, reloadDepth)
	if err != nil {
		return fmt.Errorf("loading chat history: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = m.records[:0]
	for _, r := range records {
		m.append(r)
	}
	return nil
}

// Append adds one exchange, evicting the oldest when full.
func (m *Memory) Append(record audit.ChatRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.append(record)
}

func (m *Memory) append(record audit.ChatRecord) {
	if len(m.records) == m.capacity {
		copy(m.records, m.records[1:])
		m.records = m.records[:m.capacity-1]
	}
	m.records = append(m.records, record)
}

// Last returns up to n of the newest exchanges, oldest first.
func (m *Memory) Last(n int) []audit.ChatRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n > len(m.records) {
		n = len(m.records)
	}
	out := make([]audit.ChatRecord, n)
	copy(out, m.records[len(m.records)-n:])
	return out
}

// Len returns the number of buffered exchanges.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
