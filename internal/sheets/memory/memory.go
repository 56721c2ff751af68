package memory

import (
	"context"
	"fmt"
	"sync"

	"chitfund/internal/storage"
)

// Store is an in-memory StatementWriter, used in tests and when running
// without Google credentials.
type Store struct {
	mu    sync.Mutex
	items []storage.PaymentStatement

	// FailNext makes the next Append return an error, for exercising
	// sync error paths.
	FailNext bool
}

func New() *Store {
	return &Store{}
}

// Append stores the statement and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, st storage.PaymentStatement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext {
		s.FailNext = false
		return "", fmt.Errorf("append statement for payment %d: simulated failure", st.Payment.ID)
	}
	s.items = append(s.items, st)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Items returns a copy of everything appended so far.
func (s *Store) Items() []storage.PaymentStatement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.PaymentStatement(nil), s.items...)
}
