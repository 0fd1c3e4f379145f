package mocks

import (
	"context"

	"github.com/taskhub/taskhub-api/internal/store"
)

// MockTxRunner runs the function directly with a nil transaction. Paired
// with stores whose WithTx(nil) returns the store unchanged, the service's
// transactional code paths run against in-memory state.
type MockTxRunner struct {
	// BeginErr, when set, is returned without invoking the function.
	BeginErr error

	// Calls counts invocations of RunInTransaction.
	Calls int
}

var _ store.TxRunner = (*MockTxRunner)(nil)

// RunInTransaction implements store.TxRunner.
func (m *MockTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	m.Calls++
	if m.BeginErr != nil {
		return m.BeginErr
	}
	return fn(ctx, nil)
}
