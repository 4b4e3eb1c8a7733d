// Package mocks provides test doubles for the database package.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
)

// MockTxManager is a mock implementation of database.TxManager.
// By default WithTx simply invokes the callback with the given context,
// which is the behavior almost every use case test needs.
type MockTxManager struct {
	mock.Mock
}

// NewMockTxManager creates a MockTxManager whose WithTx passes the call through.
func NewMockTxManager(t *testing.T) *MockTxManager {
	t.Helper()

	m := &MockTxManager{}
	m.On("WithTx", mock.Anything, mock.Anything).Maybe()
	return m
}

// WithTx records the call and runs fn with the provided context.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx, fn)
	return fn(ctx)
}
