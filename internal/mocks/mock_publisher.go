package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, queueName string, event any) error {
	args := m.Called(ctx, queueName, event)
	return args.Error(0)
}
