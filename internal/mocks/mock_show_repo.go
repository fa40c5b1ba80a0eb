package mocks

import (
	"context"

	"github.com/Tribhuvan-Web/cinebook/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockShowRepo struct {
	mock.Mock
	domain.ShowRepository
}

func (m *MockShowRepo) GetSlotSeats(ctx context.Context, slotID int) (*domain.SlotSeats, error) {
	args := m.Called(ctx, slotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SlotSeats), args.Error(1)
}

func (m *MockShowRepo) GetSlotSeatsByNumbers(ctx context.Context, slotID int, seatNumbers []string) (*domain.SlotSeats, error) {
	args := m.Called(ctx, slotID, seatNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SlotSeats), args.Error(1)
}
