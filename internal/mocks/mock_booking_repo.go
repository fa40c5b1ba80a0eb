package mocks

import (
	"context"

	"github.com/Tribhuvan-Web/cinebook/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepo struct {
	mock.Mock
	domain.BookingRepository
}

func (m *MockBookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, id int) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetByHoldID(ctx context.Context, holdID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, holdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetBySessionID(ctx context.Context, sessionID string) ([]domain.Booking, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) Update(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepo) GetSoldSeats(ctx context.Context) ([]domain.SoldSeat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SoldSeat), args.Error(1)
}
