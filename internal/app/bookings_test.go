package app

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/Tribhuvan-Web/cinebook/api"
	"github.com/Tribhuvan-Web/cinebook/internal/domain"
)

type BookingsTestSuite struct {
	suite.Suite
	app  *application
	deps *testDeps
}

func (s *BookingsTestSuite) SetupTest() {
	s.app, s.deps = newTestApplication()
}

func TestBookingsSuite(t *testing.T) {
	suite.Run(t, new(BookingsTestSuite))
}

func (s *BookingsTestSuite) TestGetBookings() {
	s.SetupTest()

	createdAt := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	s.deps.bookingRepo.On("GetBySessionID", mock.Anything, "").Return([]domain.Booking{
		{
			ID:          2,
			SlotID:      1,
			SeatNumbers: []string{"A1"},
			TotalAmount: decimal.NewFromInt(12),
			Status:      domain.BookingStatusConfirmed,
			CreatedAt:   createdAt,
		},
		{
			ID:          1,
			SlotID:      1,
			SeatNumbers: []string{"B1"},
			TotalAmount: decimal.NewFromInt(20),
			Status:      domain.BookingStatusFailed,
			CreatedAt:   createdAt.Add(-time.Hour),
		},
	}, nil)

	w, r := executeRequest(s.T(), http.MethodGet, "/v1/bookings", nil)
	r = setupTestSession(s.T(), s.app, r)

	s.app.GetBookingsHandler(w, r)

	s.Equal(http.StatusOK, w.Code)

	var resp []api.BookingSummaryResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))

	s.Require().Len(resp, 2)
	s.Equal(2, resp[0].BookingId)
	s.Equal("CONFIRMED", resp[0].Status)
	s.Equal("12.00", resp[0].TotalAmount)
	s.Equal("FAILED", resp[1].Status)
}

func (s *BookingsTestSuite) TestGetBookingById() {
	s.Run("should fail on a non-numeric booking ID", func() {
		s.SetupTest()

		w, r := executeRequest(s.T(), http.MethodGet, "/v1/bookings/abc", nil)
		r = setupTestSession(s.T(), s.app, r)
		r = withUrlParam(r, "bookingId", "abc")

		s.app.GetBookingByIdHandler(w, r)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("should fail when the booking does not exist", func() {
		s.SetupTest()

		s.deps.bookingRepo.On("GetByID", mock.Anything, 99).Return(nil, domain.ErrRecordNotFound)

		w, r := executeRequest(s.T(), http.MethodGet, "/v1/bookings/99", nil)
		r = setupTestSession(s.T(), s.app, r)
		r = withUrlParam(r, "bookingId", "99")

		s.app.GetBookingByIdHandler(w, r)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("should hide bookings of other sessions", func() {
		s.SetupTest()

		s.deps.bookingRepo.On("GetByID", mock.Anything, 7).Return(&domain.Booking{
			ID:        7,
			SessionID: "someone-else",
			Status:    domain.BookingStatusConfirmed,
		}, nil)

		w, r := executeRequest(s.T(), http.MethodGet, "/v1/bookings/7", nil)
		r = setupTestSession(s.T(), s.app, r)
		r = withUrlParam(r, "bookingId", "7")

		s.app.GetBookingByIdHandler(w, r)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("should return the booking detail", func() {
		s.SetupTest()

		s.deps.bookingRepo.On("GetByID", mock.Anything, 7).Return(&domain.Booking{
			ID:            7,
			HoldID:        uuid.New(),
			SessionID:     "",
			SlotID:        1,
			SeatNumbers:   []string{"A1", "A2"},
			TotalAmount:   decimal.NewFromInt(24),
			Status:        domain.BookingStatusFailed,
			FailureReason: ptr("payment_declined"),
		}, nil)

		w, r := executeRequest(s.T(), http.MethodGet, "/v1/bookings/7", nil)
		r = setupTestSession(s.T(), s.app, r)
		r = withUrlParam(r, "bookingId", "7")

		s.app.GetBookingByIdHandler(w, r)
		s.Equal(http.StatusOK, w.Code)

		var resp api.BookingDetailResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))

		s.Equal(7, resp.BookingId)
		s.Equal("FAILED", resp.Status)
		s.Equal("payment_declined", *resp.FailureReason)
		s.Equal("24.00", resp.TotalAmount)
	})
}

func (s *BookingsTestSuite) TestVerifyTicket() {
	ticketCode := "TKT-0123456789ABCDEF"
	ticketHash, err := bcrypt.GenerateFromPassword([]byte(ticketCode), bcrypt.MinCost)
	if err != nil {
		s.T().Fatal(err)
	}

	confirmedBooking := func() *domain.Booking {
		return &domain.Booking{
			ID:         7,
			Status:     domain.BookingStatusConfirmed,
			TicketHash: ticketHash,
		}
	}

	s.Run("should fail when the booking does not exist", func() {
		s.SetupTest()

		s.deps.bookingRepo.On("GetByID", mock.Anything, 99).Return(nil, domain.ErrRecordNotFound)

		w, r := executeRequest(s.T(), http.MethodPost, "/v1/tickets/verify",
			api.TicketVerificationRequest{BookingId: 99, TicketCode: ticketCode})
		r = setupTestSession(s.T(), s.app, r)

		s.app.VerifyTicketHandler(w, r)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("should reject a wrong ticket code", func() {
		s.SetupTest()

		s.deps.bookingRepo.On("GetByID", mock.Anything, 7).Return(confirmedBooking(), nil)

		w, r := executeRequest(s.T(), http.MethodPost, "/v1/tickets/verify",
			api.TicketVerificationRequest{BookingId: 7, TicketCode: "TKT-FFFFFFFFFFFFFFFF"})
		r = setupTestSession(s.T(), s.app, r)

		s.app.VerifyTicketHandler(w, r)
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("should verify a valid ticket code", func() {
		s.SetupTest()

		b := confirmedBooking()
		s.deps.bookingRepo.On("GetByID", mock.Anything, 7).Return(b, nil)
		s.deps.bookingRepo.On("Update", mock.Anything, b).Return(nil)

		w, r := executeRequest(s.T(), http.MethodPost, "/v1/tickets/verify",
			api.TicketVerificationRequest{BookingId: 7, TicketCode: ticketCode})
		r = setupTestSession(s.T(), s.app, r)

		s.app.VerifyTicketHandler(w, r)
		s.Equal(http.StatusOK, w.Code)

		var resp api.TicketVerificationResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))

		s.Equal(7, resp.BookingId)
		s.True(resp.Verified)
		s.NotNil(resp.VerifiedAt)
	})

	s.Run("should reject an already verified ticket", func() {
		s.SetupTest()

		b := confirmedBooking()
		b.Verified = true
		s.deps.bookingRepo.On("GetByID", mock.Anything, 7).Return(b, nil)

		w, r := executeRequest(s.T(), http.MethodPost, "/v1/tickets/verify",
			api.TicketVerificationRequest{BookingId: 7, TicketCode: ticketCode})
		r = setupTestSession(s.T(), s.app, r)

		s.app.VerifyTicketHandler(w, r)
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})
}
