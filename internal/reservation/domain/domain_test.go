package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
)

func TestErrorTaxonomy(t *testing.T) {
	notFound := domain.NotFound("booking", domain.ErrBookingNotFound, "booking %s not found", "b-1")
	conflict := domain.Conflict("seat", domain.ErrSeatAlreadyBooked, "seat %s already booked", "R01")
	invalid := domain.Invalid("busId", "is required")

	assert.True(t, domain.IsNotFound(notFound))
	assert.ErrorIs(t, notFound, domain.ErrBookingNotFound)
	assert.Equal(t, "booking b-1 not found", notFound.Error())

	assert.True(t, domain.IsConflict(conflict))
	assert.False(t, domain.IsNotFound(conflict))
	assert.ErrorIs(t, conflict, domain.ErrSeatAlreadyBooked)

	assert.True(t, domain.IsValidation(invalid))
	assert.Equal(t, "busId: is required", invalid.Error())
}

func TestInternalKeepsCategorizedErrors(t *testing.T) {
	notFound := domain.NotFound("bus", domain.ErrBusNotFound, "bus not found")

	assert.Nil(t, domain.Internal("noop", nil))
	assert.Equal(t, notFound, domain.Internal("find bus", notFound))

	wrapped := domain.Internal("save seats", errors.New("connection reset"))
	assert.True(t, domain.IsInternal(wrapped))
	assert.Equal(t, "save seats: connection reset", wrapped.Error())
}

func TestParseSeatType(t *testing.T) {
	for in, want := range map[string]domain.SeatType{
		"REGULAR":   domain.SeatRegular,
		"elder":     domain.SeatElder,
		" Pregnant": domain.SeatPregnant,
	} {
		got, err := domain.ParseSeatType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := domain.ParseSeatType("VIP")
	assert.True(t, domain.IsValidation(err))
}

func TestParseSeatStatus(t *testing.T) {
	got, err := domain.ParseSeatStatus("booked")
	require.NoError(t, err)
	assert.Equal(t, domain.SeatBooked, got)

	_, err = domain.ParseSeatStatus("HELD")
	assert.True(t, domain.IsValidation(err))
}

func TestSeatNumberFor(t *testing.T) {
	assert.Equal(t, "R01", domain.SeatNumberFor(domain.SeatRegular, 1))
	assert.Equal(t, "E02", domain.SeatNumberFor(domain.SeatElder, 2))
	assert.Equal(t, "P10", domain.SeatNumberFor(domain.SeatPregnant, 10))
	assert.Equal(t, "R120", domain.SeatNumberFor(domain.SeatRegular, 120))
}

func TestClampAvailable(t *testing.T) {
	bus := domain.Bus{TotalSeats: 40}

	assert.Equal(t, 0, bus.ClampAvailable(-1))
	assert.Equal(t, 12, bus.ClampAvailable(12))
	assert.Equal(t, 40, bus.ClampAvailable(41))
}

func TestNormalizeDepartureDate(t *testing.T) {
	assert.Equal(t, "25-12-2024", domain.NormalizeDepartureDate("2024-12-25"))
	assert.Equal(t, "25-12-2024", domain.NormalizeDepartureDate("25-12-2024"))
	assert.Equal(t, "tomorrow", domain.NormalizeDepartureDate("tomorrow"))
	assert.Equal(t, "", domain.NormalizeDepartureDate(""))
}

func TestUserPriority(t *testing.T) {
	cases := []struct {
		name string
		user domain.User
		want domain.PriorityInfo
	}{
		{
			name: "regular",
			user: domain.User{ID: "u-1", Age: 30, Gender: "male"},
			want: domain.PriorityInfo{UserID: "u-1", RecommendedSeatType: domain.SeatRegular},
		},
		{
			name: "elder",
			user: domain.User{ID: "u-2", Age: 60},
			want: domain.PriorityInfo{UserID: "u-2", ElderEligible: true, RecommendedSeatType: domain.SeatElder},
		},
		{
			name: "pregnant wins over elder",
			user: domain.User{ID: "u-3", Age: 61, Gender: "Female", IsPregnant: true},
			want: domain.PriorityInfo{UserID: "u-3", ElderEligible: true, PregnantEligible: true, RecommendedSeatType: domain.SeatPregnant},
		},
		{
			name: "pregnancy flag needs female gender",
			user: domain.User{ID: "u-4", Age: 25, Gender: "male", IsPregnant: true},
			want: domain.PriorityInfo{UserID: "u-4", RecommendedSeatType: domain.SeatRegular},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.user.Priority())
		})
	}
}
