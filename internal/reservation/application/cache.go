package application

import (
	"context"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
)

// SeatCache guarda listagens de assentos por ônibus. Cada ônibus tem uma
// geração que InvalidateBus avança: no miss, Get devolve a geração lida e Set
// só grava se ela ainda for a atual, então uma listagem lida antes de uma
// invalidação nunca entra no cache depois dela. Implementações toleram falhas
// do backend: Get com erro é miss com geração negativa e Set com geração
// negativa ou erro não grava.
type SeatCache interface {
	Get(ctx context.Context, query ListSeatsData) (seats []domain.Seat, generation int64, hit bool)
	Set(ctx context.Context, query ListSeatsData, generation int64, seats []domain.Seat)
	InvalidateBus(ctx context.Context, busID string) error
}

// NopSeatCache nunca acerta.
type NopSeatCache struct{}

func (NopSeatCache) Get(context.Context, ListSeatsData) ([]domain.Seat, int64, bool) { return nil, -1, false }
func (NopSeatCache) Set(context.Context, ListSeatsData, int64, []domain.Seat)        {}
func (NopSeatCache) InvalidateBus(context.Context, string) error                     { return nil }
