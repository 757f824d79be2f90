package main

import (
	"os"

	"github.com/mateusmacedo/bus-reservation/internal/app"
	"github.com/mateusmacedo/bus-reservation/internal/config"
)

// Sobe o serviço com os eventos de reserva no transporte kafka, ignorando
// EVENT_TRANSPORT.
func main() {
	os.Exit(app.Main(func(cfg *config.Config) {
		cfg.EventTransport = config.TransportKafka
	}))
}
