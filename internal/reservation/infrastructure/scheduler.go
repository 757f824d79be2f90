package infrastructure

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/application"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
)

// ReservationJobs executa a manutenção do inventário em segundo plano: semeia
// uma vez na inicialização os ônibus com capacidade e sem assentos e recalcula
// periodicamente o contador de cada ônibus a partir dos assentos.
type ReservationJobs struct {
	scheduler gocron.Scheduler
	inventory *application.SeatInventory
	capacity  *application.CapacityTracker
	policy    application.SeatPolicy
	logger    pkgApp.AppLogger
}

func NewReservationJobs(
	inventory *application.SeatInventory,
	capacity *application.CapacityTracker,
	policy application.SeatPolicy,
	logger pkgApp.AppLogger,
) (*ReservationJobs, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &ReservationJobs{
		scheduler: scheduler,
		inventory: inventory,
		capacity:  capacity,
		policy:    policy,
		logger:    logger,
	}, nil
}

// Schedule registra os jobs. Intervalo zero desativa a reconciliação.
func (j *ReservationJobs) Schedule(reconcileInterval time.Duration) error {
	_, err := j.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()),
		gocron.NewTask(j.SeedInventories),
		gocron.WithName("seed-seat-inventories"),
	)
	if err != nil {
		return err
	}

	if reconcileInterval <= 0 {
		return nil
	}
	_, err = j.scheduler.NewJob(
		gocron.DurationJob(reconcileInterval),
		gocron.NewTask(j.ReconcileCapacity),
		gocron.WithName("reconcile-bus-capacity"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (j *ReservationJobs) Start() {
	j.scheduler.Start()
}

func (j *ReservationJobs) Shutdown() error {
	return j.scheduler.Shutdown()
}

func (j *ReservationJobs) SeedInventories(ctx context.Context) {
	seeded, err := j.inventory.SeedAll(ctx, j.policy)
	if err != nil {
		pkgApp.LogError(ctx, j.logger, "seat inventory seeding failed", err, nil)
		return
	}
	pkgApp.LogInfo(ctx, j.logger, "seat inventory seeding finished", map[string]interface{}{
		"seeded_buses": seeded,
	})
}

func (j *ReservationJobs) ReconcileCapacity(ctx context.Context) {
	changed, err := j.capacity.Reconcile(ctx)
	if err != nil {
		pkgApp.LogError(ctx, j.logger, "capacity reconciliation failed", err, nil)
		return
	}
	if changed > 0 {
		pkgApp.LogWarn(ctx, j.logger, "capacity counters corrected", map[string]interface{}{
			"buses": changed,
		})
	}
}
