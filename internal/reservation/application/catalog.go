package application

import (
	"context"
	"errors"
	"strings"

	"github.com/mateusmacedo/bus-reservation/internal/reservation/domain"
	pkgApp "github.com/mateusmacedo/bus-reservation/pkg/application"
	pkgDomain "github.com/mateusmacedo/bus-reservation/pkg/domain"
)

// BusCatalog cadastra ônibus e semeia seu inventário de assentos.
type BusCatalog struct {
	uow         domain.UnitOfWork
	inventory   *SeatInventory
	policy      SeatPolicy
	idGenerator pkgDomain.IDGenerator[string]
	logger      pkgApp.AppLogger
}

func NewBusCatalog(
	uow domain.UnitOfWork,
	inventory *SeatInventory,
	policy SeatPolicy,
	idGenerator pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
) *BusCatalog {
	return &BusCatalog{uow: uow, inventory: inventory, policy: policy, idGenerator: idGenerator, logger: logger}
}

func validateBus(name, route string, totalSeats int, price float64) error {
	switch {
	case strings.TrimSpace(name) == "":
		return domain.Invalid("name", "is required")
	case strings.TrimSpace(route) == "":
		return domain.Invalid("route", "is required")
	case totalSeats < 0:
		return domain.Invalid("totalSeats", "cannot be negative")
	case price < 0:
		return domain.Invalid("price", "cannot be negative")
	}
	return nil
}

func (c *BusCatalog) Add(ctx context.Context, data AddBusData) (domain.Bus, error) {
	if err := validateBus(data.Name, data.Route, data.TotalSeats, data.Price); err != nil {
		return domain.Bus{}, err
	}

	bus := domain.Bus{
		ID:            data.BusID,
		Name:          data.Name,
		Route:         data.Route,
		DepartureDate: domain.NormalizeDepartureDate(data.DepartureDate),
		DepartureTime: data.DepartureTime,
		ArrivalTime:   data.ArrivalTime,
		TotalSeats:    data.TotalSeats,
		Price:         data.Price,
	}
	if bus.ID == "" {
		bus.ID = c.idGenerator()
	}
	bus.AvailableSeats = bus.TotalSeats
	if data.AvailableSeats != nil {
		bus.AvailableSeats = bus.ClampAvailable(*data.AvailableSeats)
	}

	if err := c.uow.Buses().Save(ctx, &bus); err != nil {
		return domain.Bus{}, domain.Internal("save bus", err)
	}

	if _, err := c.inventory.SeedIfEmpty(ctx, bus, c.policy); err != nil {
		pkgApp.LogError(ctx, c.logger, "failed to seed seats for new bus", err, map[string]interface{}{
			"bus_id": bus.ID,
		})
		return bus, nil
	}
	return c.Find(ctx, bus.ID)
}

// Update regrava os dados do ônibus e informa se o inventário foi refeito.
// Com assentos cadastrados o contador de disponíveis vem deles e mudar a
// capacidade refaz o inventário pela política, o que só é aceito enquanto
// nenhum assento estiver reservado.
func (c *BusCatalog) Update(ctx context.Context, data UpdateBusData) (domain.Bus, bool, error) {
	if err := validateBus(data.Name, data.Route, data.TotalSeats, data.Price); err != nil {
		return domain.Bus{}, false, err
	}

	var (
		bus      domain.Bus
		reseeded bool
	)
	err := c.uow.WithinTransaction(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := tx.Buses().FindByID(ctx, data.BusID)
		if err != nil {
			return err
		}
		seats, err := tx.Seats().CountByBus(ctx, current.ID)
		if err != nil {
			return domain.Internal("count seats", err)
		}
		resize := seats > 0 && data.TotalSeats != current.TotalSeats
		if resize {
			available, err := tx.Seats().CountAvailable(ctx, current.ID)
			if err != nil {
				return domain.Internal("count available seats", err)
			}
			if available < seats {
				return domain.Conflict("bus", domain.ErrBusHasBookedSeats,
					"bus %s has booked seats, its capacity cannot change", current.ID)
			}
		}

		updated := current
		updated.Name = data.Name
		updated.Route = data.Route
		updated.DepartureDate = domain.NormalizeDepartureDate(data.DepartureDate)
		updated.DepartureTime = data.DepartureTime
		updated.ArrivalTime = data.ArrivalTime
		updated.TotalSeats = data.TotalSeats
		updated.Price = data.Price
		updated.AvailableSeats = updated.TotalSeats
		if data.AvailableSeats != nil {
			updated.AvailableSeats = updated.ClampAvailable(*data.AvailableSeats)
		}
		if err := tx.Buses().Update(ctx, &updated); err != nil {
			return err
		}

		switch {
		case resize:
			if _, err := c.inventory.replace(ctx, tx, updated, c.policy.Split(updated.TotalSeats)); err != nil {
				return err
			}
			reseeded = true
		case seats > 0:
			if _, err := c.inventory.capacity.Recompute(ctx, tx, updated.ID); err != nil {
				return err
			}
		}

		bus, err = tx.Buses().FindByID(ctx, updated.ID)
		return err
	})
	if err != nil {
		return domain.Bus{}, false, err
	}

	pkgApp.LogInfo(ctx, c.logger, "bus updated", map[string]interface{}{
		"bus_id":   bus.ID,
		"reseeded": reseeded,
	})
	return bus, reseeded, nil
}

// Delete remove o ônibus com seus assentos e reservas.
func (c *BusCatalog) Delete(ctx context.Context, busID string) error {
	err := c.uow.WithinTransaction(ctx, func(ctx context.Context, tx domain.Store) error {
		if _, err := tx.Buses().FindByID(ctx, busID); err != nil {
			return err
		}
		if err := tx.Seats().DeleteByBus(ctx, busID); err != nil {
			return domain.Internal("delete seats", err)
		}
		return tx.Buses().Delete(ctx, busID)
	})
	if err != nil {
		return err
	}

	pkgApp.LogInfo(ctx, c.logger, "bus deleted", map[string]interface{}{"bus_id": busID})
	return nil
}

func (c *BusCatalog) Find(ctx context.Context, busID string) (domain.Bus, error) {
	return c.uow.Buses().FindByID(ctx, busID)
}

func (c *BusCatalog) Search(ctx context.Context, name, route string) ([]domain.Bus, error) {
	var (
		buses []domain.Bus
		err   error
	)
	if name == "" && route == "" {
		buses, err = c.uow.Buses().FindAll(ctx)
	} else {
		buses, err = c.uow.Buses().Search(ctx, name, route)
	}
	if err != nil {
		return nil, domain.Internal("search buses", err)
	}
	return buses, nil
}

// UserDirectory guarda as contas de passageiros.
type UserDirectory struct {
	uow         domain.UnitOfWork
	idGenerator pkgDomain.IDGenerator[string]
}

func NewUserDirectory(uow domain.UnitOfWork, idGenerator pkgDomain.IDGenerator[string]) *UserDirectory {
	return &UserDirectory{uow: uow, idGenerator: idGenerator}
}

func (d *UserDirectory) Register(ctx context.Context, data RegisterUserData) (domain.User, error) {
	switch {
	case strings.TrimSpace(data.Name) == "":
		return domain.User{}, domain.Invalid("name", "is required")
	case strings.TrimSpace(data.Email) == "":
		return domain.User{}, domain.Invalid("email", "is required")
	case data.Age < 0:
		return domain.User{}, domain.Invalid("age", "cannot be negative")
	}

	user := domain.User{
		ID:         data.UserID,
		Name:       data.Name,
		Email:      strings.ToLower(strings.TrimSpace(data.Email)),
		Age:        data.Age,
		Gender:     data.Gender,
		Role:       data.Role,
		Password:   data.Password,
		IsPregnant: data.IsPregnant,
	}
	if user.ID == "" {
		user.ID = d.idGenerator()
	}
	if user.Role == "" {
		user.Role = "user"
	}

	err := d.uow.WithinTransaction(ctx, func(ctx context.Context, tx domain.Store) error {
		_, err := tx.Users().FindByEmail(ctx, user.Email)
		switch {
		case err == nil:
			return domain.Conflict("user", nil, "email %s is already registered", user.Email)
		case !errors.Is(err, domain.ErrUserNotFound):
			return err
		}
		if err := tx.Users().Save(ctx, &user); err != nil {
			return domain.Internal("save user", err)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (d *UserDirectory) Find(ctx context.Context, userID string) (domain.User, error) {
	return d.uow.Users().FindByID(ctx, userID)
}

// FindByEmail compara o e-mail sem diferenciar maiúsculas.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return d.uow.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (d *UserDirectory) List(ctx context.Context) ([]domain.User, error) {
	users, err := d.uow.Users().FindAll(ctx)
	if err != nil {
		return nil, domain.Internal("list users", err)
	}
	return users, nil
}

func (d *UserDirectory) Priority(ctx context.Context, userID string) (domain.PriorityInfo, error) {
	user, err := d.Find(ctx, userID)
	if err != nil {
		return domain.PriorityInfo{}, err
	}
	return user.Priority(), nil
}
