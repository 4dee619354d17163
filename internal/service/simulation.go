package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"credit-simulator/internal/amortization"
	"credit-simulator/internal/cache"
	"credit-simulator/internal/model"
	"credit-simulator/internal/repository"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 600
)

var (
	ErrInvalidInput             = amortization.ErrInvalidInput
	ErrInvalidRateSpecification = amortization.ErrInvalidRateSpecification
	ErrNonViableCredit          = amortization.ErrNonViableCredit
	ErrSimulationNotFound       = repository.ErrSimulationNotFound
)

// Notifier delivers a simulation summary to the client.
type Notifier interface {
	SendSimulationSummary(email string, sim *model.Simulation, summary model.Summary) error
}

type SimulationService struct {
	store           repository.Store
	cache           cache.ScheduleCache
	notifier        Notifier
	validate        *validator.Validate
	defaultCapacity float64
	logger          *logrus.Logger
	now             func() time.Time
}

// NewSimulationService wires the service. notifier may be nil.
func NewSimulationService(
	store repository.Store,
	scheduleCache cache.ScheduleCache,
	notifier Notifier,
	defaultCapacity float64,
	logger *logrus.Logger,
) *SimulationService {
	if defaultCapacity <= 0 {
		defaultCapacity = model.DefaultDebtCapacityPercentage
	}
	return &SimulationService{
		store:           store,
		cache:           scheduleCache,
		notifier:        notifier,
		validate:        newValidator(),
		defaultCapacity: defaultCapacity,
		logger:          logger,
		now:             time.Now,
	}
}

// CreateSimulation validates the request, runs the amortization engine and
// stores the result. A non-viable credit returns an error wrapping
// ErrNonViableCredit and stores nothing.
func (s *SimulationService) CreateSimulation(ctx context.Context, req model.CreateSimulationRequest) (*model.SimulationResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		s.logger.WithError(err).Warn("Simulation request rejected by validation")
		return nil, validationError(err)
	}

	input, err := req.Input()
	if err != nil {
		s.logger.WithError(err).Warn("Simulation request has an invalid rate specification")
		return nil, err
	}
	if input.DebtCapacityPercentage == nil {
		capacity := s.defaultCapacity
		input.DebtCapacityPercentage = &capacity
	}

	s.logger.WithFields(logrus.Fields{
		"loan_amount":   input.LoanAmount.String(),
		"term_months":   input.TermMonths,
		"rate_kind":     input.Rate.Kind.String(),
		"rate_percent":  input.Rate.Percent,
		"debt_capacity": *input.DebtCapacityPercentage,
	}).Info("Simulating credit")

	// One UTC instant dates both the simulation and its first row.
	createdAt := s.now().UTC().Truncate(time.Second)
	sim, err := amortization.Simulate(input, createdAt)
	if err != nil {
		var nonViable *amortization.NonViableError
		if errors.As(err, &nonViable) {
			s.logger.WithFields(logrus.Fields{
				"monthly_payment": nonViable.Payment.StringFixed(2),
				"max_allowed":     nonViable.MaxAllowed.StringFixed(2),
			}).Info("Credit is not viable")
			return nil, err
		}
		s.logger.WithError(err).Warn("Simulation input rejected")
		return nil, err
	}

	sim.SimulationDate = createdAt
	if err := s.store.Create(ctx, sim); err != nil {
		s.logger.WithError(err).Error("Failed to store simulation")
		return nil, fmt.Errorf("failed to store simulation: %w", err)
	}

	summary := amortization.Summarize(sim)
	s.logger.WithFields(logrus.Fields{
		"simulation_id":   sim.ID,
		"monthly_payment": sim.MonthlyPayment.StringFixed(2),
		"total_interest":  summary.TotalInterest.StringFixed(2),
	}).Info("Simulation created")

	if req.NotifyEmail != "" && s.notifier != nil {
		go func(email string, sim *model.Simulation, summary model.Summary) {
			if err := s.notifier.SendSimulationSummary(email, sim, summary); err != nil {
				s.logger.WithError(err).Warn("Failed to send simulation summary")
			}
		}(req.NotifyEmail, sim, summary)
	}

	return &model.SimulationResponse{Simulation: sim, Summary: summary}, nil
}

// GetSimulation returns a stored simulation with its schedule and totals.
func (s *SimulationService) GetSimulation(ctx context.Context, id int64) (*model.SimulationResponse, error) {
	sim, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSimulationNotFound) {
			return nil, err
		}
		s.logger.WithError(err).Errorf("Failed to get simulation %d", id)
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}
	return &model.SimulationResponse{Simulation: sim, Summary: amortization.Summarize(sim)}, nil
}

// GetSchedulePage returns one 0-based page of a simulation schedule.
func (s *SimulationService) GetSchedulePage(ctx context.Context, simulationID int64, page, size int) (*model.SchedulePage, error) {
	if page < 0 {
		return nil, fmt.Errorf("%w: page must not be negative", ErrInvalidInput)
	}
	if size < 1 || size > MaxPageSize {
		return nil, fmt.Errorf("%w: size must be between 1 and %d", ErrInvalidInput, MaxPageSize)
	}
	if int64(page) > math.MaxInt64/int64(size) {
		return nil, fmt.Errorf("%w: page %d is out of range", ErrInvalidInput, page)
	}

	if cached, ok := s.cache.GetPage(ctx, simulationID, page, size); ok {
		s.logger.WithFields(logrus.Fields{
			"simulation_id": simulationID,
			"page":          page,
			"size":          size,
		}).Debug("Schedule page served from cache")
		return cached, nil
	}

	result, err := s.store.GetSchedulePage(ctx, simulationID, page, size)
	if err != nil {
		s.logger.WithError(err).Errorf("Failed to get schedule for simulation %d", simulationID)
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	// Unknown ids may be created later; only non-empty schedules are cached.
	if result.TotalElements > 0 {
		if err := s.cache.SetPage(ctx, result); err != nil {
			s.logger.WithError(err).Warn("Failed to cache schedule page")
		}
	}
	return result, nil
}

// PurgeExpired deletes simulations older than maxAge and drops their cached
// pages. It returns how many simulations were removed.
func (s *SimulationService) PurgeExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := s.now().Add(-maxAge)
	s.logger.WithField("cutoff", cutoff.Format(time.RFC3339)).Info("Purging expired simulations")

	ids, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to purge expired simulations")
		return 0, fmt.Errorf("failed to purge simulations: %w", err)
	}

	for _, id := range ids {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.WithError(err).Warnf("Failed to drop cached pages of simulation %d", id)
		}
	}

	s.logger.WithField("deleted", len(ids)).Info("Expired simulations purged")
	return len(ids), nil
}

// Ping checks that storage is reachable.
func (s *SimulationService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
