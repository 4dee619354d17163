package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"credit-simulator/internal/model"
)

var ErrSimulationNotFound = errors.New("simulation not found")

// Store persists simulations together with their schedules.
type Store interface {
	Create(ctx context.Context, sim *model.Simulation) error
	GetByID(ctx context.Context, id int64) (*model.Simulation, error)
	GetSchedulePage(ctx context.Context, simulationID int64, page, size int) (*model.SchedulePage, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]int64, error)
	Ping(ctx context.Context) error
}

type SimulationRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *logrus.Logger
	now     func() time.Time
}

func NewSimulationRepository(db *sql.DB, dialect Dialect, logger *logrus.Logger) *SimulationRepository {
	return &SimulationRepository{db: db, dialect: dialect, logger: logger, now: time.Now}
}

func (r *SimulationRepository) q(query string) string {
	return rebind(r.dialect, query)
}

// EnsureSchema creates the tables when they do not exist yet.
func (r *SimulationRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema[r.dialect] {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	r.logger.WithField("driver", r.dialect).Info("Database schema is up to date")
	return nil
}

func (r *SimulationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create stores the simulation and every schedule row in one transaction.
// It assigns the id, and the simulation date when the caller left it unset.
func (r *SimulationRepository) Create(ctx context.Context, sim *model.Simulation) error {
	createdAt := sim.SimulationDate.UTC().Truncate(time.Second)
	if sim.SimulationDate.IsZero() {
		createdAt = r.now().UTC().Truncate(time.Second)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO simulations (client_income, loan_amount, term_months, monthly_payment,
                                 annual_interest_rate, monthly_interest_rate,
                                 debt_capacity_percentage, simulation_date)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `

	var id int64
	err = tx.QueryRowContext(
		ctx,
		r.q(query),
		sim.ClientIncome,
		sim.LoanAmount,
		sim.TermMonths,
		sim.MonthlyPayment,
		sim.AnnualInterestRate,
		sim.MonthlyInterestRate,
		sim.DebtCapacityPercentage,
		createdAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create simulation: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.q(`
        INSERT INTO amortization_schedule (simulation_id, payment_number, payment_date,
                                           principal_amount, interest_amount, remaining_balance)
        VALUES (?, ?, ?, ?, ?, ?)
    `))
	if err != nil {
		return fmt.Errorf("failed to prepare schedule insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range sim.Schedule {
		_, err := stmt.ExecContext(
			ctx,
			id,
			entry.PaymentNumber,
			entry.PaymentDate,
			entry.PrincipalAmount,
			entry.InterestAmount,
			entry.RemainingBalance,
		)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("duplicate payment number %d in schedule", entry.PaymentNumber)
			}
			return fmt.Errorf("failed to create schedule entry %d: %w", entry.PaymentNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit simulation: %w", err)
	}

	sim.ID = id
	sim.SimulationDate = createdAt
	for i := range sim.Schedule {
		sim.Schedule[i].SimulationID = id
	}

	r.logger.WithFields(logrus.Fields{
		"simulation_id": id,
		"entries":       len(sim.Schedule),
	}).Debug("Simulation stored")
	return nil
}

// GetByID loads a simulation with its full schedule.
func (r *SimulationRepository) GetByID(ctx context.Context, id int64) (*model.Simulation, error) {
	query := `
        SELECT id, client_income, loan_amount, term_months, monthly_payment,
               annual_interest_rate, monthly_interest_rate, debt_capacity_percentage, simulation_date
        FROM simulations
        WHERE id = ?
    `

	var (
		sim       model.Simulation
		createdAt timestamp
	)
	err := r.db.QueryRowContext(ctx, r.q(query), id).Scan(
		&sim.ID,
		&sim.ClientIncome,
		&sim.LoanAmount,
		&sim.TermMonths,
		&sim.MonthlyPayment,
		&sim.AnnualInterestRate,
		&sim.MonthlyInterestRate,
		&sim.DebtCapacityPercentage,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSimulationNotFound
		}
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}
	sim.SimulationDate = createdAt.Time

	schedule, err := r.querySchedule(ctx, `
        SELECT simulation_id, payment_number, payment_date, principal_amount,
               interest_amount, remaining_balance
        FROM amortization_schedule
        WHERE simulation_id = ?
        ORDER BY payment_number
    `, id)
	if err != nil {
		return nil, err
	}
	sim.Schedule = schedule

	return &sim, nil
}

// GetSchedulePage returns one 0-based page of a schedule ordered by payment
// number. An unknown simulation yields an empty page.
func (r *SimulationRepository) GetSchedulePage(ctx context.Context, simulationID int64, page, size int) (*model.SchedulePage, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		r.q(`SELECT COUNT(*) FROM amortization_schedule WHERE simulation_id = ?`),
		simulationID,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count schedule entries: %w", err)
	}

	var content []model.ScheduleEntry
	if size > 0 && page >= 0 && int64(page) < (total+int64(size)-1)/int64(size) {
		offset := int64(page) * int64(size)
		content, err = r.querySchedule(ctx, `
            SELECT simulation_id, payment_number, payment_date, principal_amount,
                   interest_amount, remaining_balance
            FROM amortization_schedule
            WHERE simulation_id = ?
            ORDER BY payment_number
            LIMIT ? OFFSET ?
        `, simulationID, size, offset)
		if err != nil {
			return nil, err
		}
	}

	return model.NewSchedulePage(simulationID, content, page, size, total), nil
}

func (r *SimulationRepository) querySchedule(ctx context.Context, query string, args ...interface{}) ([]model.ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	var entries []model.ScheduleEntry
	for rows.Next() {
		var entry model.ScheduleEntry
		if err := rows.Scan(
			&entry.SimulationID,
			&entry.PaymentNumber,
			&entry.PaymentDate,
			&entry.PrincipalAmount,
			&entry.InterestAmount,
			&entry.RemainingBalance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}

	return entries, nil
}

// DeleteOlderThan removes simulations created before cutoff together with
// their schedules and returns the removed ids.
func (r *SimulationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]int64, error) {
	cutoff = cutoff.UTC().Truncate(time.Second)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, r.q(`SELECT id FROM simulations WHERE simulation_date < ?`), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired simulations: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan simulation id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expired simulations: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, r.q(`
        DELETE FROM amortization_schedule
        WHERE simulation_id IN (SELECT id FROM simulations WHERE simulation_date < ?)
    `), cutoff); err != nil {
		return nil, fmt.Errorf("failed to delete expired schedules: %w", err)
	}

	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM simulations WHERE simulation_date < ?`), cutoff); err != nil {
		return nil, fmt.Errorf("failed to delete expired simulations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purge: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"cutoff":  cutoff,
		"deleted": len(ids),
	}).Info("Expired simulations deleted")
	return ids, nil
}

// timestamp scans TIMESTAMP columns from either driver.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as timestamp", s)
}
