package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Dialect selects SQL flavour and driver
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(s)) {
	case DialectPostgres, "":
		return DialectPostgres, nil
	case DialectSQLite:
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

// Open connects to the database and checks the connection.
func Open(ctx context.Context, dialect Dialect, dsn string, logger *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// sqlite allows a single writer; ":memory:" databases also live
		// inside one connection.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	logger.WithField("driver", dialect).Info("Database connection established")
	return db, nil
}

// PostgresDSN builds a lib/pq connection string.
func PostgresDSN(host, port, user, password, name string) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, name,
	)
}

// rebind rewrites '?' placeholders into '$1, $2, ...' for postgres.
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

var schema = map[Dialect][]string{
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS simulations (
            id                       SERIAL PRIMARY KEY,
            client_income            NUMERIC NOT NULL,
            loan_amount              NUMERIC NOT NULL,
            term_months              INTEGER NOT NULL,
            monthly_payment          NUMERIC NOT NULL,
            annual_interest_rate     DOUBLE PRECISION NOT NULL,
            monthly_interest_rate    DOUBLE PRECISION NOT NULL,
            debt_capacity_percentage DOUBLE PRECISION NOT NULL,
            simulation_date          TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS amortization_schedule (
            id                SERIAL PRIMARY KEY,
            simulation_id     INTEGER NOT NULL REFERENCES simulations(id) ON DELETE CASCADE,
            payment_number    INTEGER NOT NULL,
            payment_date      DATE NOT NULL,
            principal_amount  NUMERIC NOT NULL,
            interest_amount   NUMERIC NOT NULL,
            remaining_balance NUMERIC NOT NULL,
            UNIQUE (simulation_id, payment_number)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_simulations_date ON simulations (simulation_date)`,
	},
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS simulations (
            id                       INTEGER PRIMARY KEY AUTOINCREMENT,
            client_income            TEXT NOT NULL,
            loan_amount              TEXT NOT NULL,
            term_months              INTEGER NOT NULL,
            monthly_payment          TEXT NOT NULL,
            annual_interest_rate     REAL NOT NULL,
            monthly_interest_rate    REAL NOT NULL,
            debt_capacity_percentage REAL NOT NULL,
            simulation_date          TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS amortization_schedule (
            id                INTEGER PRIMARY KEY AUTOINCREMENT,
            simulation_id     INTEGER NOT NULL REFERENCES simulations(id) ON DELETE CASCADE,
            payment_number    INTEGER NOT NULL,
            payment_date      DATE NOT NULL,
            principal_amount  TEXT NOT NULL,
            interest_amount   TEXT NOT NULL,
            remaining_balance TEXT NOT NULL,
            UNIQUE (simulation_id, payment_number)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_simulations_date ON simulations (simulation_date)`,
	},
}
