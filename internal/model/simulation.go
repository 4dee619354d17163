package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDebtCapacityPercentage is applied when the client does not send one.
const DefaultDebtCapacityPercentage = 30.0

// MaxTermMonths bounds the schedule length accepted at every entry point.
// It matches the lte tag on CreateSimulationRequest.TermMonths.
const MaxTermMonths = 600

// RateKind tells which form of interest rate the client supplied.
type RateKind int

const (
	RateAnnual RateKind = iota + 1
	RateMonthly
)

func (k RateKind) String() string {
	switch k {
	case RateAnnual:
		return "annual"
	case RateMonthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// InterestRate is either an annual or a monthly effective rate, in percent.
// The zero value carries no rate at all.
type InterestRate struct {
	Kind    RateKind
	Percent float64
}

func AnnualRate(percent float64) InterestRate {
	return InterestRate{Kind: RateAnnual, Percent: percent}
}

func MonthlyRate(percent float64) InterestRate {
	return InterestRate{Kind: RateMonthly, Percent: percent}
}

// SimulationInput is what the engine needs to simulate a credit
type SimulationInput struct {
	ClientIncome           decimal.Decimal
	LoanAmount             decimal.Decimal
	TermMonths             int
	Rate                   InterestRate
	DebtCapacityPercentage *float64
}

// DebtCapacity returns the debt capacity ratio to apply, in percent.
func (in SimulationInput) DebtCapacity() float64 {
	if in.DebtCapacityPercentage == nil {
		return DefaultDebtCapacityPercentage
	}
	return *in.DebtCapacityPercentage
}

// Simulation is the persisted result of a viable simulation. It owns its schedule.
type Simulation struct {
	ID                     int64           `json:"id" db:"id"`
	ClientIncome           decimal.Decimal `json:"clientIncome" db:"client_income"`
	LoanAmount             decimal.Decimal `json:"loanAmount" db:"loan_amount"`
	TermMonths             int             `json:"termMonths" db:"term_months"`
	MonthlyPayment         decimal.Decimal `json:"monthlyPayment" db:"monthly_payment"`
	AnnualInterestRate     float64         `json:"annualInterestRate" db:"annual_interest_rate"`
	MonthlyInterestRate    float64         `json:"monthlyInterestRate" db:"monthly_interest_rate"`
	DebtCapacityPercentage float64         `json:"debtCapacityPercentage" db:"debt_capacity_percentage"`
	SimulationDate         time.Time       `json:"simulationDate" db:"simulation_date"`
	Schedule               []ScheduleEntry `json:"schedule,omitempty"`
}

// ScheduleEntry is one installment of the amortization table.
// SimulationID points back to the owning simulation and is never serialized.
type ScheduleEntry struct {
	SimulationID     int64           `json:"-" db:"simulation_id"`
	PaymentNumber    int             `json:"paymentNumber" db:"payment_number"`
	PaymentDate      Date            `json:"paymentDate" db:"payment_date"`
	InterestAmount   decimal.Decimal `json:"interestAmount" db:"interest_amount"`
	PrincipalAmount  decimal.Decimal `json:"principalAmount" db:"principal_amount"`
	RemainingBalance decimal.Decimal `json:"remainingBalance" db:"remaining_balance"`
}

// SchedulePage is one page of a simulation schedule ordered by payment number.
type SchedulePage struct {
	SimulationID  int64           `json:"simulationId"`
	Content       []ScheduleEntry `json:"content"`
	Page          int             `json:"page"`
	Size          int             `json:"size"`
	TotalElements int64           `json:"totalElements"`
	TotalPages    int             `json:"totalPages"`
}

// NewSchedulePage fills in the page metadata from the total row count.
func NewSchedulePage(simulationID int64, content []ScheduleEntry, page, size int, total int64) *SchedulePage {
	if content == nil {
		content = []ScheduleEntry{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &SchedulePage{
		SimulationID:  simulationID,
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// Summary - aggregated view of a schedule
type Summary struct {
	TotalPayment         decimal.Decimal `json:"totalPayment"`
	TotalInterest        decimal.Decimal `json:"totalInterest"`
	TotalPrincipal       decimal.Decimal `json:"totalPrincipal"`
	PaymentToIncomeRatio float64         `json:"paymentToIncomeRatio"`
}
