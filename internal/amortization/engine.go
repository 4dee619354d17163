package amortization

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"credit-simulator/internal/model"
)

var (
	// ErrNonViableCredit marks a simulation whose payment exceeds the
	// client's debt capacity. It is a business outcome, not a failure.
	ErrNonViableCredit = errors.New("credit is not viable: monthly payment exceeds debt capacity")

	ErrInvalidInput = errors.New("invalid simulation input")
)

// NonViableError carries the figures behind a declined simulation.
type NonViableError struct {
	Payment      decimal.Decimal
	MaxAllowed   decimal.Decimal
	DebtCapacity float64
}

func (e *NonViableError) Error() string {
	return fmt.Sprintf("%v (payment %s, max allowed %s at %.2f%%)",
		ErrNonViableCredit, e.Payment.StringFixed(2), e.MaxAllowed.StringFixed(2), e.DebtCapacity)
}

func (e *NonViableError) Unwrap() error {
	return ErrNonViableCredit
}

var hundred = decimal.NewFromInt(100)

// MonthlyRate re-derives the monthly rate, as a decimal fraction, from an
// annual rate in percent.
func MonthlyRate(annualPercent float64) decimal.Decimal {
	return decimal.NewFromFloat(MonthlyFromAnnual(annualPercent / 100))
}

// MonthlyPayment computes the fixed annuity installment rounded half-up to cents.
func MonthlyPayment(principal decimal.Decimal, annualPercent float64, termMonths int) decimal.Decimal {
	n := decimal.NewFromInt(int64(termMonths))
	r := MonthlyRate(annualPercent)
	if r.IsZero() {
		return principal.DivRound(n, 2)
	}

	factor := powInt(decimal.NewFromInt(1).Add(r), termMonths)
	numerator := r.Mul(factor)
	denominator := factor.Sub(decimal.NewFromInt(1))
	return principal.Mul(numerator).DivRound(denominator, 2)
}

// powInt raises base to a non-negative integer power without losing digits.
func powInt(base decimal.Decimal, exp int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		exp >>= 1
	}
	return result
}

// MaxAllowedPayment is the largest installment the income can carry.
func MaxAllowedPayment(income decimal.Decimal, debtCapacityPercent float64) decimal.Decimal {
	return income.Mul(decimal.NewFromFloat(debtCapacityPercent).Div(hundred))
}

func IsAffordable(payment, income decimal.Decimal, debtCapacityPercent float64) bool {
	return !payment.GreaterThan(MaxAllowedPayment(income, debtCapacityPercent))
}

// Schedule builds the amortization table. Row i is dated i calendar months
// after start. The last row absorbs the rounding residue so that the
// remaining balance closes at exactly zero.
func Schedule(principal, payment decimal.Decimal, annualPercent float64, termMonths int, start time.Time) []model.ScheduleEntry {
	r := MonthlyRate(annualPercent)
	balance := principal
	date := model.NewDate(start)

	entries := make([]model.ScheduleEntry, 0, termMonths)
	for i := 1; i <= termMonths; i++ {
		date = date.AddMonths(1)

		interest := balance.Mul(r).Round(2)
		principalPart := payment.Sub(interest)
		balance = balance.Sub(principalPart)

		if i == termMonths {
			principalPart = principalPart.Add(balance)
			balance = decimal.Zero
		}

		entries = append(entries, model.ScheduleEntry{
			PaymentNumber:    i,
			PaymentDate:      date,
			InterestAmount:   interest,
			PrincipalAmount:  principalPart,
			RemainingBalance: balance,
		})
	}
	return entries
}

// Simulate runs the whole calculation for one input: rate normalization,
// payment, affordability and schedule. The returned simulation has no id or
// simulation date yet; the repository assigns both on create.
func Simulate(in model.SimulationInput, start time.Time) (*model.Simulation, error) {
	if !in.LoanAmount.IsPositive() || !in.ClientIncome.IsPositive() || in.TermMonths <= 0 {
		return nil, fmt.Errorf("%w: loan amount, client income and term must be positive", ErrInvalidInput)
	}
	capacity := in.DebtCapacity()
	if capacity <= 0 || capacity > 100 {
		return nil, fmt.Errorf("%w: debt capacity must be in (0, 100], got %v", ErrInvalidInput, capacity)
	}

	annual, monthly, err := Normalize(in.Rate)
	if err != nil {
		return nil, err
	}

	payment := MonthlyPayment(in.LoanAmount, annual, in.TermMonths)
	if !IsAffordable(payment, in.ClientIncome, capacity) {
		return nil, &NonViableError{
			Payment:      payment,
			MaxAllowed:   MaxAllowedPayment(in.ClientIncome, capacity),
			DebtCapacity: capacity,
		}
	}

	return &model.Simulation{
		ClientIncome:           in.ClientIncome,
		LoanAmount:             in.LoanAmount,
		TermMonths:             in.TermMonths,
		MonthlyPayment:         payment,
		AnnualInterestRate:     annual,
		MonthlyInterestRate:    monthly,
		DebtCapacityPercentage: capacity,
		Schedule:               Schedule(in.LoanAmount, payment, annual, in.TermMonths, start),
	}, nil
}

// Summarize totals a simulation's schedule.
func Summarize(sim *model.Simulation) model.Summary {
	summary := model.Summary{
		TotalInterest:  decimal.Zero,
		TotalPrincipal: decimal.Zero,
	}
	for _, e := range sim.Schedule {
		summary.TotalInterest = summary.TotalInterest.Add(e.InterestAmount)
		summary.TotalPrincipal = summary.TotalPrincipal.Add(e.PrincipalAmount)
	}
	summary.TotalPayment = summary.TotalInterest.Add(summary.TotalPrincipal)

	if sim.ClientIncome.IsPositive() {
		ratio, _ := sim.MonthlyPayment.Div(sim.ClientIncome).Mul(hundred).Round(2).Float64()
		summary.PaymentToIncomeRatio = ratio
	}
	return summary
}
