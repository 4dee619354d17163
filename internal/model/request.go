package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidRateSpecification is returned when the request carries both interest
// rates or neither of them.
var ErrInvalidRateSpecification = errors.New("exactly one of 'annualInterestRate' or 'monthlyInterestRate' must be provided")

func init() {
	// Amounts go out as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type CreateSimulationRequest struct {
	ClientIncome           decimal.Decimal `json:"clientIncome" validate:"required,gt=0"`
	LoanAmount             decimal.Decimal `json:"loanAmount" validate:"required,gt=0"`
	TermMonths             int             `json:"termMonths" validate:"required,gt=0,lte=600"`
	AnnualInterestRate     *float64        `json:"annualInterestRate" validate:"omitempty,gte=0,lte=1000"`
	MonthlyInterestRate    *float64        `json:"monthlyInterestRate" validate:"omitempty,gte=0,lte=100"`
	DebtCapacityPercentage *float64        `json:"debtCapacityPercentage" validate:"omitempty,gt=0,lte=100"`
	NotifyEmail            string          `json:"notifyEmail,omitempty" validate:"omitempty,email"`
}

// RateFromFields turns the two optional rate fields into a single rate.
func RateFromFields(annual, monthly *float64) (InterestRate, error) {
	switch {
	case annual != nil && monthly == nil:
		return AnnualRate(*annual), nil
	case monthly != nil && annual == nil:
		return MonthlyRate(*monthly), nil
	default:
		return InterestRate{}, ErrInvalidRateSpecification
	}
}

// Input converts the request into engine input.
func (r CreateSimulationRequest) Input() (SimulationInput, error) {
	rate, err := RateFromFields(r.AnnualInterestRate, r.MonthlyInterestRate)
	if err != nil {
		return SimulationInput{}, err
	}
	return SimulationInput{
		ClientIncome:           r.ClientIncome,
		LoanAmount:             r.LoanAmount,
		TermMonths:             r.TermMonths,
		Rate:                   rate,
		DebtCapacityPercentage: r.DebtCapacityPercentage,
	}, nil
}

// SimulationResponse is returned for a created or fetched simulation
type SimulationResponse struct {
	*Simulation
	Summary Summary `json:"summary"`
}

// NonViableResponse explains why a simulation was declined
type NonViableResponse struct {
	Viable            bool            `json:"viable"`
	Message           string          `json:"message"`
	MonthlyPayment    decimal.Decimal `json:"monthlyPayment"`
	MaxAllowedPayment decimal.Decimal `json:"maxAllowedPayment"`
	DebtCapacity      float64         `json:"debtCapacityPercentage"`
}

// ReferenceRate - current key rate plus the lender margin
type ReferenceRate struct {
	Source              string  `json:"source"`
	KeyRate             float64 `json:"keyRate"`
	Margin              float64 `json:"margin"`
	SuggestedAnnualRate float64 `json:"suggestedAnnualRate"`
}
