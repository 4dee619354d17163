// Package amortization computes fixed-installment (French system) loan
// schedules. Everything in it is pure and safe for concurrent use.
package amortization

import (
	"fmt"
	"math"

	"credit-simulator/internal/model"
)

// ErrInvalidRateSpecification is returned when not exactly one valid
// interest rate was supplied.
var ErrInvalidRateSpecification = model.ErrInvalidRateSpecification

// MonthlyFromAnnual converts an annual effective rate into the equivalent
// monthly rate. Both are fractions (0.12 for 12%).
func MonthlyFromAnnual(annual float64) float64 {
	return math.Pow(1+annual, 1.0/12.0) - 1
}

// AnnualFromMonthly is the inverse of MonthlyFromAnnual.
func AnnualFromMonthly(monthly float64) float64 {
	return math.Pow(1+monthly, 12) - 1
}

// Normalize returns the annual and monthly rates, in percent, for whichever
// form of rate was supplied.
func Normalize(rate model.InterestRate) (annualPercent, monthlyPercent float64, err error) {
	if rate.Kind != model.RateAnnual && rate.Kind != model.RateMonthly {
		return 0, 0, ErrInvalidRateSpecification
	}
	if math.IsNaN(rate.Percent) || math.IsInf(rate.Percent, 0) || rate.Percent < 0 {
		return 0, 0, fmt.Errorf("%w: %s rate must be a non-negative number, got %v",
			ErrInvalidRateSpecification, rate.Kind, rate.Percent)
	}

	if rate.Kind == model.RateAnnual {
		annualPercent = rate.Percent
		monthlyPercent = MonthlyFromAnnual(annualPercent/100) * 100
		return annualPercent, monthlyPercent, nil
	}

	monthlyPercent = rate.Percent
	annualPercent = AnnualFromMonthly(monthlyPercent/100) * 100
	return annualPercent, monthlyPercent, nil
}
