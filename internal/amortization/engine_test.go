package amortization

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"credit-simulator/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var start = time.Date(2026, time.March, 10, 15, 4, 5, 0, time.UTC)

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		annual    float64
		term      int
		expected  string
	}{
		{"twelve percent one year", "10000.00", 12, 12, "885.62"},
		{"zero rate even split", "1200", 0, 12, "100.00"},
		{"zero rate rounds half up", "1000", 0, 3, "333.33"},
		{"monthly one percent", "5000", 12.682503013196978, 6, "862.74"},
		{"thirty year mortgage", "250000", 9.5, 360, "2031.35"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyPayment(d(tt.principal), tt.annual, tt.term)
			if !got.Equal(d(tt.expected)) {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestSchedule_TwelveMonths(t *testing.T) {
	payment := d("885.62")
	rows := Schedule(d("10000.00"), payment, 12, 12, start)

	if len(rows) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(rows))
	}

	first := rows[0]
	if !first.InterestAmount.Equal(d("94.89")) || !first.PrincipalAmount.Equal(d("790.73")) {
		t.Errorf("unexpected first row: interest %s principal %s", first.InterestAmount, first.PrincipalAmount)
	}
	if !first.RemainingBalance.Equal(d("9209.27")) {
		t.Errorf("expected balance 9209.27 after first row, got %s", first.RemainingBalance)
	}

	last := rows[11]
	if !last.RemainingBalance.IsZero() {
		t.Errorf("expected final balance 0, got %s", last.RemainingBalance)
	}
	if !last.InterestAmount.Equal(d("8.32")) || !last.PrincipalAmount.Equal(d("877.30")) {
		t.Errorf("unexpected last row: interest %s principal %s", last.InterestAmount, last.PrincipalAmount)
	}

	assertScheduleInvariants(t, rows, d("10000.00"), payment)
}

func TestSchedule_LongTermClosesAtZero(t *testing.T) {
	principal := d("250000")
	payment := MonthlyPayment(principal, 9.5, 360)
	rows := Schedule(principal, payment, 9.5, 360, start)

	if len(rows) != 360 {
		t.Fatalf("expected 360 rows, got %d", len(rows))
	}
	assertScheduleInvariants(t, rows, principal, payment)
}

func TestSchedule_ZeroRate(t *testing.T) {
	principal := d("1000")
	payment := MonthlyPayment(principal, 0, 3)
	rows := Schedule(principal, payment, 0, 3, start)

	expected := []string{"333.33", "333.33", "333.34"}
	for i, row := range rows {
		if !row.InterestAmount.IsZero() {
			t.Errorf("row %d: expected zero interest, got %s", row.PaymentNumber, row.InterestAmount)
		}
		if !row.PrincipalAmount.Equal(d(expected[i])) {
			t.Errorf("row %d: expected principal %s, got %s", row.PaymentNumber, expected[i], row.PrincipalAmount)
		}
	}
	assertScheduleInvariants(t, rows, principal, payment)
}

func TestSchedule_Dates(t *testing.T) {
	rows := Schedule(d("600"), d("100"), 0, 6, start)

	want := model.NewDate(start)
	for _, row := range rows {
		want = want.AddMonths(1)
		if !row.PaymentDate.Equal(want.Time) {
			t.Errorf("row %d: expected %s, got %s", row.PaymentNumber, want, row.PaymentDate)
		}
	}
	if rows[0].PaymentDate.String() != "2026-04-10" {
		t.Errorf("expected first payment on 2026-04-10, got %s", rows[0].PaymentDate)
	}
}

func TestSchedule_MonthEndClamps(t *testing.T) {
	endOfJanuary := time.Date(2026, time.January, 31, 9, 0, 0, 0, time.UTC)
	rows := Schedule(d("300"), d("100"), 0, 3, endOfJanuary)

	expected := []string{"2026-02-28", "2026-03-28", "2026-04-28"}
	for i, row := range rows {
		if row.PaymentDate.String() != expected[i] {
			t.Errorf("row %d: expected %s, got %s", row.PaymentNumber, expected[i], row.PaymentDate)
		}
	}
}

func TestSimulate_Viable(t *testing.T) {
	in := model.SimulationInput{
		ClientIncome: d("5000.00"),
		LoanAmount:   d("10000.00"),
		TermMonths:   12,
		Rate:         model.AnnualRate(12),
	}

	sim, err := Simulate(in, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim.DebtCapacityPercentage != model.DefaultDebtCapacityPercentage {
		t.Errorf("expected default capacity, got %v", sim.DebtCapacityPercentage)
	}
	if !sim.MonthlyPayment.Equal(d("885.62")) {
		t.Errorf("expected payment 885.62, got %s", sim.MonthlyPayment)
	}
	if sim.AnnualInterestRate != 12 || sim.MonthlyInterestRate <= 0.948 || sim.MonthlyInterestRate >= 0.949 {
		t.Errorf("unexpected rates: annual %v monthly %v", sim.AnnualInterestRate, sim.MonthlyInterestRate)
	}
	if len(sim.Schedule) != 12 || !sim.Schedule[11].RemainingBalance.IsZero() {
		t.Errorf("expected 12 rows closing at zero")
	}
	if sim.ID != 0 || !sim.SimulationDate.IsZero() {
		t.Errorf("engine must not assign id or simulation date")
	}
}

func TestSimulate_NonViable(t *testing.T) {
	in := model.SimulationInput{
		ClientIncome: d("2000.00"),
		LoanAmount:   d("10000.00"),
		TermMonths:   12,
		Rate:         model.AnnualRate(12),
	}

	sim, err := Simulate(in, start)
	if sim != nil {
		t.Errorf("expected no simulation")
	}
	if !errors.Is(err, ErrNonViableCredit) {
		t.Fatalf("expected ErrNonViableCredit, got %v", err)
	}

	var nonViable *NonViableError
	if !errors.As(err, &nonViable) {
		t.Fatalf("expected *NonViableError, got %T", err)
	}
	if !nonViable.MaxAllowed.Equal(d("600")) {
		t.Errorf("expected max allowed 600, got %s", nonViable.MaxAllowed)
	}
	if !nonViable.Payment.Equal(d("885.62")) {
		t.Errorf("expected payment 885.62, got %s", nonViable.Payment)
	}
}

func TestSimulate_CustomCapacity(t *testing.T) {
	capacity := 50.0
	in := model.SimulationInput{
		ClientIncome:           d("2000.00"),
		LoanAmount:             d("10000.00"),
		TermMonths:             12,
		Rate:                   model.AnnualRate(12),
		DebtCapacityPercentage: &capacity,
	}

	sim, err := Simulate(in, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim.DebtCapacityPercentage != 50 {
		t.Errorf("expected applied capacity 50, got %v", sim.DebtCapacityPercentage)
	}
}

func TestSimulate_PaymentEqualToLimitIsViable(t *testing.T) {
	in := model.SimulationInput{
		ClientIncome: d("1000"),
		LoanAmount:   d("3600"),
		TermMonths:   12,
		Rate:         model.AnnualRate(0),
	}

	if _, err := Simulate(in, start); err != nil {
		t.Fatalf("payment 300 against max 300 must be viable, got %v", err)
	}
}

func TestSimulate_InvalidInput(t *testing.T) {
	badCapacity := 0.0
	tests := []struct {
		name string
		in   model.SimulationInput
		want error
	}{
		{"zero income", model.SimulationInput{ClientIncome: d("0"), LoanAmount: d("100"), TermMonths: 1, Rate: model.AnnualRate(1)}, ErrInvalidInput},
		{"negative amount", model.SimulationInput{ClientIncome: d("100"), LoanAmount: d("-1"), TermMonths: 1, Rate: model.AnnualRate(1)}, ErrInvalidInput},
		{"zero term", model.SimulationInput{ClientIncome: d("100"), LoanAmount: d("100"), TermMonths: 0, Rate: model.AnnualRate(1)}, ErrInvalidInput},
		{"zero capacity", model.SimulationInput{ClientIncome: d("100"), LoanAmount: d("100"), TermMonths: 1, Rate: model.AnnualRate(1), DebtCapacityPercentage: &badCapacity}, ErrInvalidInput},
		{"missing rate", model.SimulationInput{ClientIncome: d("100"), LoanAmount: d("100"), TermMonths: 1}, ErrInvalidRateSpecification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(tt.in, start)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	sim, err := Simulate(model.SimulationInput{
		ClientIncome: d("5000.00"),
		LoanAmount:   d("10000.00"),
		TermMonths:   12,
		Rate:         model.AnnualRate(12),
	}, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary := Summarize(sim)
	if !summary.TotalPrincipal.Equal(d("10000.00")) {
		t.Errorf("expected total principal 10000, got %s", summary.TotalPrincipal)
	}
	if !summary.TotalPayment.Equal(d("10627.44")) {
		t.Errorf("expected total payment 10627.44, got %s", summary.TotalPayment)
	}
	if !summary.TotalInterest.Equal(d("627.44")) {
		t.Errorf("expected total interest 627.44, got %s", summary.TotalInterest)
	}
	if summary.PaymentToIncomeRatio != 17.71 {
		t.Errorf("expected ratio 17.71, got %v", summary.PaymentToIncomeRatio)
	}
}

func assertScheduleInvariants(t *testing.T, rows []model.ScheduleEntry, principal, payment decimal.Decimal) {
	t.Helper()

	sum := decimal.Zero
	previous := principal
	for i, row := range rows {
		if row.PaymentNumber != i+1 {
			t.Fatalf("row %d has payment number %d", i+1, row.PaymentNumber)
		}
		if row.RemainingBalance.GreaterThan(previous) {
			t.Errorf("row %d: balance increased from %s to %s", row.PaymentNumber, previous, row.RemainingBalance)
		}
		if i < len(rows)-1 && !row.PrincipalAmount.Add(row.InterestAmount).Equal(payment) {
			t.Errorf("row %d: principal + interest = %s, expected %s",
				row.PaymentNumber, row.PrincipalAmount.Add(row.InterestAmount), payment)
		}
		previous = row.RemainingBalance
		sum = sum.Add(row.PrincipalAmount)
	}

	if !rows[len(rows)-1].RemainingBalance.IsZero() {
		t.Errorf("final balance is %s, expected 0", rows[len(rows)-1].RemainingBalance)
	}
	if sum.Sub(principal).Abs().GreaterThan(d("0.01")) {
		t.Errorf("principal sums to %s, expected %s", sum, principal)
	}
}
