package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"credit-simulator/internal/amortization"
	"credit-simulator/internal/model"
)

type simulateOptions struct {
	amount      string
	income      string
	term        int
	annualRate  float64
	monthlyRate float64
	capacity    float64
	start       string
}

func newSimulateCmd() *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Compute a payment schedule",
		Long: `Computes the fixed monthly payment and the full amortization schedule
for a loan. Exactly one of --annual-rate or --monthly-rate is required.
Nothing is stored. Exits with status 2 when the credit is not viable.`,
		Example: `  simctl simulate --amount 10000 --income 5000 --term 12 --annual-rate 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.amount, "amount", "", "loan amount")
	cmd.Flags().StringVar(&opts.income, "income", "", "monthly client income")
	cmd.Flags().IntVar(&opts.term, "term", 0, "term in months")
	cmd.Flags().Float64Var(&opts.annualRate, "annual-rate", 0, "annual interest rate in percent")
	cmd.Flags().Float64Var(&opts.monthlyRate, "monthly-rate", 0, "monthly interest rate in percent")
	cmd.Flags().Float64Var(&opts.capacity, "capacity", model.DefaultDebtCapacityPercentage, "debt capacity percentage")
	cmd.Flags().StringVar(&opts.start, "start", "", "simulation date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("income")
	_ = cmd.MarkFlagRequired("term")
	cmd.MarkFlagsMutuallyExclusive("annual-rate", "monthly-rate")
	cmd.MarkFlagsOneRequired("annual-rate", "monthly-rate")

	return cmd
}

func runSimulate(cmd *cobra.Command, opts *simulateOptions) error {
	if opts.term < 1 || opts.term > model.MaxTermMonths {
		return fmt.Errorf("--term must be between 1 and %d", model.MaxTermMonths)
	}
	amount, err := decimal.NewFromString(opts.amount)
	if err != nil {
		return fmt.Errorf("invalid --amount %q: %w", opts.amount, err)
	}
	income, err := decimal.NewFromString(opts.income)
	if err != nil {
		return fmt.Errorf("invalid --income %q: %w", opts.income, err)
	}

	start := time.Now()
	if opts.start != "" {
		d, err := model.ParseDate(opts.start)
		if err != nil {
			return fmt.Errorf("invalid --start %q: %w", opts.start, err)
		}
		start = d.Time
	}

	var annual, monthly *float64
	if cmd.Flags().Changed("annual-rate") {
		annual = &opts.annualRate
	}
	if cmd.Flags().Changed("monthly-rate") {
		monthly = &opts.monthlyRate
	}
	rate, err := model.RateFromFields(annual, monthly)
	if err != nil {
		return err
	}

	capacity := opts.capacity
	sim, err := amortization.Simulate(model.SimulationInput{
		ClientIncome:           income,
		LoanAmount:             amount,
		TermMonths:             opts.term,
		Rate:                   rate,
		DebtCapacityPercentage: &capacity,
	}, start)

	out := cmd.OutOrStdout()
	if err != nil {
		var nonViable *amortization.NonViableError
		if errors.As(err, &nonViable) {
			renderDeclined(out, nonViable)
		}
		return err
	}

	renderSimulation(out, sim, amortization.Summarize(sim))
	return nil
}

func renderDeclined(w io.Writer, e *amortization.NonViableError) {
	body := lipgloss.JoinVertical(lipgloss.Left,
		declinedStyle.Render("NOT VIABLE"),
		fmt.Sprintf("Monthly payment:      %s", e.Payment.StringFixed(2)),
		fmt.Sprintf("Max allowed payment:  %s (%.2f%% of income)", e.MaxAllowed.StringFixed(2), e.DebtCapacity),
	)
	fmt.Fprintln(w, boxStyle.Render(body))
}

func renderSimulation(w io.Writer, sim *model.Simulation, summary model.Summary) {
	header := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Credit simulation"),
		viableStyle.Render("VIABLE"),
		fmt.Sprintf("Loan amount:      %s over %d months", sim.LoanAmount.StringFixed(2), sim.TermMonths),
		fmt.Sprintf("Interest rate:    %.4f%% annual / %.4f%% monthly", sim.AnnualInterestRate, sim.MonthlyInterestRate),
		fmt.Sprintf("Monthly payment:  %s", sim.MonthlyPayment.StringFixed(2)),
		fmt.Sprintf("Total interest:   %s", summary.TotalInterest.StringFixed(2)),
		fmt.Sprintf("Total paid:       %s", summary.TotalPayment.StringFixed(2)),
		fmt.Sprintf("Payment / income: %.2f%% (limit %.2f%%)", summary.PaymentToIncomeRatio, sim.DebtCapacityPercentage),
	)
	fmt.Fprintln(w, boxStyle.Render(header))

	rows := make([][]string, 0, len(sim.Schedule))
	for _, e := range sim.Schedule {
		rows = append(rows, []string{
			strconv.Itoa(e.PaymentNumber),
			e.PaymentDate.String(),
			e.InterestAmount.StringFixed(2),
			e.PrincipalAmount.StringFixed(2),
			e.RemainingBalance.StringFixed(2),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers("#", "Date", "Interest", "Principal", "Balance").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}
