package service

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/sirupsen/logrus"

	"credit-simulator/internal/model"
)

// SMTPSettings configures the email sender
type SMTPSettings struct {
	Host               string
	Port               int
	User               string
	Password           string
	From               string
	Enabled            bool
	InsecureSkipVerify bool
}

type EmailSender struct {
	dialer  *mail.Dialer
	from    string
	enabled bool
	logger  *logrus.Logger
}

func NewEmailSender(settings SMTPSettings, logger *logrus.Logger) *EmailSender {
	d := mail.NewDialer(settings.Host, settings.Port, settings.User, settings.Password)
	d.TLSConfig = &tls.Config{
		ServerName:         settings.Host,
		InsecureSkipVerify: settings.InsecureSkipVerify,
	}

	from := settings.From
	if from == "" {
		from = settings.User
	}
	return &EmailSender{
		dialer:  d,
		from:    from,
		enabled: settings.Enabled,
		logger:  logger,
	}
}

// SendSimulationSummary mails the headline figures of a simulation.
func (es *EmailSender) SendSimulationSummary(email string, sim *model.Simulation, summary model.Summary) error {
	if !es.enabled {
		es.logger.Debug("Email notifications are disabled")
		return nil
	}

	subject := fmt.Sprintf("Credit simulation #%d", sim.ID)
	return es.sendEmail(email, subject, renderSummary(sim, summary))
}

func renderSummary(sim *model.Simulation, summary model.Summary) string {
	var rows strings.Builder
	for _, e := range sim.Schedule {
		fmt.Fprintf(&rows, "<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			e.PaymentNumber,
			e.PaymentDate,
			e.InterestAmount.StringFixed(2),
			e.PrincipalAmount.StringFixed(2),
			e.RemainingBalance.StringFixed(2),
		)
	}

	return fmt.Sprintf(`
		<h1>Credit simulation #%d</h1>
		<p>Loan amount: <strong>%s</strong></p>
		<p>Term: <strong>%d months</strong></p>
		<p>Annual rate: <strong>%.4f%%</strong> (monthly %.4f%%)</p>
		<p>Monthly payment: <strong>%s</strong></p>
		<p>Total interest: <strong>%s</strong></p>
		<p>Total paid: <strong>%s</strong></p>
		<table>
		<tr><th>#</th><th>Date</th><th>Interest</th><th>Principal</th><th>Balance</th></tr>
		%s</table>
		<p>Simulated on: <strong>%s</strong></p>
		<small>This is an automatic message, please do not reply</small>
	`,
		sim.ID,
		sim.LoanAmount.StringFixed(2),
		sim.TermMonths,
		sim.AnnualInterestRate,
		sim.MonthlyInterestRate,
		sim.MonthlyPayment.StringFixed(2),
		summary.TotalInterest.StringFixed(2),
		summary.TotalPayment.StringFixed(2),
		rows.String(),
		sim.SimulationDate.Format("02.01.2006 15:04"),
	)
}

func (es *EmailSender) sendEmail(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", es.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		es.logger.WithError(err).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	es.logger.WithField("sent_at", time.Now().Format(time.RFC3339)).Infof("Email sent to %s", to)
	return nil
}
