package snapshots

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

func (c SmtpConfig) Configured() bool {
	return c.Server != "" && c.Port != 0 && c.EmailAddress != ""
}

// BelowThreshold returns the subjects whose attendance is strictly under
// `threshold`.
func BelowThreshold(snapshot StudentSnapshot, threshold float64) []SubjectSnapshot {
	var low []SubjectSnapshot
	for _, s := range snapshot.Subjects {
		if s.Percentage < threshold {
			low = append(low, s)
		}
	}
	return low
}

type Alerter struct {
	smtp SmtpConfig
}

func NewAlerter(config SmtpConfig) Alerter {
	return Alerter{smtp: config}
}

func (a Alerter) Enabled() bool {
	return a.smtp.Configured()
}

func (a Alerter) lowAttendanceMail(to []string, enrollmentId string, threshold float64, low []SubjectSnapshot) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Kiosk Assist <%s>", a.smtp.EmailAddress)
	mail.To = to
	mail.Subject = fmt.Sprintf("Attendance below %.0f%% for %s", threshold, enrollmentId)

	var lines strings.Builder
	for _, s := range low {
		fmt.Fprintf(&lines, "  %s: %.2f%%\n", s.Subject, s.Percentage)
	}
	body := fmt.Sprintf(`Attendance for %s has fallen below %.0f%% in the following subjects.

%s
This is an automated message sent by kiosk-cli watch.`, enrollmentId, threshold, lines.String())
	mail.Text = []byte(body)
	return mail
}

// SendLowAttendance emails `to` the subjects in `low`, nothing is sent when
// `low` is empty.
func (a Alerter) SendLowAttendance(ctx context.Context, to []string, enrollmentId string, threshold float64, low []SubjectSnapshot) error {
	if len(low) == 0 {
		return nil
	}

	ctx, span := tracer.Start(ctx, "SendLowAttendance")
	defer span.End()

	mail := a.lowAttendanceMail(to, enrollmentId, threshold, low)
	addr := fmt.Sprintf("%s:%d", a.smtp.Server, a.smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", a.smtp.EmailAddress, a.smtp.Password, a.smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
