package snapshots

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBelowThreshold(t *testing.T) {
	snapshot := StudentSnapshot{
		EnrollmentID: "211B123",
		Subjects: []SubjectSnapshot{
			{Subject: "DATA STRUCTURES", Percentage: 80},
			{Subject: "DATABASE SYSTEMS", Percentage: 65},
			{Subject: "MATHEMATICS", Percentage: 75},
		},
	}
	require.Equal(t, []SubjectSnapshot{
		{Subject: "DATABASE SYSTEMS", Percentage: 65},
	}, BelowThreshold(snapshot, 75))
	require.Empty(t, BelowThreshold(snapshot, 50))
}

func TestLowAttendanceMail(t *testing.T) {
	alerter := NewAlerter(SmtpConfig{
		Server:       "smtp.example.com",
		Port:         587,
		EmailAddress: "alerts@example.com",
	})
	require.True(t, alerter.Enabled())
	require.False(t, NewAlerter(SmtpConfig{}).Enabled())

	mail := alerter.lowAttendanceMail(
		[]string{"student@example.com"},
		"211B123",
		75,
		[]SubjectSnapshot{{Subject: "DATABASE SYSTEMS", Percentage: 65}},
	)
	require.Equal(t, "Kiosk Assist <alerts@example.com>", mail.From)
	require.Equal(t, []string{"student@example.com"}, mail.To)
	require.Equal(t, "Attendance below 75% for 211B123", mail.Subject)
	require.True(t, strings.Contains(string(mail.Text), "DATABASE SYSTEMS: 65.00%"))
}

func TestSendNothingWhenAboveThreshold(t *testing.T) {
	// an unreachable server is never contacted when there is nothing to send
	alerter := NewAlerter(SmtpConfig{Server: "127.0.0.1", Port: 1, EmailAddress: "a@example.com"})
	err := alerter.SendLowAttendance(context.Background(), []string{"b@example.com"}, "211B123", 75, nil)
	require.NoError(t, err)
}
