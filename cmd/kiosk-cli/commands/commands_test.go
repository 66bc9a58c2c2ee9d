package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"kioskassist/lib/scrapers/webkiosk/core"
	"kioskassist/lib/scrapers/webkiosk/extract"
	"kioskassist/lib/scrapers/webkiosk/portaltest"
	"kioskassist/lib/scrapers/webkiosk/view"
	"kioskassist/lib/telemetry"
	"kioskassist/services/snapshots"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPortal(t *testing.T, pages map[string]string) (*portaltest.Portal, string) {
	portal := portaltest.New(t)
	for path, markup := range pages {
		portal.SetPage("/"+path, markup)
	}

	dir := t.TempDir()
	config := fmt.Sprintf(`{
	"portal": {"base_url": %q, "timeout_seconds": 5},
	"settle_delay": "1ms",
	"credentials_db": %q,
	"credentials_secret": %q,
	"snapshots_db": %q,
	"watch": {"threshold": 70}
}`,
		portal.URL(),
		filepath.Join(dir, "credentials.db"),
		filepath.Join(dir, "credentials.key"),
		filepath.Join(dir, "snapshots.db"),
	)
	configPath := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0600))
	return portal, configPath
}

func allPages() map[string]string {
	endpoints := view.DefaultEndpoints()
	return map[string]string{
		endpoints.Attendance:   portaltest.AttendancePage,
		endpoints.Marks:        portaltest.MarksPage,
		endpoints.CGPA:         portaltest.CGPAPage,
		endpoints.Subjects:     portaltest.SubjectsPage,
		endpoints.Faculty:      portaltest.FacultyPage,
		endpoints.Disciplinary: portaltest.DisciplinaryPage,
		endpoints.Seating:      portaltest.SeatingPage,
	}
}

func run(t *testing.T, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func login(t *testing.T, portal *portaltest.Portal, configPath string) {
	code, stdout, stderr := run(t,
		"--config", configPath,
		"login",
		"-e", portal.Enrollment,
		"-d", portal.DateOfBirth,
		"-p", portal.Password,
	)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, fmt.Sprintf("logged in as %s (Student)", portal.Enrollment))
}

func TestLoginThenRecords(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:kiosk-cli")
	defer cleanup()

	portal, configPath := newTestPortal(t, allPages())
	login(t, portal, configPath)

	// the saved credentials are used from here on
	code, stdout, stderr := run(t, "--config", configPath, "attendance", "--json")
	require.Equal(t, 0, code, stderr)

	var attendance []extract.Attendance
	require.NoError(t, json.Unmarshal([]byte(stdout), &attendance))
	require.Len(t, attendance, 4)
	require.Equal(t, 65.0, attendance[1].Percentage)

	code, stdout, stderr = run(t, "--config", configPath, "cgpa")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "CGPA")
	require.Contains(t, stdout, "8.2")

	require.Equal(t, int64(3), portal.LoginPosts())
}

func TestNoCredentials(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:kiosk-cli")
	defer cleanup()

	portal, configPath := newTestPortal(t, allPages())

	code, _, stderr := run(t, "--config", configPath, "marks")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "log in first")

	code, _, stderr = run(t, "--config", configPath, "login", "-e", portal.Enrollment)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "must all be given")
	require.Equal(t, int64(0), portal.LoginPosts())
}

func TestWrongPassword(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:kiosk-cli")
	defer cleanup()

	portal, configPath := newTestPortal(t, allPages())

	code, _, stderr := run(t,
		"--config", configPath,
		"login",
		"-e", portal.Enrollment,
		"-d", portal.DateOfBirth,
		"-p", "wrong",
	)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "log in again with the correct credentials")

	code, stdout, _ := run(t, "--config", configPath, "status")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "no saved credentials", "rejected credentials are never saved")
}

func TestStatusAndLogout(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:kiosk-cli")
	defer cleanup()

	portal, configPath := newTestPortal(t, allPages())
	login(t, portal, configPath)

	code, stdout, _ := run(t, "--config", configPath, "status")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, fmt.Sprintf("saved credentials: %s (Student)", portal.Enrollment))
	require.NotContains(t, stdout, "verified")

	code, stdout, stderr := run(t, "--config", configPath, "status", "--check")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "login verified")

	code, stdout, _ = run(t, "--config", configPath, "logout")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "saved credentials cleared")

	code, stdout, _ = run(t, "--config", configPath, "status", "--json")
	require.Equal(t, 0, code)
	var status statusOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &status))
	require.False(t, status.Saved)
}

func TestAcademicPartialFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:kiosk-cli")
	defer cleanup()

	pages := allPages()
	delete(pages, view.DefaultEndpoints().Disciplinary)
	portal, configPath := newTestPortal(t, pages)
	login(t, portal, configPath)

	code, stdout, stderr := run(t, "--config", configPath, "academic")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "Attendance")
	require.Contains(t, stdout, "DATA STRUCTURES")
	require.Contains(t, stdout, "Faculty")
	require.Contains(t, stderr, "Disciplinary Actions:")

	code, stdout, stderr = run(t, "--config", configPath, "academic", "--json")
	require.Equal(t, 0, code, stderr)
	var academic map[string]struct {
		Records json.RawMessage `json:"records"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &academic))
	require.Empty(t, academic["attendance"].Error)
	require.Contains(t, academic["disciplinary"].Error, core.ErrPageUnavailable.Error())

	code, stdout, stderr = run(t, "--config", configPath, "exams", "--json")
	require.Equal(t, 0, code, stderr)
	var exams view.ExamData
	require.NoError(t, json.Unmarshal([]byte(stdout), &exams))
	require.Len(t, exams.CGPA.Records, 2)
}

func TestRecordsWithoutTable(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:kiosk-cli")
	defer cleanup()

	pages := allPages()
	pages[view.DefaultEndpoints().Disciplinary] = portaltest.NoTablePage
	portal, configPath := newTestPortal(t, pages)
	login(t, portal, configPath)

	code, stdout, stderr := run(t, "--config", configPath, "disciplinary")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "no records found")
}

func TestWatchOnce(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:kiosk-cli")
	defer cleanup()

	portal, configPath := newTestPortal(t, allPages())
	login(t, portal, configPath)

	code, stdout, stderr := run(t, "--config", configPath, "watch", "--once", "--json")
	require.Equal(t, 0, code, stderr)

	var series []snapshots.SubjectSeries
	require.NoError(t, json.Unmarshal([]byte(stdout), &series))
	require.Len(t, series, 4)
	for _, s := range series {
		require.Len(t, s.Snapshots, 1)
	}

	// a second check on the same day replaces the first snapshot
	code, stdout, stderr = run(t, "--config", configPath, "watch", "--once")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "DATABASE SYSTEMS")
	require.Contains(t, stdout, "65.00%")
}

func TestDescribeError(t *testing.T) {
	testCases := []struct {
		err      error
		contains string
	}{
		{err: core.ErrNoCredentials, contains: "log in first"},
		{err: fmt.Errorf("login: %w", core.ErrAuthenticationRejected), contains: "correct credentials"},
		{err: &core.TransportError{Op: "GET", Err: errors.New("connection refused")}, contains: "try again"},
		{err: core.ErrCaptchaNotFound, contains: "try again"},
		{err: context.Canceled, contains: "cancelled"},
		{err: extract.ErrNoDataFound, contains: extract.ErrNoDataFound.Error()},
	}
	for _, test := range testCases {
		message := describeError(test.err)
		require.True(t, strings.Contains(message, test.contains), message)
	}
}

func TestInvalidConfig(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:kiosk-cli")
	defer cleanup()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json5")
	config := fmt.Sprintf(`{
	"credentials_db": %q,
	"credentials_secret": %q,
	"watch": {"threshold": 140, "alert_to": ["not an address"]}
}`,
		filepath.Join(dir, "credentials.db"),
		filepath.Join(dir, "credentials.key"),
	)
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0600))

	code, _, stderr := run(t, "--config", configPath, "status")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "invalid config")
	require.Contains(t, stderr, "Config.Watch.Threshold")
	require.Contains(t, stderr, "must be a valid email address")
}
