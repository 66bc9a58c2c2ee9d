package commands

import (
	"fmt"
	"kioskassist/lib/scrapers/webkiosk/core"
	"time"

	"github.com/spf13/cobra"
)

func newLoginCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "login -e <enrollment> -d <DD-MM-YYYY> -p <password>",
		Short: "Logs in to WebKiosk and saves the credentials for later commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := getEnv(ctx)

			explicit := flags.explicitCredentials()
			if explicit != nil && !explicit.Complete() {
				return fmt.Errorf("--enrollment, --dob and --password must all be given: %w", core.ErrNoCredentials)
			}
			creds, err := e.guardian.EnsureSession(ctx, explicit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", creds.EnrollmentID, creds.UserType)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forgets the saved credentials.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			err := getEnv(ctx).guardian.Forget(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved credentials cleared")
			return nil
		},
	}
}

type statusOutput struct {
	Saved          bool      `json:"saved"`
	EnrollmentID   string    `json:"enrollment_id,omitempty"`
	UserType       string    `json:"user_type,omitempty"`
	Checked        bool      `json:"checked"`
	Verified       bool      `json:"verified"`
	LastVerifiedAt time.Time `json:"last_verified_at,omitempty"`
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status [--check]",
		Short: "Shows the saved credentials, --check also logs in to verify them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := getEnv(ctx)

			creds, saved, err := e.credentials.Load(ctx)
			if err != nil {
				return err
			}
			status := statusOutput{
				Saved:        saved,
				EnrollmentID: creds.EnrollmentID,
				UserType:     creds.UserType,
			}
			if saved && check {
				status.Checked = true
				_, err := e.guardian.EnsureSession(ctx, nil)
				if err != nil && !core.Actionable(err) {
					return err
				}
				verified := e.guardian.Status()
				status.Verified = verified.Verified
				status.LastVerifiedAt = verified.LastVerifiedAt
			}

			out := cmd.OutOrStdout()
			if flags.json {
				return printJson(out, status)
			}
			if !saved {
				fmt.Fprintln(out, "no saved credentials")
				return nil
			}
			fmt.Fprintf(out, "saved credentials: %s (%s)\n", status.EnrollmentID, status.UserType)
			if !status.Checked {
				return nil
			}
			if status.Verified {
				fmt.Fprintf(out, "login verified at %s\n", status.LastVerifiedAt.Format(time.Kitchen))
			} else {
				fmt.Fprintln(out, "login rejected, the saved credentials are out of date")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Log in to check that the saved credentials still work.")
	return cmd
}
