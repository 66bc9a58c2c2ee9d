package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"kioskassist/lib/scrapers/webkiosk/core"
	"kioskassist/lib/telemetry"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	config  string
	verbose bool
	json    bool

	enrollment  string
	dateOfBirth string
	password    string
	userType    string

	// set by the persistent pre-run, closed once the command is done
	env *env
}

// explicitCredentials is nil when no credential flag was given, the
// saved credentials are used then.
func (f *globalFlags) explicitCredentials() *core.Credentials {
	if f.enrollment == "" && f.dateOfBirth == "" && f.password == "" {
		return nil
	}
	creds := core.NewCredentials(f.enrollment, f.dateOfBirth, f.password, f.userType)
	return &creds
}

func newRootCmd(flags *globalFlags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kiosk-cli",
		Short:         "kiosk-cli reads your attendance, marks and other records off JUET WebKiosk.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			telemetry.InitSlog(flags.verbose)

			config, err := readConfig(flags.config)
			if err != nil {
				return err
			}
			e, err := newEnv(config, flags.verbose)
			if err != nil {
				return err
			}
			flags.env = e
			cmd.SetContext(withEnv(cmd.Context(), e))
			return nil
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&flags.config, "config", "config.json5", "The config file to read, <name>.local.json5 overrides it.")
	persistent.BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug output and dump http exchanges to .dev/resty.")
	persistent.BoolVar(&flags.json, "json", false, "Print records as json instead of tables.")
	persistent.StringVarP(&flags.enrollment, "enrollment", "e", "", "Enrollment number, the saved credentials are used when omitted.")
	persistent.StringVarP(&flags.dateOfBirth, "dob", "d", "", "Date of birth as DD-MM-YYYY.")
	persistent.StringVarP(&flags.password, "password", "p", "", "WebKiosk password.")
	persistent.StringVar(&flags.userType, "user-type", core.DefaultUserType, "One of Student, Parent or Employee.")

	rootCmd.AddCommand(
		newLoginCmd(flags),
		newLogoutCmd(),
		newStatusCmd(flags),
		newWatchCmd(flags),
		newAcademicCmd(flags),
		newExamsCmd(flags),
	)
	rootCmd.AddCommand(recordCmds(flags)...)
	return rootCmd
}

// describeError turns an error into something a user can act on.
func describeError(err error) string {
	switch {
	case errors.Is(err, core.ErrNoCredentials):
		return fmt.Sprintf("%s\nlog in first: kiosk-cli login -e <enrollment> -d <DD-MM-YYYY> -p <password>", err)
	case core.Actionable(err):
		return fmt.Sprintf("%s\nlog in again with the correct credentials: kiosk-cli login -e <enrollment> -d <DD-MM-YYYY> -p <password>", err)
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case core.Retryable(err):
		return fmt.Sprintf("%s\nwebkiosk may be busy or down, try again in a moment", err)
	}
	return err.Error()
}

func ExecuteContext(ctx context.Context) int {
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := &globalFlags{}
	rootCmd := newRootCmd(flags)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if flags.env != nil {
		closeErr := flags.env.Close()
		if closeErr != nil {
			slog.Warn("failed to close credential store", "err", closeErr)
		}
	}
	if err != nil {
		fmt.Fprintln(stderr, describeError(err))
		return 1
	}
	return 0
}
