package commands

import (
	"fmt"
	"io"
	"kioskassist/lib/scrapers/webkiosk/view"

	"github.com/spf13/cobra"
)

// renderResult prints the table of one category, or its error to
// `errOut` when the category failed.
func renderResult[T any](out, errOut io.Writer, v recordView[T], result view.Result[T]) bool {
	if result.Err != nil {
		fmt.Fprintf(errOut, "%s: %s\n", v.title, describeError(result.Err))
		return false
	}
	v.render(out, result.Records)
	return true
}

func newAcademicCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "academic",
		Short: "Shows attendance, subjects, faculty and disciplinary actions in one go.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := getEnv(ctx)

			data, err := e.fetcher.AllAcademicData(ctx, flags.explicitCredentials())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			if flags.json {
				if err := data.Err(); err != nil {
					fmt.Fprintln(errOut, err)
				}
				return printJson(out, data)
			}

			ok := false
			ok = renderResult(out, errOut, attendanceView, data.Attendance) || ok
			ok = renderResult(out, errOut, subjectsView, data.Subjects) || ok
			ok = renderResult(out, errOut, facultyView, data.Faculty) || ok
			ok = renderResult(out, errOut, disciplinaryView, data.Disciplinary) || ok
			if !ok {
				return data.Err()
			}
			return nil
		},
	}
}

func newExamsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "exams",
		Short: "Shows marks, CGPA and the seating plan in one go.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := getEnv(ctx)

			data, err := e.fetcher.AllExamData(ctx, flags.explicitCredentials())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			if flags.json {
				if err := data.Err(); err != nil {
					fmt.Fprintln(errOut, err)
				}
				return printJson(out, data)
			}

			ok := false
			ok = renderResult(out, errOut, marksView, data.Marks) || ok
			ok = renderResult(out, errOut, cgpaView, data.CGPA) || ok
			ok = renderResult(out, errOut, seatingView, data.Seating) || ok
			if !ok {
				return data.Err()
			}
			return nil
		},
	}
}
