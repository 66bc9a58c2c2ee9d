package commands

import (
	"context"
	"fmt"
	"io"
	"kioskassist/lib/scrapers/webkiosk/core"
	"kioskassist/lib/scrapers/webkiosk/extract"
	"kioskassist/lib/scrapers/webkiosk/view"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type getter[T any] func(f *view.Fetcher, ctx context.Context, creds *core.Credentials) ([]T, error)

// recordView describes how one kind of record is fetched and shown.
type recordView[T any] struct {
	use    string
	title  string
	short  string
	get    getter[T]
	header table.Row
	row    func(r T) table.Row
}

func (v recordView[T]) render(out io.Writer, records []T) {
	if len(records) == 0 {
		fmt.Fprintf(out, "%s: no records found\n", v.title)
		return
	}
	t := newTable(out)
	t.SetTitle(v.title)
	t.AppendHeader(v.header)
	for _, r := range records {
		t.AppendRow(v.row(r))
	}
	t.Render()
}

var attendanceView = recordView[extract.Attendance]{
	use:    "attendance",
	title:  "Attendance",
	short:  "Shows the attendance percentage of every subject.",
	get:    (*view.Fetcher).Attendance,
	header: table.Row{"Subject", "Code", "L+T", "Lecture", "Tutorial", "Practical", "Overall"},
	row: func(r extract.Attendance) table.Row {
		return table.Row{
			r.Subject,
			orDash(r.SubjectCode),
			optional(r.LectureTutorialPercent),
			optional(r.LecturePercent),
			optional(r.TutorialPercent),
			optional(r.PracticalPercent),
			percent(r.Percentage),
		}
	},
}

var marksView = recordView[extract.Marks]{
	use:    "marks",
	title:  "Marks",
	short:  "Shows the marks of every exam event.",
	get:    (*view.Fetcher).Marks,
	header: table.Row{"Subject", "Code", "Exam", "Obtained", "Max", "Grade"},
	row: func(r extract.Marks) table.Row {
		return table.Row{
			r.Subject,
			orDash(r.SubjectCode),
			r.ExamType,
			number(r.ObtainedMarks),
			optional(r.MaxMarks),
			orDash(r.Grade),
		}
	},
}

var cgpaView = recordView[extract.CGPARecord]{
	use:    "cgpa",
	title:  "CGPA",
	short:  "Shows the SGPA and CGPA of every semester.",
	get:    (*view.Fetcher).CGPA,
	header: table.Row{"Semester", "SGPA", "CGPA", "Course Credits", "Earned Credits", "Grade Points"},
	row: func(r extract.CGPARecord) table.Row {
		return table.Row{
			strconv.Itoa(r.Semester),
			optional(r.SGPA),
			optional(r.CGPA),
			optional(r.CourseCredits),
			optional(r.EarnedCredits),
			optional(r.GradePoints),
		}
	},
}

var subjectsView = recordView[extract.SubjectInfo]{
	use:    "subjects",
	title:  "Subjects",
	short:  "Shows the subjects registered this semester.",
	get:    (*view.Fetcher).Subjects,
	header: table.Row{"Subject", "Code", "Credits", "Type", "Components"},
	row: func(r extract.SubjectInfo) table.Row {
		return table.Row{
			r.Subject,
			orDash(r.SubjectCode),
			optional(r.Credits),
			orDash(r.CourseType),
			orDash(r.Components),
		}
	},
}

var facultyView = recordView[extract.SubjectFaculty]{
	use:    "faculty",
	title:  "Faculty",
	short:  "Shows who teaches each subject.",
	get:    (*view.Fetcher).SubjectFaculty,
	header: table.Row{"Subject", "Code", "Lecture", "Tutorial", "Practical"},
	row: func(r extract.SubjectFaculty) table.Row {
		return table.Row{
			r.Subject,
			orDash(r.SubjectCode),
			orDash(r.LectureFaculty),
			orDash(r.TutorialFaculty),
			orDash(r.PracticalFaculty),
		}
	},
}

var disciplinaryView = recordView[extract.DisciplinaryAction]{
	use:    "disciplinary",
	title:  "Disciplinary Actions",
	short:  "Shows disciplinary actions on record.",
	get:    (*view.Fetcher).DisciplinaryActions,
	header: table.Row{"Date", "Reason", "Action", "Remarks"},
	row: func(r extract.DisciplinaryAction) table.Row {
		return table.Row{
			orDash(r.Date),
			r.Reason,
			orDash(r.Action),
			orDash(r.Remarks),
		}
	},
}

var seatingView = recordView[extract.SeatingPlan]{
	use:    "seating",
	title:  "Seating Plan",
	short:  "Shows the exam seating plan.",
	get:    (*view.Fetcher).SeatingPlan,
	header: table.Row{"Subject", "Code", "Date", "Time", "Room", "Seat"},
	row: func(r extract.SeatingPlan) table.Row {
		return table.Row{
			r.Subject,
			orDash(r.SubjectCode),
			orDash(r.Date),
			orDash(r.Time),
			orDash(r.Room),
			orDash(r.Seat),
		}
	},
}

func newRecordCmd[T any](flags *globalFlags, v recordView[T]) *cobra.Command {
	return &cobra.Command{
		Use:   v.use,
		Short: v.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e := getEnv(ctx)

			records, err := v.get(e.fetcher, ctx, flags.explicitCredentials())
			if err != nil {
				return err
			}
			if flags.json {
				if records == nil {
					records = []T{}
				}
				return printJson(cmd.OutOrStdout(), records)
			}
			v.render(cmd.OutOrStdout(), records)
			return nil
		},
	}
}

func recordCmds(flags *globalFlags) []*cobra.Command {
	return []*cobra.Command{
		newRecordCmd(flags, attendanceView),
		newRecordCmd(flags, marksView),
		newRecordCmd(flags, cgpaView),
		newRecordCmd(flags, subjectsView),
		newRecordCmd(flags, facultyView),
		newRecordCmd(flags, disciplinaryView),
		newRecordCmd(flags, seatingView),
	}
}
