package extract

import "dario.cat/mergo"

type Kind string

const (
	KindAttendance   Kind = "attendance"
	KindMarks        Kind = "marks"
	KindCGPA         Kind = "cgpa"
	KindSubjects     Kind = "subjects"
	KindFaculty      Kind = "faculty"
	KindDisciplinary Kind = "disciplinary"
	KindSeating      Kind = "seating"
)

// TableConfig describes how to find the data table of one page.
type TableConfig struct {
	// tried in order, a selector may match the table itself or an element
	// containing it
	Selectors []string `json:"selectors"`
	// the structural fallback picks the first table whose header row
	// contains one of these
	HeaderLabels []string `json:"header_labels"`
	// data rows with fewer cells are skipped
	MinColumns int `json:"min_columns"`
}

type Config struct {
	Attendance   TableConfig `json:"attendance"`
	Marks        TableConfig `json:"marks"`
	CGPA         TableConfig `json:"cgpa"`
	Subjects     TableConfig `json:"subjects"`
	Faculty      TableConfig `json:"faculty"`
	Disciplinary TableConfig `json:"disciplinary"`
	Seating      TableConfig `json:"seating"`

	// cell values meaning "no value", compared case-insensitively
	Placeholders []string `json:"placeholders"`
	// minimum Jaro-Winkler similarity for a header label to match
	FuzzyThreshold float64 `json:"fuzzy_threshold"`
}

func DefaultConfig() Config {
	return Config{
		Attendance: TableConfig{
			Selectors:    []string{"#table-1", "table.attendance", "#attendance"},
			HeaderLabels: []string{"Lecture+Tutorial", "Attendance"},
			MinColumns:   3,
		},
		Marks: TableConfig{
			Selectors:    []string{"#marks", "table.marks", "#table-1"},
			HeaderLabels: []string{"Marks", "Exam", "Event", "T1", "Subject"},
			MinColumns:   3,
		},
		CGPA: TableConfig{
			Selectors:    []string{"#cgpa", "table.cgpa", "#table-1"},
			HeaderLabels: []string{"CGPA", "SGPA"},
			MinColumns:   3,
		},
		Subjects: TableConfig{
			Selectors:    []string{"#subjects", "table.subjects"},
			HeaderLabels: []string{"Credits", "Subject Code"},
			MinColumns:   3,
		},
		Faculty: TableConfig{
			Selectors:    []string{"#faculty", "table.faculty"},
			HeaderLabels: []string{"Faculty"},
			MinColumns:   3,
		},
		Disciplinary: TableConfig{
			Selectors:    []string{"#disciplinary", "table.disciplinary"},
			HeaderLabels: []string{"Action", "Disciplinary"},
			MinColumns:   3,
		},
		Seating: TableConfig{
			Selectors:    []string{"#seating", "table.seating"},
			HeaderLabels: []string{"Seat", "Room"},
			MinColumns:   4,
		},
		Placeholders:   []string{"", "&nbsp;", "NA", "N/A", "-", "--"},
		FuzzyThreshold: 0.9,
	}
}

func (c Config) withDefaults() (Config, error) {
	err := mergo.Merge(&c, DefaultConfig())
	if err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) table(kind Kind) TableConfig {
	switch kind {
	case KindAttendance:
		return c.Attendance
	case KindMarks:
		return c.Marks
	case KindCGPA:
		return c.CGPA
	case KindSubjects:
		return c.Subjects
	case KindFaculty:
		return c.Faculty
	case KindDisciplinary:
		return c.Disciplinary
	case KindSeating:
		return c.Seating
	}
	return TableConfig{}
}
