package extract

// Attendance percentages are nil when the portal left the column blank,
// Percentage is the resolved overall value.
type Attendance struct {
	Subject                string   `json:"subject"`
	SubjectCode            string   `json:"subject_code,omitempty"`
	Percentage             float64  `json:"percentage"`
	LecturePercent         *float64 `json:"lecture_percent,omitempty"`
	TutorialPercent        *float64 `json:"tutorial_percent,omitempty"`
	PracticalPercent       *float64 `json:"practical_percent,omitempty"`
	LectureTutorialPercent *float64 `json:"lecture_tutorial_percent,omitempty"`
}

type Marks struct {
	Subject       string   `json:"subject"`
	SubjectCode   string   `json:"subject_code,omitempty"`
	ExamType      string   `json:"exam_type"`
	MaxMarks      *float64 `json:"max_marks,omitempty"`
	ObtainedMarks float64  `json:"obtained_marks"`
	Grade         string   `json:"grade,omitempty"`
}

type CGPARecord struct {
	Semester      int      `json:"semester"`
	SGPA          *float64 `json:"sgpa,omitempty"`
	CGPA          *float64 `json:"cgpa,omitempty"`
	CourseCredits *float64 `json:"course_credits,omitempty"`
	EarnedCredits *float64 `json:"earned_credits,omitempty"`
	GradePoints   *float64 `json:"grade_points,omitempty"`
}

type SubjectInfo struct {
	Subject     string   `json:"subject"`
	SubjectCode string   `json:"subject_code,omitempty"`
	Credits     *float64 `json:"credits,omitempty"`
	// core or elective
	CourseType string `json:"course_type,omitempty"`
	// which of lecture, tutorial and practical the subject has, eg. "L T"
	Components string `json:"components,omitempty"`
}

type SubjectFaculty struct {
	Subject          string `json:"subject"`
	SubjectCode      string `json:"subject_code,omitempty"`
	LectureFaculty   string `json:"lecture_faculty,omitempty"`
	TutorialFaculty  string `json:"tutorial_faculty,omitempty"`
	PracticalFaculty string `json:"practical_faculty,omitempty"`
}

type DisciplinaryAction struct {
	Date    string `json:"date,omitempty"`
	Reason  string `json:"reason"`
	Action  string `json:"action,omitempty"`
	Remarks string `json:"remarks,omitempty"`
}

type SeatingPlan struct {
	Subject     string `json:"subject"`
	SubjectCode string `json:"subject_code,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Room        string `json:"room,omitempty"`
	Seat        string `json:"seat,omitempty"`
}
