package core

import "strings"

const DefaultUserType = "Student"

type Credentials struct {
	EnrollmentID string `json:"enrollment_id"`
	// DD-MM-YYYY, the format the portal's DATE1 field expects
	DateOfBirth string `json:"date_of_birth"`
	Password    string `json:"password"`
	UserType    string `json:"user_type"`
}

func NewCredentials(enrollmentId, dateOfBirth, password, userType string) Credentials {
	if strings.TrimSpace(userType) == "" {
		userType = DefaultUserType
	}
	return Credentials{
		EnrollmentID: strings.TrimSpace(enrollmentId),
		DateOfBirth:  strings.TrimSpace(dateOfBirth),
		Password:     password,
		UserType:     userType,
	}
}

// Complete reports whether every field is present, a partial set of
// credentials is never usable.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.EnrollmentID) != "" &&
		strings.TrimSpace(c.DateOfBirth) != "" &&
		c.Password != "" &&
		strings.TrimSpace(c.UserType) != ""
}
