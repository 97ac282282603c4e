package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Enrollment struct {
	ID           int64     `json:"id" db:"id"`
	StudentID    int64     `json:"student" db:"student_id"`
	StudentEmail string    `json:"student_email" db:"student_email"`
	CourseID     int64     `json:"course" db:"course_id"`
	CourseTitle  string    `json:"course_title" db:"course_title"`
	Progress     float64   `json:"progress" db:"progress"`
	EnrolledAt   time.Time `json:"enrolled_at" db:"enrolled_at"`
}

// NewEnrollment contains information needed to enroll a student. It is also the body of a full update.
type NewEnrollment struct {
	Student  int64   `json:"student" validate:"required"`
	Course   int64   `json:"course" validate:"required"`
	Progress float64 `json:"progress" validate:"gte=0,lte=100"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}

func (ne NewEnrollment) AsUpdate() UpdateEnrollment {
	return UpdateEnrollment{Student: &ne.Student, Course: &ne.Course, Progress: &ne.Progress}
}

type UpdateEnrollment struct {
	Student  *int64   `json:"student" validate:"omitempty,gt=0"`
	Course   *int64   `json:"course" validate:"omitempty,gt=0"`
	Progress *float64 `json:"progress" validate:"omitempty,gte=0,lte=100"`
}

func (ue *UpdateEnrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(ue)
}

func (ue UpdateEnrollment) apply(e Enrollment) Enrollment {
	if ue.Student != nil {
		e.StudentID = *ue.Student
	}
	if ue.Course != nil {
		e.CourseID = *ue.Course
	}
	if ue.Progress != nil {
		e.Progress = *ue.Progress
	}
	return e
}

type QueryFilter struct {
	Progress  *float64 `query:"progress"`
	CourseID  int64    `query:"-"`
	StudentID int64    `query:"-"`
}
