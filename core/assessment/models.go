package assessment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
)

type Assessment struct {
	ID          int64     `json:"id" db:"id"`
	CourseID    int64     `json:"course" db:"course_id"`
	CourseTitle string    `json:"course_title" db:"course_title"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	DueDate     core.Date `json:"due_date" db:"due_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Submission is a student's answer to an Assessment. Score stays null until graded.
type Submission struct {
	ID              int64        `json:"id" db:"id"`
	StudentID       int64        `json:"student" db:"student_id"`
	StudentEmail    string       `json:"student_email" db:"student_email"`
	AssessmentID    int64        `json:"assessment" db:"assessment_id"`
	AssessmentTitle string       `json:"assessment_title" db:"assessment_title"`
	Content         string       `json:"content" db:"content"`
	Score           null.Float64 `json:"score" db:"score"`
	SubmittedAt     time.Time    `json:"submitted_at" db:"submitted_at"`
}

func requiredDate(d core.Date, field string) error {
	if d.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: core.RequiredFieldError})
	}
	return nil
}

// NewAssessment contains information needed to create an Assessment. It is also the body of a full update.
type NewAssessment struct {
	Course      int64     `json:"course" validate:"required"`
	Title       string    `json:"title" validate:"required,notblank,max=255"`
	Description string    `json:"description" validate:"required,notblank"`
	DueDate     core.Date `json:"due_date"`
}

func (na *NewAssessment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	if err := validate.Struct(na); err != nil {
		return err
	}
	return requiredDate(na.DueDate, "due_date")
}

func (na NewAssessment) AsUpdate() UpdateAssessment {
	return UpdateAssessment{Course: &na.Course, Title: &na.Title, Description: &na.Description, DueDate: &na.DueDate}
}

type UpdateAssessment struct {
	Course      *int64     `json:"course" validate:"omitempty,gt=0"`
	Title       *string    `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string    `json:"description" validate:"omitempty,notblank"`
	DueDate     *core.Date `json:"due_date"`
}

func (ua *UpdateAssessment) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ua); err != nil {
		return err
	}
	if ua.DueDate != nil {
		return requiredDate(*ua.DueDate, "due_date")
	}
	return nil
}

func (ua UpdateAssessment) apply(a Assessment) Assessment {
	if ua.Course != nil {
		a.CourseID = *ua.Course
	}
	if ua.Title != nil {
		a.Title = core.CleanString(*ua.Title)
	}
	if ua.Description != nil {
		a.Description = *ua.Description
	}
	if ua.DueDate != nil {
		a.DueDate = *ua.DueDate
	}
	return a
}

type QueryFilter struct {
	CourseID int64 `query:"course"`
}

// NewSubmission contains information needed to submit an answer. It is also the body of a full update.
type NewSubmission struct {
	Student    int64        `json:"student" validate:"required"`
	Assessment int64        `json:"assessment" validate:"required"`
	Content    string       `json:"content"`
	Score      null.Float64 `json:"score"`
}

func validScore(score null.Float64) error {
	if score.Valid && (score.Float64 < 0 || score.Float64 > 100) {
		msg := "score must be between 0 and 100"
		return core.NewValidationError(nil, core.FieldError{Field: "score", Error: msg})
	}
	return nil
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return validScore(ns.Score)
}

func (ns NewSubmission) AsUpdate() UpdateSubmission {
	return UpdateSubmission{Student: &ns.Student, Assessment: &ns.Assessment, Content: &ns.Content, Score: ns.Score}
}

// UpdateSubmission modifies a Submission. A null or missing score leaves the grade unchanged.
type UpdateSubmission struct {
	Student    *int64       `json:"student" validate:"omitempty,gt=0"`
	Assessment *int64       `json:"assessment" validate:"omitempty,gt=0"`
	Content    *string      `json:"content"`
	Score      null.Float64 `json:"score"`
}

func (us *UpdateSubmission) Validate(validate *validator.Validate) error {
	if err := validate.Struct(us); err != nil {
		return err
	}
	return validScore(us.Score)
}

func (us UpdateSubmission) apply(s Submission) Submission {
	if us.Student != nil {
		s.StudentID = *us.Student
	}
	if us.Assessment != nil {
		s.AssessmentID = *us.Assessment
	}
	if us.Content != nil {
		s.Content = *us.Content
	}
	if us.Score.Valid {
		s.Score = us.Score
	}
	return s
}

type SubmissionFilter struct {
	AssessmentID int64 `query:"assessment"`
	StudentID    int64 `query:"student"`
}
