package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
)

type Difficulty string

// Difficulties
const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// OrderingFields are the fields courses may be ordered by.
var OrderingFields = []string{"title", "difficulty", "created_at"}

type Course struct {
	ID              int64      `json:"id" db:"id"`
	InstructorID    int64      `json:"instructor" db:"instructor_id"`
	InstructorEmail string     `json:"instructor_email" db:"instructor_email"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	Difficulty      Difficulty `json:"difficulty" db:"difficulty"`
	Videos          []Video    `json:"videos" db:"-"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

type Video struct {
	ID          int64     `json:"id" db:"id"`
	CourseID    int64     `json:"course" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	URL         string    `json:"video_url" db:"video_url"`
	Duration    int       `json:"duration" db:"duration"` // seconds
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewCourse contains information needed to create a Course. It is also the body of a full update.
type NewCourse struct {
	Instructor  int64      `json:"instructor" validate:"required"`
	Title       string     `json:"title" validate:"required,notblank,max=255"`
	Description string     `json:"description" validate:"required,notblank"`
	Difficulty  Difficulty `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Difficulty = Difficulty(core.CleanString(string(nc.Difficulty), true /* lower */))
	return validate.Struct(nc)
}

func (nc NewCourse) AsUpdate() UpdateCourse {
	return UpdateCourse{
		Instructor:  &nc.Instructor,
		Title:       &nc.Title,
		Description: &nc.Description,
		Difficulty:  &nc.Difficulty,
	}
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Instructor  *int64      `json:"instructor" validate:"omitempty,gt=0"`
	Title       *string     `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string     `json:"description" validate:"omitempty,notblank"`
	Difficulty  *Difficulty `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	if uc.Title != nil {
		title := core.CleanString(*uc.Title)
		uc.Title = &title
	}
	return validate.Struct(uc)
}

func (uc UpdateCourse) apply(c Course) Course {
	if uc.Instructor != nil {
		c.InstructorID = *uc.Instructor
	}
	if uc.Title != nil {
		c.Title = *uc.Title
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Difficulty != nil {
		c.Difficulty = *uc.Difficulty
	}
	return c
}

type QueryFilter struct {
	// Search does a case-insensitive match on the title, the difficulty or the instructor's username.
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// NewVideo contains information needed to add a Video to a Course.
type NewVideo struct {
	Course      int64  `json:"course" validate:"required"`
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Description string `json:"description"`
	URL         string `json:"video_url" validate:"required,url"`
	Duration    int    `json:"duration" validate:"gte=0"`
}

func (nv *NewVideo) Validate(validate *validator.Validate) error {
	nv.Title = core.CleanString(nv.Title)
	nv.URL = core.CleanString(nv.URL)
	return validate.Struct(nv)
}

func (nv NewVideo) AsUpdate() UpdateVideo {
	return UpdateVideo{
		Title:       &nv.Title,
		Description: &nv.Description,
		URL:         &nv.URL,
		Duration:    &nv.Duration,
	}
}

type UpdateVideo struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string `json:"description"`
	URL         *string `json:"video_url" validate:"omitempty,url"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=0"`
}

func (uv *UpdateVideo) Validate(validate *validator.Validate) error {
	return validate.Struct(uv)
}

func (uv UpdateVideo) apply(v Video) Video {
	if uv.Title != nil {
		v.Title = core.CleanString(*uv.Title)
	}
	if uv.Description != nil {
		v.Description = *uv.Description
	}
	if uv.URL != nil {
		v.URL = core.CleanString(*uv.URL)
	}
	if uv.Duration != nil {
		v.Duration = *uv.Duration
	}
	return v
}
