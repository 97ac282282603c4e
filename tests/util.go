package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/user"
)

// Password satisfies the password policy of user.NewUser.
const Password = "Str0ng!Pass"

func CreateUser(t *testing.T, repo user.Repository, email, uname string, role user.Role, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
	}
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, instructor user.User, title string, difficulty course.Difficulty, createdAt ...time.Time) course.Course {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	c, err := repo.CreateCourse(context.Background(), course.Course{
		InstructorID: instructor.ID,
		Title:        title,
		Description:  title + " description",
		Difficulty:   difficulty,
		CreatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	c.Videos = []course.Video{}
	return c
}

func CreateVideo(t *testing.T, repo course.Repository, c course.Course, title string) course.Video {
	t.Helper()

	v, err := repo.CreateVideo(context.Background(), course.Video{
		CourseID:  c.ID,
		Title:     title,
		URL:       "https://videos.test/" + title,
		Duration:  60,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateVideo() failed: %v", err)
	}
	return v
}

func Enroll(t *testing.T, repo enrollment.Repository, student user.User, c course.Course, progress float64) enrollment.Enrollment {
	t.Helper()

	e, err := repo.CreateEnrollment(context.Background(), enrollment.Enrollment{
		StudentID:  student.ID,
		CourseID:   c.ID,
		Progress:   progress,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return e
}
