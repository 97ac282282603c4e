package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/user"
)

func TestCourseDeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := Open()
	users := NewUserRepository(db)
	courses := NewCourseRepository(db)
	enrollments := NewEnrollmentRepository(db)
	assessments := NewAssessmentRepository(db)

	inst, err := users.CreateUser(ctx, user.User{Email: "inst@example.com", Role: user.RoleInstructor})
	require.NoError(t, err)
	stud, err := users.CreateUser(ctx, user.User{Email: "stud@example.com", Role: user.RoleStudent})
	require.NoError(t, err)

	c, err := courses.CreateCourse(ctx, course.Course{InstructorID: inst.ID, Title: "Go", Difficulty: course.Beginner})
	require.NoError(t, err)
	assert.Equal(t, "inst@example.com", c.InstructorEmail)

	_, err = courses.CreateVideo(ctx, course.Video{CourseID: c.ID, Title: "Intro", URL: "https://example.com/v"})
	require.NoError(t, err)
	e, err := enrollments.CreateEnrollment(ctx, enrollment.Enrollment{StudentID: stud.ID, CourseID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, "Go", e.CourseTitle)
	a, err := assessments.CreateAssessment(ctx, assessment.Assessment{CourseID: c.ID, Title: "Quiz", DueDate: core.NewDate(2030, time.May, 1)})
	require.NoError(t, err)
	_, err = assessments.CreateSubmission(ctx, assessment.Submission{StudentID: stud.ID, AssessmentID: a.ID})
	require.NoError(t, err)

	require.NoError(t, courses.DeleteCourse(ctx, c.ID))

	videos, _ := courses.QueryVideos(ctx, []int64{c.ID})
	assert.Empty(t, videos)
	n, _ := enrollments.CountEnrollments(ctx)
	assert.Zero(t, n)
	subs, _ := assessments.QuerySubmissions(ctx, assessment.SubmissionFilter{})
	assert.Empty(t, subs)
	_, err = assessments.GetAssessment(ctx, a.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	db := Open()
	users := NewUserRepository(db)
	enrollments := NewEnrollmentRepository(db)

	usr, err := users.CreateUser(ctx, user.User{Username: "alice", Email: "alice@example.com", Role: user.RoleStudent})
	require.NoError(t, err)

	_, err = users.CreateUser(ctx, user.User{Email: "alice@example.com", Role: user.RoleStudent})
	assert.Equal(t, user.ErrEmailExists, err)
	assert.Equal(t, user.ErrUsernameExists, users.CheckUniqueness(ctx, "alice", "other@example.com"))
	assert.NoError(t, users.CheckUniqueness(ctx, "", "other@example.com"))

	_, err = users.CreateToken(ctx, user.Token{Key: "k1", UserID: usr.ID})
	require.NoError(t, err)
	_, err = users.CreateToken(ctx, user.Token{Key: "k2", UserID: usr.ID})
	assert.Equal(t, user.ErrTokenExists, err)

	_, err = enrollments.CreateEnrollment(ctx, enrollment.Enrollment{StudentID: usr.ID, CourseID: 1})
	require.NoError(t, err)
	_, err = enrollments.CreateEnrollment(ctx, enrollment.Enrollment{StudentID: usr.ID, CourseID: 1})
	assert.Equal(t, enrollment.ErrAlreadyEnrolled, err)
}

func TestQueryCoursesOrdering(t *testing.T) {
	ctx := context.Background()
	db := Open()
	users := NewUserRepository(db)
	courses := NewCourseRepository(db)

	inst, _ := users.CreateUser(ctx, user.User{Username: "prof_x", Email: "x@example.com", Role: user.RoleInstructor})
	now := time.Now().UTC()
	for i, title := range []string{"Beta", "Alpha", "Gamma"} {
		_, err := courses.CreateCourse(ctx, course.Course{InstructorID: inst.ID, Title: title, Difficulty: course.Advanced, CreatedAt: now.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	titles := func(cs []course.Course) []string {
		res := make([]string, 0, len(cs))
		for _, c := range cs {
			res = append(res, c.Title)
		}
		return res
	}

	got, err := courses.QueryCourses(ctx, course.QueryFilter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma", "Alpha", "Beta"}, titles(got))

	got, err = courses.QueryCourses(ctx, course.QueryFilter{}, []core.DBOrdering{{Field: "title", Ascending: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, titles(got))

	got, err = courses.QueryCourses(ctx, course.QueryFilter{Search: "PROF"}, nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = courses.QueryCourses(ctx, course.QueryFilter{Search: "alp"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, titles(got))
}
