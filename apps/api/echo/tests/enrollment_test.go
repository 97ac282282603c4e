package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/tests"
)

// the enrollment and assessment services look courses up straight from the store
var (
	_ enrollment.CourseGetter = course.Repository(nil)
	_ assessment.CourseGetter = course.Repository(nil)
)

func Test_enrollmentAPI_create(t *testing.T) {
	e := setup(t)

	instructor := testutil.CreateUser(t, e.usrRepo, "instructor@test.cd", "instructor", user.RoleInstructor)
	student := testutil.CreateUser(t, e.usrRepo, "student@test.cd", "student", user.RoleStudent)
	goCourse := testutil.CreateCourse(t, e.courseRepo, instructor, "Go", course.Beginner)
	token := e.token(t, student)

	body := func(studentID, courseID int64) []byte {
		return marshallObj(t, enrollment.NewEnrollment{Student: studentID, Course: courseID, Progress: 10})
	}

	tests := []httpTest{
		{
			name: "unknown course", method: http.MethodPost, path: "/api/enrollment", token: token, body: body(student.ID, 9999),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"course": `invalid pk "9999" - object does not exist`}),
		},
		{
			name: "not a student", method: http.MethodPost, path: "/api/enrollment", token: token, body: body(instructor.ID, goCourse.ID),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"student": "user is not a student"}),
		},
	}
	runHTTPTests(t, e, tests)

	t.Run("enroll", func(t *testing.T) {
		rec := e.serve(http.MethodPost, "/api/enrollment/", token, body(student.ID, goCourse.ID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got enrollment.Enrollment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Go", got.CourseTitle)
		assert.Equal(t, student.Email, got.StudentEmail)
		assert.Equal(t, 10.0, got.Progress)

		rec = e.serve(http.MethodPost, "/api/enrollment", token, body(student.ID, goCourse.ID))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"course": enrollment.ErrAlreadyEnrolled.Error()}),
		}, rec)
	})
}
