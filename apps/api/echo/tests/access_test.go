package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/tests"
)

func Test_rolePermissions(t *testing.T) {
	e := setup(t)

	admin := testutil.CreateUser(t, e.usrRepo, "admin@test.cd", "admin", user.RoleAdmin)
	instructor := testutil.CreateUser(t, e.usrRepo, "instructor@test.cd", "instructor", user.RoleInstructor)
	student := testutil.CreateUser(t, e.usrRepo, "student@test.cd", "student", user.RoleStudent)
	sponsor := testutil.CreateUser(t, e.usrRepo, "sponsor@test.cd", "sponsor", user.RoleSponsor)
	c := testutil.CreateCourse(t, e.courseRepo, instructor, "Go", course.Beginner)
	enr := testutil.Enroll(t, e.enrollRepo, student, c, 10)

	tokens := map[user.Role]string{
		user.RoleAdmin:      e.token(t, admin),
		user.RoleInstructor: e.token(t, instructor),
		user.RoleStudent:    e.token(t, student),
		user.RoleSponsor:    e.token(t, sponsor),
	}
	forbidden := marshallObj(t, errForbidden)

	type check struct {
		method, path string
		allowed      []user.Role
	}
	checks := []check{
		{http.MethodGet, "/api/course", []user.Role{user.RoleAdmin, user.RoleInstructor, user.RoleStudent, user.RoleSponsor}},
		{http.MethodGet, "/api/enrollment", []user.Role{user.RoleAdmin, user.RoleInstructor, user.RoleStudent, user.RoleSponsor}},
		{http.MethodGet, "/api/assessment", []user.Role{user.RoleAdmin, user.RoleInstructor, user.RoleStudent}},
		{http.MethodGet, "/api/submission", []user.Role{user.RoleAdmin, user.RoleInstructor, user.RoleStudent}},
		{http.MethodGet, "/api/sponsorship", []user.Role{user.RoleAdmin, user.RoleSponsor}},
		{http.MethodGet, "/api/payment", []user.Role{user.RoleAdmin, user.RoleSponsor}},
		{http.MethodGet, "/api/notification", []user.Role{user.RoleAdmin, user.RoleInstructor, user.RoleStudent, user.RoleSponsor}},
		{http.MethodGet, fmt.Sprintf("/api/course/%d/videos", c.ID), []user.Role{user.RoleAdmin, user.RoleInstructor, user.RoleStudent}},
		{http.MethodGet, "/admin_dashboard", []user.Role{user.RoleAdmin}},
		{http.MethodGet, "/sponsor_dashboard", []user.Role{user.RoleSponsor}},
	}

	for _, chk := range checks {
		for _, role := range user.AllRoles {
			allowed := false
			for _, r := range chk.allowed {
				allowed = allowed || r == role
			}
			t.Run(fmt.Sprintf("%s %s as %s", chk.method, chk.path, role), func(t *testing.T) {
				rec := e.serve(chk.method, chk.path, tokens[role])
				if allowed {
					assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				} else {
					checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: forbidden}, rec)
				}
			})
		}
	}

	// denials happen before anything is read or written
	tests := []httpTest{
		{
			name: "student cannot create courses", method: http.MethodPost, path: "/api/course", token: tokens[user.RoleStudent],
			body:     marshallObj(t, course.NewCourse{Instructor: instructor.ID, Title: "Rust", Description: "Rust", Difficulty: course.Advanced}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "student cannot delete enrollments", method: http.MethodDelete, path: fmt.Sprintf("/api/enrollment/%d", enr.ID),
			token: tokens[user.RoleStudent], wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "denied even if missing", method: http.MethodDelete, path: "/api/enrollment/9999",
			token: tokens[user.RoleSponsor], wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "sponsor cannot grade", method: http.MethodPatch, path: "/api/submission/1",
			token: tokens[user.RoleSponsor], body: []byte(`{"score": 90}`), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "instructor cannot fund", method: http.MethodPost, path: "/api/sponsorship",
			token: tokens[user.RoleInstructor], body: []byte(`{}`), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{name: "auth required", path: "/api/course", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
	}
	runHTTPTests(t, e, tests)

	courses, err := e.courseRepo.CountCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, courses)
	_, err = e.enrollRepo.GetEnrollment(context.Background(), enr.ID)
	assert.NoError(t, err)
}

func Test_videoAPI_instructorOnly(t *testing.T) {
	e := setup(t)

	owner := testutil.CreateUser(t, e.usrRepo, "owner@test.cd", "owner", user.RoleInstructor)
	other := testutil.CreateUser(t, e.usrRepo, "other@test.cd", "other", user.RoleInstructor)
	admin := testutil.CreateUser(t, e.usrRepo, "admin@test.cd", "admin", user.RoleAdmin)
	student := testutil.CreateUser(t, e.usrRepo, "student@test.cd", "student", user.RoleStudent)
	c := testutil.CreateCourse(t, e.courseRepo, owner, "Go", course.Beginner)
	otherCourse := testutil.CreateCourse(t, e.courseRepo, other, "Rust", course.Advanced)
	video := testutil.CreateVideo(t, e.courseRepo, c, "intro")

	ownerToken := e.token(t, owner)
	otherToken := e.token(t, other)
	forbidden := marshallObj(t, errForbidden)

	videosPath := fmt.Sprintf("/api/course/%d/videos", c.ID)
	videoPath := fmt.Sprintf("%s/%d", videosPath, video.ID)
	newVideo := func(courseID int64) []byte {
		return marshallObj(t, course.NewVideo{Course: courseID, Title: "Basics", URL: "https://videos.test/basics", Duration: 120})
	}

	tests := []httpTest{
		{name: "other instructor cannot add", method: http.MethodPost, path: videosPath, token: otherToken, body: newVideo(c.ID), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "admin is not the instructor", method: http.MethodPost, path: videosPath, token: e.token(t, admin), body: newVideo(c.ID), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "student cannot add", method: http.MethodPost, path: videosPath, token: e.token(t, student), body: newVideo(c.ID), wantCode: http.StatusForbidden, wantData: forbidden},
		{
			name: "course must match the URL", method: http.MethodPost, path: videosPath, token: ownerToken, body: newVideo(otherCourse.ID),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"course": "does not match the course in the URL"}),
		},
		{name: "other instructor cannot update", method: http.MethodPut, path: videoPath, token: otherToken, body: newVideo(c.ID), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "other instructor cannot patch", method: http.MethodPatch, path: videoPath, token: otherToken, body: []byte(`{"title": "hacked"}`), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "other instructor cannot delete", method: http.MethodDelete, path: videoPath, token: otherToken, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "student can read", path: videoPath, token: e.token(t, student), wantCode: http.StatusOK, wantData: marshallObj(t, video)},
		{name: "wrong course", path: fmt.Sprintf("/api/course/%d/videos/%d", otherCourse.ID, video.ID), token: ownerToken, wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound)},
		{name: "owner can patch", method: http.MethodPatch, path: videoPath, token: ownerToken, body: []byte(`{"title": "Intro"}`), wantCode: http.StatusOK},
		{name: "owner can add", method: http.MethodPost, path: videosPath + "/", token: ownerToken, body: newVideo(c.ID), wantCode: http.StatusCreated},
		{name: "owner can delete", method: http.MethodDelete, path: videoPath, token: ownerToken, wantCode: http.StatusNoContent},
	}
	runHTTPTests(t, e, tests)

	videos, err := e.courseRepo.QueryVideos(context.Background(), []int64{c.ID})
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "Basics", videos[0].Title)
}
