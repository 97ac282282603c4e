package access

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/academia/core/user"
)

func TestActionFor(t *testing.T) {
	tests := []struct {
		method       string
		wantAct      Action
		wantRequired bool
	}{
		{method: http.MethodGet, wantAct: View, wantRequired: true},
		{method: http.MethodPost, wantAct: Add, wantRequired: true},
		{method: http.MethodPut, wantAct: Change, wantRequired: true},
		{method: http.MethodPatch, wantAct: Change, wantRequired: true},
		{method: http.MethodDelete, wantAct: Delete, wantRequired: true},
		{method: http.MethodOptions},
		{method: http.MethodHead},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			act, required := ActionFor(tt.method)
			assert.Equal(t, tt.wantAct, act)
			assert.Equal(t, tt.wantRequired, required)
		})
	}
}

func TestAllowed(t *testing.T) {
	t.Run("admin can do everything", func(t *testing.T) {
		for _, res := range AllResources {
			for _, act := range AllActions {
				assert.True(t, Allowed(user.RoleAdmin, res, act), "%s.%s", act, res)
			}
		}
	})

	tests := []struct {
		role user.Role
		res  Resource
		act  Action
		want bool
	}{
		{role: user.RoleInstructor, res: Course, act: Add, want: true},
		{role: user.RoleInstructor, res: Assessment, act: Delete, want: true},
		{role: user.RoleInstructor, res: Enrollment, act: Add},
		{role: user.RoleInstructor, res: Submission, act: Change, want: true},
		{role: user.RoleInstructor, res: Sponsorship, act: View},
		{role: user.RoleInstructor, res: User, act: Add},
		{role: user.RoleStudent, res: Course, act: View, want: true},
		{role: user.RoleStudent, res: Course, act: Add},
		{role: user.RoleStudent, res: Enrollment, act: Add, want: true},
		{role: user.RoleStudent, res: Submission, act: Add, want: true},
		{role: user.RoleStudent, res: Submission, act: Change},
		{role: user.RoleStudent, res: Assessment, act: Add},
		{role: user.RoleStudent, res: Video, act: Add},
		{role: user.RoleStudent, res: Payment, act: View},
		{role: user.RoleSponsor, res: Sponsorship, act: Add, want: true},
		{role: user.RoleSponsor, res: Sponsorship, act: Delete},
		{role: user.RoleSponsor, res: Payment, act: Add, want: true},
		{role: user.RoleSponsor, res: Notification, act: Change, want: true},
		{role: user.RoleSponsor, res: Notification, act: Delete, want: true},
		{role: user.RoleStudent, res: Notification, act: Delete, want: true},
		{role: user.RoleStudent, res: Notification, act: Add},
		{role: user.RoleSponsor, res: Course, act: Change},
		{role: user.Role("ghost"), res: Course, act: View},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"."+string(tt.act)+"."+string(tt.res), func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.role, tt.res, tt.act))
		})
	}
}

func TestAllowedMethod(t *testing.T) {
	student := user.User{ID: 1, Role: user.RoleStudent}

	assert.True(t, AllowedMethod(student, Course, http.MethodGet))
	assert.False(t, AllowedMethod(student, Course, http.MethodDelete))
	assert.True(t, AllowedMethod(student, Payment, http.MethodOptions), "OPTIONS needs no permission")
	assert.True(t, AllowedMethod(student, Payment, http.MethodHead), "HEAD needs no permission")
}

func TestIsCourseInstructor(t *testing.T) {
	owner := user.User{ID: 7, Role: user.RoleInstructor}
	other := user.User{ID: 8, Role: user.RoleInstructor}
	admin := user.User{ID: 1, Role: user.RoleAdmin}

	assert.True(t, IsCourseInstructor(owner, 7))
	assert.False(t, IsCourseInstructor(other, 7))
	assert.False(t, IsCourseInstructor(admin, 1), "only instructors own courses")
	assert.False(t, IsCourseInstructor(user.User{}, 0))
}
