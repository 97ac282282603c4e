// Package access decides which role may perform which action on which resource.
// Role capabilities are a static table evaluated at authorization time.
package access

import (
	"net/http"

	"github.com/trezcool/academia/core/user"
)

type (
	Resource string
	Action   string
)

// Resources
const (
	Course       Resource = "course"
	Video        Resource = "video"
	Enrollment   Resource = "enrollment"
	Assessment   Resource = "assessment"
	Submission   Resource = "submission"
	Sponsorship  Resource = "sponsorship"
	Payment      Resource = "payment"
	Notification Resource = "notification"
	User         Resource = "user"
)

// Actions
const (
	View   Action = "view"
	Add    Action = "add"
	Change Action = "change"
	Delete Action = "delete"
)

var (
	AllResources = []Resource{Course, Video, Enrollment, Assessment, Submission, Sponsorship, Payment, Notification, User}
	AllActions   = []Action{View, Add, Change, Delete}

	readOnly = []Action{View}
	readAdd  = []Action{View, Add}
	readEdit = []Action{View, Change}
	// own notifications are object-checked by the notification service
	ownOnly = []Action{View, Change, Delete}

	rolePermissions = map[user.Role]map[Resource][]Action{
		user.RoleAdmin: allPermissions(),
		user.RoleInstructor: {
			Course:       AllActions,
			Video:        AllActions,
			Assessment:   AllActions,
			Enrollment:   readOnly,
			Submission:   readEdit,
			Notification: ownOnly,
		},
		user.RoleStudent: {
			Course:       readOnly,
			Video:        readOnly,
			Enrollment:   readAdd,
			Assessment:   readOnly,
			Submission:   readAdd,
			Notification: ownOnly,
		},
		user.RoleSponsor: {
			Course:       readOnly,
			Enrollment:   readOnly,
			Sponsorship:  readAdd,
			Payment:      readAdd,
			Notification: ownOnly,
		},
	}
)

func allPermissions() map[Resource][]Action {
	perms := make(map[Resource][]Action, len(AllResources))
	for _, res := range AllResources {
		perms[res] = AllActions
	}
	return perms
}

// ActionFor maps an HTTP method to the Action it requires.
// required is false for methods that need no permission (OPTIONS, HEAD).
func ActionFor(method string) (act Action, required bool) {
	switch method {
	case http.MethodGet:
		return View, true
	case http.MethodPost:
		return Add, true
	case http.MethodPut, http.MethodPatch:
		return Change, true
	case http.MethodDelete:
		return Delete, true
	default:
		return "", false
	}
}

// Allowed reports whether role grants act on res.
func Allowed(role user.Role, res Resource, act Action) bool {
	for _, a := range rolePermissions[role][res] {
		if a == act {
			return true
		}
	}
	return false
}

// AllowedMethod reports whether usr may call method on res.
func AllowedMethod(usr user.User, res Resource, method string) bool {
	act, required := ActionFor(method)
	if !required {
		return true
	}
	return Allowed(usr.Role, res, act)
}

// IsCourseInstructor is the object-level check guarding video mutations.
func IsCourseInstructor(usr user.User, courseInstructorID int64) bool {
	return usr.ID != 0 && usr.IsInstructor() && usr.ID == courseInstructorID
}
