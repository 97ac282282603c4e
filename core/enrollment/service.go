package enrollment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
)

var (
	// errors
	ErrNotFound        = &core.NotFoundError{Resource: "enrollment"}
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")

	errNotStudent = "user is not a student"
)

type (
	Repository interface {
		// CreateEnrollment returns ErrAlreadyEnrolled when the student already follows the course.
		CreateEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Enrollment, error)
		GetEnrollment(ctx context.Context, id int64, exec ...core.DBExecutor) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, id int64, exec ...core.DBExecutor) error
		CountEnrollments(ctx context.Context, exec ...core.DBExecutor) (int, error)
		// AverageProgress is the mean progress of every enrollment, 0 when there is none.
		AverageProgress(ctx context.Context, exec ...core.DBExecutor) (float64, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id int64) (user.User, error)
	}

	CourseGetter interface {
		GetCourse(ctx context.Context, id int64, exec ...core.DBExecutor) (course.Course, error)
	}

	Service struct {
		repo    Repository
		users   UserGetter
		courses CourseGetter
	}
)

func NewService(repo Repository, users UserGetter, courses CourseGetter) *Service {
	return &Service{repo: repo, users: users, courses: courses}
}

func (svc *Service) checkRefs(ctx context.Context, e Enrollment) error {
	usr, err := svc.users.GetByID(ctx, e.StudentID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.InvalidPKError("student", e.StudentID)
		}
		return errors.Wrap(err, "finding student")
	}
	if !usr.IsStudent() {
		return core.NewValidationError(errors.New(errNotStudent), core.FieldError{Field: "student", Error: errNotStudent})
	}
	if _, err = svc.courses.GetCourse(ctx, e.CourseID); err != nil {
		if core.IsNotFound(err) {
			return core.InvalidPKError("course", e.CourseID)
		}
		return errors.Wrap(err, "finding course")
	}
	return nil
}

func (svc *Service) trapAlreadyEnrolled(err error) error {
	if errors.Cause(err) == ErrAlreadyEnrolled {
		return core.NewValidationError(ErrAlreadyEnrolled, core.FieldError{Field: "course", Error: ErrAlreadyEnrolled.Error()})
	}
	return err
}

func (svc *Service) Create(ctx context.Context, ne NewEnrollment) (Enrollment, error) {
	e := Enrollment{
		StudentID:  ne.Student,
		CourseID:   ne.Course,
		Progress:   ne.Progress,
		EnrolledAt: time.Now().UTC(),
	}
	if err := svc.checkRefs(ctx, e); err != nil {
		return Enrollment{}, err
	}
	e, err := svc.repo.CreateEnrollment(ctx, e)
	if err != nil {
		return Enrollment{}, svc.trapAlreadyEnrolled(errors.Wrap(err, "creating enrollment"))
	}
	return e, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id int64) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int64, ue UpdateEnrollment) (Enrollment, error) {
	orig, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	e := ue.apply(orig)
	if e.StudentID != orig.StudentID || e.CourseID != orig.CourseID {
		if err = svc.checkRefs(ctx, e); err != nil {
			return Enrollment{}, err
		}
	}
	e, err = svc.repo.UpdateEnrollment(ctx, e)
	if err != nil {
		return Enrollment{}, svc.trapAlreadyEnrolled(errors.Wrap(err, "updating enrollment"))
	}
	return e, nil
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteEnrollment(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountEnrollments(ctx)
}

func (svc *Service) AverageProgress(ctx context.Context) (float64, error) {
	return svc.repo.AverageProgress(ctx)
}
