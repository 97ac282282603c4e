package assessment

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
	ErrNotFound           = &core.NotFoundError{Resource: "assessment"}
	ErrSubmissionNotFound = &core.NotFoundError{Resource: "submission"}

	errNotStudent = "user is not a student"
)

type (
	Repository interface {
		CreateAssessment(ctx context.Context, a Assessment, exec ...core.DBExecutor) (Assessment, error)
		QueryAssessments(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Assessment, error)
		GetAssessment(ctx context.Context, id int64, exec ...core.DBExecutor) (Assessment, error)
		UpdateAssessment(ctx context.Context, a Assessment, exec ...core.DBExecutor) (Assessment, error)
		// DeleteAssessment also deletes the assessment's submissions.
		DeleteAssessment(ctx context.Context, id int64, exec ...core.DBExecutor) error

		CreateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
		QuerySubmissions(ctx context.Context, filter SubmissionFilter, exec ...core.DBExecutor) ([]Submission, error)
		GetSubmission(ctx context.Context, id int64, exec ...core.DBExecutor) (Submission, error)
		UpdateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
		DeleteSubmission(ctx context.Context, id int64, exec ...core.DBExecutor) error
	}

	// Notifier fans a new assessment out to the students of its course.
	Notifier interface {
		// AssessmentCreated persists the notifications through exec and returns the emails to send.
		AssessmentCreated(ctx context.Context, a Assessment, exec core.DBExecutor) (core.Outbox, error)
		Deliver(ctx context.Context, outbox core.Outbox) error
	}

	UserGetter interface {
		GetByID(ctx context.Context, id int64) (user.User, error)
	}

	CourseGetter interface {
		GetCourse(ctx context.Context, id int64, exec ...core.DBExecutor) (course.Course, error)
	}

	Service struct {
		tx       core.Transactor
		repo     Repository
		users    UserGetter
		courses  CourseGetter
		notifier Notifier
	}
)

func NewService(tx core.Transactor, repo Repository, users UserGetter, courses CourseGetter, notifier Notifier) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		users:    users,
		courses:  courses,
		notifier: notifier,
	}
}

func (svc *Service) checkCourse(ctx context.Context, id int64) error {
	if _, err := svc.courses.GetCourse(ctx, id); err != nil {
		if core.IsNotFound(err) {
			return core.InvalidPKError("course", id)
		}
		return errors.Wrap(err, "finding course")
	}
	return nil
}

// Create persists the assessment together with a notification for every student of its course,
// then emails those students. A non-nil error with a non-zero Assessment means the assessment was
// saved but the emails could not all be sent.
func (svc *Service) Create(ctx context.Context, na NewAssessment) (Assessment, error) {
	if err := svc.checkCourse(ctx, na.Course); err != nil {
		return Assessment{}, err
	}

	var a Assessment
	var outbox core.Outbox
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		var err error
		a, err = svc.repo.CreateAssessment(ctx, Assessment{
			CourseID:    na.Course,
			Title:       na.Title,
			Description: na.Description,
			DueDate:     na.DueDate,
			CreatedAt:   time.Now().UTC(),
		}, exec)
		if err != nil {
			return errors.Wrap(err, "creating assessment")
		}
		outbox, err = svc.notifier.AssessmentCreated(ctx, a, exec)
		return errors.Wrap(err, "notifying students")
	})
	if err != nil {
		return Assessment{}, err
	}
	return a, svc.notifier.Deliver(ctx, outbox)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Assessment, error) {
	return svc.repo.QueryAssessments(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id int64) (Assessment, error) {
	return svc.repo.GetAssessment(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int64, ua UpdateAssessment) (Assessment, error) {
	a, err := svc.repo.GetAssessment(ctx, id)
	if err != nil {
		return Assessment{}, err
	}
	if ua.Course != nil && *ua.Course != a.CourseID {
		if err = svc.checkCourse(ctx, *ua.Course); err != nil {
			return Assessment{}, err
		}
	}
	a, err = svc.repo.UpdateAssessment(ctx, ua.apply(a))
	return a, errors.Wrap(err, "updating assessment")
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteAssessment(ctx, id)
}

func (svc *Service) checkSubmissionRefs(ctx context.Context, s Submission) error {
	usr, err := svc.users.GetByID(ctx, s.StudentID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.InvalidPKError("student", s.StudentID)
		}
		return errors.Wrap(err, "finding student")
	}
	if !usr.IsStudent() {
		return core.NewValidationError(errors.New(errNotStudent), core.FieldError{Field: "student", Error: errNotStudent})
	}
	if _, err = svc.repo.GetAssessment(ctx, s.AssessmentID); err != nil {
		if core.IsNotFound(err) {
			return core.InvalidPKError("assessment", s.AssessmentID)
		}
		return errors.Wrap(err, "finding assessment")
	}
	return nil
}

func (svc *Service) CreateSubmission(ctx context.Context, ns NewSubmission) (Submission, error) {
	s := Submission{
		StudentID:    ns.Student,
		AssessmentID: ns.Assessment,
		Content:      ns.Content,
		Score:        ns.Score,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := svc.checkSubmissionRefs(ctx, s); err != nil {
		return Submission{}, err
	}
	s, err := svc.repo.CreateSubmission(ctx, s)
	return s, errors.Wrap(err, "creating submission")
}

func (svc *Service) QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, filter)
}

func (svc *Service) GetSubmission(ctx context.Context, id int64) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}

func (svc *Service) UpdateSubmission(ctx context.Context, id int64, us UpdateSubmission) (Submission, error) {
	orig, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	s := us.apply(orig)
	if s.StudentID != orig.StudentID || s.AssessmentID != orig.AssessmentID {
		if err = svc.checkSubmissionRefs(ctx, s); err != nil {
			return Submission{}, err
		}
	}
	s, err = svc.repo.UpdateSubmission(ctx, s)
	return s, errors.Wrap(err, "updating submission")
}

func (svc *Service) DeleteSubmission(ctx context.Context, id int64) error {
	return svc.repo.DeleteSubmission(ctx, id)
}
