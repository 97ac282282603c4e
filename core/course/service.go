package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/access"
	"github.com/trezcool/academia/core/user"
)

var (
	// errors
	ErrNotFound      = &core.NotFoundError{Resource: "course"}
	ErrVideoNotFound = &core.NotFoundError{Resource: "video"}

	errCourseMismatch = "does not match the course in the URL"
	errNotInstructor  = "user is not an instructor"
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		// QueryCourses returns courses matching filter, newest first unless ordering is given.
		QueryCourses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, id int64, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		// DeleteCourse also deletes the course's videos, assessments and enrollments.
		DeleteCourse(ctx context.Context, id int64, exec ...core.DBExecutor) error
		CountCourses(ctx context.Context, exec ...core.DBExecutor) (int, error)

		CreateVideo(ctx context.Context, v Video, exec ...core.DBExecutor) (Video, error)
		QueryVideos(ctx context.Context, courseIDs []int64, exec ...core.DBExecutor) ([]Video, error)
		GetVideo(ctx context.Context, id int64, exec ...core.DBExecutor) (Video, error)
		UpdateVideo(ctx context.Context, v Video, exec ...core.DBExecutor) (Video, error)
		DeleteVideo(ctx context.Context, id int64, exec ...core.DBExecutor) error
	}

	// UserGetter resolves the users referenced by courses.
	UserGetter interface {
		GetByID(ctx context.Context, id int64) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserGetter
	}
)

func NewService(repo Repository, users UserGetter) *Service {
	return &Service{repo: repo, users: users}
}

func (svc *Service) checkInstructor(ctx context.Context, id int64) error {
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.InvalidPKError("instructor", id)
		}
		return errors.Wrap(err, "finding instructor")
	}
	if !usr.IsInstructor() {
		return core.NewValidationError(errors.New(errNotInstructor), core.FieldError{Field: "instructor", Error: errNotInstructor})
	}
	return nil
}

func (svc *Service) withVideos(ctx context.Context, courses ...Course) ([]Course, error) {
	if len(courses) == 0 {
		return courses, nil
	}
	ids := make([]int64, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	videos, err := svc.repo.QueryVideos(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying videos")
	}
	byCourse := make(map[int64][]Video, len(courses))
	for _, v := range videos {
		byCourse[v.CourseID] = append(byCourse[v.CourseID], v)
	}
	for i := range courses {
		courses[i].Videos = byCourse[courses[i].ID]
		if courses[i].Videos == nil {
			courses[i].Videos = []Video{}
		}
	}
	return courses, nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if err := svc.checkInstructor(ctx, nc.Instructor); err != nil {
		return Course{}, err
	}
	c, err := svc.repo.CreateCourse(ctx, Course{
		InstructorID: nc.Instructor,
		Title:        nc.Title,
		Description:  nc.Description,
		Difficulty:   nc.Difficulty,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	c.Videos = []Video{}
	return c, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	courses, err := svc.repo.QueryCourses(ctx, filter, core.CleanOrderings(ordering, OrderingFields...))
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return svc.withVideos(ctx, courses...)
}

func (svc *Service) Get(ctx context.Context, id int64) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	courses, err := svc.withVideos(ctx, c)
	if err != nil {
		return Course{}, err
	}
	return courses[0], nil
}

func (svc *Service) Update(ctx context.Context, id int64, uc UpdateCourse) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if uc.Instructor != nil && *uc.Instructor != c.InstructorID {
		if err = svc.checkInstructor(ctx, *uc.Instructor); err != nil {
			return Course{}, err
		}
	}
	if _, err = svc.repo.UpdateCourse(ctx, uc.apply(c)); err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	return svc.Get(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountCourses(ctx)
}

// instructedCourse returns the course with the given ID when usr is its instructor.
func (svc *Service) instructedCourse(ctx context.Context, usr user.User, courseID int64) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if !access.IsCourseInstructor(usr, c.InstructorID) {
		return Course{}, core.ErrPermissionDenied
	}
	return c, nil
}

func (svc *Service) QueryVideos(ctx context.Context, courseID int64) ([]Video, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	videos, err := svc.repo.QueryVideos(ctx, []int64{courseID})
	if err != nil {
		return nil, errors.Wrap(err, "querying videos")
	}
	return videos, nil
}

func (svc *Service) GetVideo(ctx context.Context, courseID, id int64) (Video, error) {
	v, err := svc.repo.GetVideo(ctx, id)
	if err != nil {
		return Video{}, err
	}
	if v.CourseID != courseID {
		return Video{}, ErrVideoNotFound
	}
	return v, nil
}

// CreateVideo adds a video to the course of the URL. Only the course's instructor may do so.
func (svc *Service) CreateVideo(ctx context.Context, usr user.User, courseID int64, nv NewVideo) (Video, error) {
	if nv.Course != courseID {
		return Video{}, core.NewValidationError(errors.New(errCourseMismatch), core.FieldError{Field: "course", Error: errCourseMismatch})
	}
	if _, err := svc.instructedCourse(ctx, usr, nv.Course); err != nil {
		return Video{}, err
	}
	v, err := svc.repo.CreateVideo(ctx, Video{
		CourseID:    nv.Course,
		Title:       nv.Title,
		Description: nv.Description,
		URL:         nv.URL,
		Duration:    nv.Duration,
		CreatedAt:   time.Now().UTC(),
	})
	return v, errors.Wrap(err, "creating video")
}

// UpdateVideo modifies a video. Only the instructor of the video's course may do so.
func (svc *Service) UpdateVideo(ctx context.Context, usr user.User, courseID, id int64, uv UpdateVideo) (Video, error) {
	v, err := svc.GetVideo(ctx, courseID, id)
	if err != nil {
		return Video{}, err
	}
	if _, err = svc.instructedCourse(ctx, usr, v.CourseID); err != nil {
		return Video{}, err
	}
	v, err = svc.repo.UpdateVideo(ctx, uv.apply(v))
	return v, errors.Wrap(err, "updating video")
}

// DeleteVideo removes a video. Only the instructor of the video's course may do so.
func (svc *Service) DeleteVideo(ctx context.Context, usr user.User, courseID, id int64) error {
	v, err := svc.GetVideo(ctx, courseID, id)
	if err != nil {
		return err
	}
	if _, err = svc.instructedCourse(ctx, usr, v.CourseID); err != nil {
		return err
	}
	return svc.repo.DeleteVideo(ctx, id)
}
