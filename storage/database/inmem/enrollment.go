package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) fill(e enrollment.Enrollment) enrollment.Enrollment {
	e.StudentEmail = repo.db.userEmail(e.StudentID)
	e.CourseTitle = ""
	if c, ok := repo.db.courses[e.CourseID]; ok {
		e.CourseTitle = c.Title
	}
	return e
}

func (repo *enrollmentRepository) checkEnrolled(e enrollment.Enrollment) error {
	for _, other := range repo.db.enrollments {
		if other.ID != e.ID && other.StudentID == e.StudentID && other.CourseID == e.CourseID {
			return enrollment.ErrAlreadyEnrolled
		}
	}
	return nil
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, e enrollment.Enrollment, _ ...core.DBExecutor) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkEnrolled(e); err != nil {
		return enrollment.Enrollment{}, err
	}
	e.ID = repo.db.nextID("enrollments")
	e = repo.fill(e)
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) QueryEnrollments(_ context.Context, filter enrollment.QueryFilter, _ ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]enrollment.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if filter.Progress != nil && e.Progress != *filter.Progress {
			continue
		}
		if filter.CourseID != 0 && e.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != 0 && e.StudentID != filter.StudentID {
			continue
		}
		enrollments = append(enrollments, repo.fill(*e))
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].ID < enrollments[j].ID })
	return enrollments, nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, id int64, _ ...core.DBExecutor) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.enrollments[id]; ok {
		return repo.fill(*e), nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) UpdateEnrollment(_ context.Context, e enrollment.Enrollment, _ ...core.DBExecutor) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.enrollments[e.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	if err := repo.checkEnrolled(e); err != nil {
		return enrollment.Enrollment{}, err
	}
	e = repo.fill(e)
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(_ context.Context, id int64, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.enrollments[id]; !ok {
		return enrollment.ErrNotFound
	}
	delete(repo.db.enrollments, id)
	return nil
}

func (repo *enrollmentRepository) CountEnrollments(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.enrollments), nil
}

func (repo *enrollmentRepository) AverageProgress(_ context.Context, _ ...core.DBExecutor) (float64, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if len(repo.db.enrollments) == 0 {
		return 0, nil
	}
	var sum float64
	for _, e := range repo.db.enrollments {
		sum += e.Progress
	}
	return sum / float64(len(repo.db.enrollments)), nil
}
