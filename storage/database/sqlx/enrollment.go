package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/enrollment"
)

var enrollmentConstraints = map[string]error{
	"enrollments_student_id_course_id_key": enrollment.ErrAlreadyEnrolled,
}

type enrollmentRepository struct {
	baseRepository
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{baseRepository{db: db}}
}

func (repo enrollmentRepository) selectEnrollments() sq.SelectBuilder {
	return psql.Select(
		"e.id", "e.student_id", "u.email AS student_email",
		"e.course_id", "c.title AS course_title", "e.progress", "e.enrolled_at",
	).
		From("enrollments e").
		Join("users u ON u.id = e.student_id").
		Join("courses c ON c.id = e.course_id")
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	q := psql.Insert("enrollments").
		Columns("student_id", "course_id", "progress", "enrolled_at").
		Values(e.StudentID, e.CourseID, e.Progress, e.EnrolledAt)
	id, err := repo.insert(ctx, exec, q)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(trapUniqueErr(err, enrollmentConstraints), "inserting enrollment")
	}
	return repo.GetEnrollment(ctx, id, exec...)
}

func (repo enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter, exec ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	q := repo.selectEnrollments().OrderBy("e.id")
	if filter.Progress != nil {
		q = q.Where(sq.Eq{"e.progress": *filter.Progress})
	}
	if filter.CourseID != 0 {
		q = q.Where(sq.Eq{"e.course_id": filter.CourseID})
	}
	if filter.StudentID != 0 {
		q = q.Where(sq.Eq{"e.student_id": filter.StudentID})
	}

	enrollments := make([]enrollment.Enrollment, 0)
	if err := repo.selectAll(ctx, exec, &enrollments, q); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return enrollments, nil
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, id int64, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	var e enrollment.Enrollment
	if err := repo.get(ctx, exec, &e, repo.selectEnrollments().Where(sq.Eq{"e.id": id})); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "getting enrollment")
	}
	return e, nil
}

func (repo enrollmentRepository) UpdateEnrollment(ctx context.Context, e enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	q := psql.Update("enrollments").
		SetMap(map[string]interface{}{
			"student_id": e.StudentID,
			"course_id":  e.CourseID,
			"progress":   e.Progress,
		}).
		Where(sq.Eq{"id": e.ID})
	res, err := repo.execute(ctx, exec, q)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(trapUniqueErr(err, enrollmentConstraints), "updating enrollment")
	}
	if err = checkAffected(res, enrollment.ErrNotFound); err != nil {
		return enrollment.Enrollment{}, err
	}
	return repo.GetEnrollment(ctx, e.ID, exec...)
}

func (repo enrollmentRepository) DeleteEnrollment(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	return repo.deleteByID(ctx, exec, "enrollments", id, enrollment.ErrNotFound)
}

func (repo enrollmentRepository) CountEnrollments(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	return repo.count(ctx, exec, "enrollments")
}

func (repo enrollmentRepository) AverageProgress(ctx context.Context, exec ...core.DBExecutor) (float64, error) {
	var avg float64
	err := repo.get(ctx, exec, &avg, psql.Select("COALESCE(AVG(progress), 0)").From("enrollments"))
	return avg, errors.Wrap(err, "averaging progress")
}
