package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
)

type assessmentRepository struct {
	baseRepository
}

var _ assessment.Repository = (*assessmentRepository)(nil)

func NewAssessmentRepository(db *sqlx.DB) assessment.Repository {
	return &assessmentRepository{baseRepository{db: db}}
}

func (repo assessmentRepository) selectAssessments() sq.SelectBuilder {
	return psql.Select(
		"a.id", "a.course_id", "c.title AS course_title",
		"a.title", "a.description", "a.due_date", "a.created_at",
	).
		From("assessments a").
		Join("courses c ON c.id = a.course_id")
}

func (repo assessmentRepository) selectSubmissions() sq.SelectBuilder {
	return psql.Select(
		"s.id", "s.student_id", "u.email AS student_email",
		"s.assessment_id", "a.title AS assessment_title",
		"s.content", "s.score", "s.submitted_at",
	).
		From("submissions s").
		Join("users u ON u.id = s.student_id").
		Join("assessments a ON a.id = s.assessment_id")
}

func (repo assessmentRepository) CreateAssessment(ctx context.Context, a assessment.Assessment, exec ...core.DBExecutor) (assessment.Assessment, error) {
	q := psql.Insert("assessments").
		Columns("course_id", "title", "description", "due_date", "created_at").
		Values(a.CourseID, a.Title, a.Description, a.DueDate, a.CreatedAt)
	id, err := repo.insert(ctx, exec, q)
	if err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "inserting assessment")
	}
	return repo.GetAssessment(ctx, id, exec...)
}

func (repo assessmentRepository) QueryAssessments(ctx context.Context, filter assessment.QueryFilter, exec ...core.DBExecutor) ([]assessment.Assessment, error) {
	q := repo.selectAssessments().OrderBy("a.id")
	if filter.CourseID != 0 {
		q = q.Where(sq.Eq{"a.course_id": filter.CourseID})
	}
	assessments := make([]assessment.Assessment, 0)
	if err := repo.selectAll(ctx, exec, &assessments, q); err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	return assessments, nil
}

func (repo assessmentRepository) GetAssessment(ctx context.Context, id int64, exec ...core.DBExecutor) (assessment.Assessment, error) {
	var a assessment.Assessment
	if err := repo.get(ctx, exec, &a, repo.selectAssessments().Where(sq.Eq{"a.id": id})); err != nil {
		return assessment.Assessment{}, trapNoRowsErr(err, assessment.ErrNotFound, "getting assessment")
	}
	return a, nil
}

func (repo assessmentRepository) UpdateAssessment(ctx context.Context, a assessment.Assessment, exec ...core.DBExecutor) (assessment.Assessment, error) {
	q := psql.Update("assessments").
		SetMap(map[string]interface{}{
			"course_id":   a.CourseID,
			"title":       a.Title,
			"description": a.Description,
			"due_date":    a.DueDate,
		}).
		Where(sq.Eq{"id": a.ID})
	res, err := repo.execute(ctx, exec, q)
	if err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "updating assessment")
	}
	if err = checkAffected(res, assessment.ErrNotFound); err != nil {
		return assessment.Assessment{}, err
	}
	return repo.GetAssessment(ctx, a.ID, exec...)
}

func (repo assessmentRepository) DeleteAssessment(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	return repo.deleteByID(ctx, exec, "assessments", id, assessment.ErrNotFound)
}

func (repo assessmentRepository) CreateSubmission(ctx context.Context, s assessment.Submission, exec ...core.DBExecutor) (assessment.Submission, error) {
	q := psql.Insert("submissions").
		Columns("student_id", "assessment_id", "content", "score", "submitted_at").
		Values(s.StudentID, s.AssessmentID, s.Content, s.Score, s.SubmittedAt)
	id, err := repo.insert(ctx, exec, q)
	if err != nil {
		return assessment.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return repo.GetSubmission(ctx, id, exec...)
}

func (repo assessmentRepository) QuerySubmissions(ctx context.Context, filter assessment.SubmissionFilter, exec ...core.DBExecutor) ([]assessment.Submission, error) {
	q := repo.selectSubmissions().OrderBy("s.id")
	if filter.AssessmentID != 0 {
		q = q.Where(sq.Eq{"s.assessment_id": filter.AssessmentID})
	}
	if filter.StudentID != 0 {
		q = q.Where(sq.Eq{"s.student_id": filter.StudentID})
	}
	submissions := make([]assessment.Submission, 0)
	if err := repo.selectAll(ctx, exec, &submissions, q); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return submissions, nil
}

func (repo assessmentRepository) GetSubmission(ctx context.Context, id int64, exec ...core.DBExecutor) (assessment.Submission, error) {
	var s assessment.Submission
	if err := repo.get(ctx, exec, &s, repo.selectSubmissions().Where(sq.Eq{"s.id": id})); err != nil {
		return assessment.Submission{}, trapNoRowsErr(err, assessment.ErrSubmissionNotFound, "getting submission")
	}
	return s, nil
}

func (repo assessmentRepository) UpdateSubmission(ctx context.Context, s assessment.Submission, exec ...core.DBExecutor) (assessment.Submission, error) {
	q := psql.Update("submissions").
		SetMap(map[string]interface{}{
			"student_id":    s.StudentID,
			"assessment_id": s.AssessmentID,
			"content":       s.Content,
			"score":         s.Score,
		}).
		Where(sq.Eq{"id": s.ID})
	res, err := repo.execute(ctx, exec, q)
	if err != nil {
		return assessment.Submission{}, errors.Wrap(err, "updating submission")
	}
	if err = checkAffected(res, assessment.ErrSubmissionNotFound); err != nil {
		return assessment.Submission{}, err
	}
	return repo.GetSubmission(ctx, s.ID, exec...)
}

func (repo assessmentRepository) DeleteSubmission(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	return repo.deleteByID(ctx, exec, "submissions", id, assessment.ErrSubmissionNotFound)
}
