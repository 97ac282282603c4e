package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
)

type assessmentRepository struct {
	db *DB
}

var _ assessment.Repository = (*assessmentRepository)(nil)

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) fill(a assessment.Assessment) assessment.Assessment {
	a.CourseTitle = ""
	if c, ok := repo.db.courses[a.CourseID]; ok {
		a.CourseTitle = c.Title
	}
	return a
}

func (repo *assessmentRepository) fillSubmission(s assessment.Submission) assessment.Submission {
	s.StudentEmail = repo.db.userEmail(s.StudentID)
	s.AssessmentTitle = ""
	if a, ok := repo.db.assessments[s.AssessmentID]; ok {
		s.AssessmentTitle = a.Title
	}
	return s
}

func (repo *assessmentRepository) CreateAssessment(_ context.Context, a assessment.Assessment, _ ...core.DBExecutor) (assessment.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = repo.db.nextID("assessments")
	a = repo.fill(a)
	repo.db.assessments[a.ID] = &a
	return a, nil
}

func (repo *assessmentRepository) QueryAssessments(_ context.Context, filter assessment.QueryFilter, _ ...core.DBExecutor) ([]assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assessments := make([]assessment.Assessment, 0)
	for _, a := range repo.db.assessments {
		if filter.CourseID != 0 && a.CourseID != filter.CourseID {
			continue
		}
		assessments = append(assessments, repo.fill(*a))
	}
	sort.Slice(assessments, func(i, j int) bool { return assessments[i].ID < assessments[j].ID })
	return assessments, nil
}

func (repo *assessmentRepository) GetAssessment(_ context.Context, id int64, _ ...core.DBExecutor) (assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.assessments[id]; ok {
		return repo.fill(*a), nil
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) UpdateAssessment(_ context.Context, a assessment.Assessment, _ ...core.DBExecutor) (assessment.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.assessments[a.ID]; !ok {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	a = repo.fill(a)
	repo.db.assessments[a.ID] = &a
	return a, nil
}

func (repo *assessmentRepository) DeleteAssessment(_ context.Context, id int64, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.assessments[id]; !ok {
		return assessment.ErrNotFound
	}
	repo.db.deleteAssessment(id)
	return nil
}

func (db *DB) deleteAssessment(id int64) {
	for sid, s := range db.submissions {
		if s.AssessmentID == id {
			delete(db.submissions, sid)
		}
	}
	delete(db.assessments, id)
}

func (repo *assessmentRepository) CreateSubmission(_ context.Context, s assessment.Submission, _ ...core.DBExecutor) (assessment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = repo.db.nextID("submissions")
	s = repo.fillSubmission(s)
	repo.db.submissions[s.ID] = &s
	return s, nil
}

func (repo *assessmentRepository) QuerySubmissions(_ context.Context, filter assessment.SubmissionFilter, _ ...core.DBExecutor) ([]assessment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	submissions := make([]assessment.Submission, 0)
	for _, s := range repo.db.submissions {
		if filter.AssessmentID != 0 && s.AssessmentID != filter.AssessmentID {
			continue
		}
		if filter.StudentID != 0 && s.StudentID != filter.StudentID {
			continue
		}
		submissions = append(submissions, repo.fillSubmission(*s))
	}
	sort.Slice(submissions, func(i, j int) bool { return submissions[i].ID < submissions[j].ID })
	return submissions, nil
}

func (repo *assessmentRepository) GetSubmission(_ context.Context, id int64, _ ...core.DBExecutor) (assessment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.submissions[id]; ok {
		return repo.fillSubmission(*s), nil
	}
	return assessment.Submission{}, assessment.ErrSubmissionNotFound
}

func (repo *assessmentRepository) UpdateSubmission(_ context.Context, s assessment.Submission, _ ...core.DBExecutor) (assessment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.submissions[s.ID]; !ok {
		return assessment.Submission{}, assessment.ErrSubmissionNotFound
	}
	s = repo.fillSubmission(s)
	repo.db.submissions[s.ID] = &s
	return s, nil
}

func (repo *assessmentRepository) DeleteSubmission(_ context.Context, id int64, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.submissions[id]; !ok {
		return assessment.ErrSubmissionNotFound
	}
	delete(repo.db.submissions, id)
	return nil
}
