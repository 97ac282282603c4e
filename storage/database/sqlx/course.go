package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
)

var videoColumns = []string{"id", "course_id", "title", "description", "video_url", "duration", "created_at"}

type courseRepository struct {
	baseRepository
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{baseRepository{db: db}}
}

func (repo courseRepository) selectCourses() sq.SelectBuilder {
	return psql.Select(
		"c.id", "c.instructor_id", "u.email AS instructor_email",
		"c.title", "c.description", "c.difficulty", "c.created_at",
	).
		From("courses c").
		Join("users u ON u.id = c.instructor_id")
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := psql.Insert("courses").
		Columns("instructor_id", "title", "description", "difficulty", "created_at").
		Values(c.InstructorID, c.Title, c.Description, c.Difficulty, c.CreatedAt)
	id, err := repo.insert(ctx, exec, q)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, id, exec...)
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	q := repo.selectCourses()
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(sq.Or{
			sq.ILike{"c.title": pattern},
			sq.ILike{"c.difficulty": pattern},
			sq.ILike{"u.username": pattern},
		})
	}
	if len(ordering) == 0 {
		q = q.OrderBy("c.created_at DESC", "c.id DESC")
	} else {
		for _, ord := range ordering {
			q = q.OrderBy("c." + ord.String())
		}
		q = q.OrderBy("c.id ASC")
	}

	courses := make([]course.Course, 0)
	if err := repo.selectAll(ctx, exec, &courses, q); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return courses, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id int64, exec ...core.DBExecutor) (course.Course, error) {
	var c course.Course
	if err := repo.get(ctx, exec, &c, repo.selectCourses().Where(sq.Eq{"c.id": id})); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "getting course")
	}
	return c, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := psql.Update("courses").
		SetMap(map[string]interface{}{
			"instructor_id": c.InstructorID,
			"title":         c.Title,
			"description":   c.Description,
			"difficulty":    c.Difficulty,
		}).
		Where(sq.Eq{"id": c.ID})
	res, err := repo.execute(ctx, exec, q)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if err = checkAffected(res, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return repo.GetCourse(ctx, c.ID, exec...)
}

// DeleteCourse relies on ON DELETE CASCADE for videos, enrollments and assessments.
func (repo courseRepository) DeleteCourse(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	return repo.deleteByID(ctx, exec, "courses", id, course.ErrNotFound)
}

func (repo courseRepository) CountCourses(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	return repo.count(ctx, exec, "courses")
}

func (repo courseRepository) CreateVideo(ctx context.Context, v course.Video, exec ...core.DBExecutor) (course.Video, error) {
	q := psql.Insert("videos").
		Columns("course_id", "title", "description", "video_url", "duration", "created_at").
		Values(v.CourseID, v.Title, v.Description, v.URL, v.Duration, v.CreatedAt)
	id, err := repo.insert(ctx, exec, q)
	if err != nil {
		return course.Video{}, errors.Wrap(err, "inserting video")
	}
	return repo.GetVideo(ctx, id, exec...)
}

func (repo courseRepository) QueryVideos(ctx context.Context, courseIDs []int64, exec ...core.DBExecutor) ([]course.Video, error) {
	videos := make([]course.Video, 0)
	if len(courseIDs) == 0 {
		return videos, nil
	}
	q := psql.Select(videoColumns...).From("videos").Where(sq.Eq{"course_id": courseIDs}).OrderBy("id")
	if err := repo.selectAll(ctx, exec, &videos, q); err != nil {
		return nil, errors.Wrap(err, "querying videos")
	}
	return videos, nil
}

func (repo courseRepository) GetVideo(ctx context.Context, id int64, exec ...core.DBExecutor) (course.Video, error) {
	var v course.Video
	q := psql.Select(videoColumns...).From("videos").Where(sq.Eq{"id": id})
	if err := repo.get(ctx, exec, &v, q); err != nil {
		return course.Video{}, trapNoRowsErr(err, course.ErrVideoNotFound, "getting video")
	}
	return v, nil
}

func (repo courseRepository) UpdateVideo(ctx context.Context, v course.Video, exec ...core.DBExecutor) (course.Video, error) {
	q := psql.Update("videos").
		SetMap(map[string]interface{}{
			"title":       v.Title,
			"description": v.Description,
			"video_url":   v.URL,
			"duration":    v.Duration,
		}).
		Where(sq.Eq{"id": v.ID})
	res, err := repo.execute(ctx, exec, q)
	if err != nil {
		return course.Video{}, errors.Wrap(err, "updating video")
	}
	if err = checkAffected(res, course.ErrVideoNotFound); err != nil {
		return course.Video{}, err
	}
	return repo.GetVideo(ctx, v.ID, exec...)
}

func (repo courseRepository) DeleteVideo(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	return repo.deleteByID(ctx, exec, "videos", id, course.ErrVideoNotFound)
}
