package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) fill(c course.Course) course.Course {
	c.InstructorEmail = repo.db.userEmail(c.InstructorID)
	c.Videos = nil
	return c
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = repo.db.nextID("courses")
	c = repo.fill(c)
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) matches(c *course.Course, search string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	var uname string
	if usr, ok := repo.db.users[c.InstructorID]; ok {
		uname = usr.Username
	}
	return strings.Contains(strings.ToLower(c.Title), search) ||
		strings.Contains(strings.ToLower(string(c.Difficulty)), search) ||
		strings.Contains(strings.ToLower(uname), search)
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if repo.matches(c, filter.Search) {
			courses = append(courses, repo.fill(*c))
		}
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(courses, func(i, j int) bool {
		a, b := courses[i], courses[j]
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "title":
				cmp = strings.Compare(a.Title, b.Title)
			case "difficulty":
				cmp = strings.Compare(string(a.Difficulty), string(b.Difficulty))
			case "created_at":
				cmp = a.CreatedAt.Compare(b.CreatedAt)
				if cmp == 0 {
					cmp = compareIDs(a.ID, b.ID)
				}
			}
			if cmp != 0 {
				return (cmp < 0) == ord.Ascending
			}
		}
		return a.ID < b.ID
	})
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id int64, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return repo.fill(*c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	c = repo.fill(c)
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id int64, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	repo.db.deleteCourse(id)
	return nil
}

// deleteCourse removes the course with its videos, enrollments, assessments and their submissions.
func (db *DB) deleteCourse(id int64) {
	for vid, v := range db.videos {
		if v.CourseID == id {
			delete(db.videos, vid)
		}
	}
	for eid, e := range db.enrollments {
		if e.CourseID == id {
			delete(db.enrollments, eid)
		}
	}
	for aid, a := range db.assessments {
		if a.CourseID == id {
			db.deleteAssessment(aid)
		}
	}
	delete(db.courses, id)
}

func (repo *courseRepository) CountCourses(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.courses), nil
}

func (repo *courseRepository) CreateVideo(_ context.Context, v course.Video, _ ...core.DBExecutor) (course.Video, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[v.CourseID]; !ok {
		return course.Video{}, course.ErrNotFound
	}
	v.ID = repo.db.nextID("videos")
	repo.db.videos[v.ID] = &v
	return v, nil
}

func (repo *courseRepository) QueryVideos(_ context.Context, courseIDs []int64, _ ...core.DBExecutor) ([]course.Video, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[int64]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}
	videos := make([]course.Video, 0)
	for _, v := range repo.db.videos {
		if wanted[v.CourseID] {
			videos = append(videos, *v)
		}
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].ID < videos[j].ID })
	return videos, nil
}

func (repo *courseRepository) GetVideo(_ context.Context, id int64, _ ...core.DBExecutor) (course.Video, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if v, ok := repo.db.videos[id]; ok {
		return *v, nil
	}
	return course.Video{}, course.ErrVideoNotFound
}

func (repo *courseRepository) UpdateVideo(_ context.Context, v course.Video, _ ...core.DBExecutor) (course.Video, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.videos[v.ID]; !ok {
		return course.Video{}, course.ErrVideoNotFound
	}
	repo.db.videos[v.ID] = &v
	return v, nil
}

func (repo *courseRepository) DeleteVideo(_ context.Context, id int64, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.videos[id]; !ok {
		return course.ErrVideoNotFound
	}
	delete(repo.db.videos, id)
	return nil
}

func compareIDs(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
