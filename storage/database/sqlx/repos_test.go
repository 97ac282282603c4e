package sqlxrepos

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/user"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = mockDB.Close()
	})
	return sqlx.NewDb(mockDB, "postgres"), mock
}

var userRowColumns = []string{"id", "username", "email", "role", "password_hash", "created_at"}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (username,email,role,password_hash,created_at) VALUES ($1,$2,$3,$4,$5) RETURNING id")).
		WithArgs("alice", "alice@example.com", user.RoleStudent, []byte("hash"), now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users u WHERE u.id = $1 LIMIT 1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(7, "alice", "alice@example.com", "student", []byte("hash"), now))

	usr, err := repo.CreateUser(context.Background(), user.User{
		Username:     "alice",
		Email:        "alice@example.com",
		Role:         user.RoleStudent,
		PasswordHash: []byte("hash"),
		CreatedAt:    now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), usr.ID)
	assert.Equal(t, user.RoleStudent, usr.Role)
}

func TestUserRepository_CreateUser_EmailTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_email_key"})

	_, err := repo.CreateUser(context.Background(), user.User{Email: "alice@example.com"})
	assert.Equal(t, user.ErrEmailExists, errors.Cause(err))
}

func TestUserRepository_GetUser_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users u WHERE u.email = $1 LIMIT 1")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.GetUser(context.Background(), user.GetFilter{Email: "ghost@example.com"})
	assert.Equal(t, user.ErrNotFound, err)
	assert.True(t, core.IsNotFound(err))
}

func TestUserRepository_CheckUniqueness(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT u.username, u.email FROM users u WHERE (u.email = $1 OR u.username = $2) LIMIT 2")).
		WithArgs("bob@example.com", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"username", "email"}).AddRow("alice", "alice@example.com"))

	err := repo.CheckUniqueness(context.Background(), "alice", "bob@example.com")
	assert.Equal(t, user.ErrUsernameExists, err)
}

func TestUserRepository_CreateToken_Exists(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tokens (key,user_id,created_at) VALUES ($1,$2,$3) ON CONFLICT (user_id) DO NOTHING RETURNING key")).
		WillReturnRows(sqlmock.NewRows([]string{"key"}))

	_, err := repo.CreateToken(context.Background(), user.Token{Key: "k", UserID: 1, CreatedAt: time.Now()})
	assert.Equal(t, user.ErrTokenExists, err)
}

func TestCourseRepository_QueryCourses(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCourseRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE (c.title ILIKE $1 OR c.difficulty ILIKE $2 OR u.username ILIKE $3) ORDER BY c.title ASC, c.id ASC")).
		WithArgs("%go%", "%go%", "%go%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "instructor_id", "instructor_email", "title", "description", "difficulty", "created_at"}).
			AddRow(1, 2, "inst@example.com", "Go 101", "basics", "beginner", now))

	courses, err := repo.QueryCourses(
		context.Background(),
		course.QueryFilter{Search: "go"},
		[]core.DBOrdering{{Field: "title", Ascending: true}},
	)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "inst@example.com", courses[0].InstructorEmail)
	assert.Equal(t, course.Beginner, courses[0].Difficulty)
}

func TestCourseRepository_DeleteCourse_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Equal(t, course.ErrNotFound, repo.DeleteCourse(context.Background(), 9))
}

func TestEnrollmentRepository_CreateEnrollment_AlreadyEnrolled(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("INSERT INTO enrollments").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "enrollments_student_id_course_id_key"})

	_, err := repo.CreateEnrollment(context.Background(), enrollment.Enrollment{StudentID: 1, CourseID: 2})
	assert.Equal(t, enrollment.ErrAlreadyEnrolled, errors.Cause(err))
}

func TestEnrollmentRepository_AverageProgress(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(AVG(progress), 0) FROM enrollments")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(42.5))

	avg, err := repo.AverageProgress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42.5, avg)
}

func TestSponsorshipRepository_SponsorStats(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSponsorshipRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM sponsorships WHERE sponsor_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "coalesce"}).AddRow(2, "300.25"))

	stats, err := repo.SponsorStats(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.True(t, decimal.RequireFromString("300.25").Equal(stats.Total))
}

func TestTransactor_WithinTx(t *testing.T) {
	db, mock := newMock(t)
	tx := NewTransactor(db)
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = $1 WHERE id = $2")).
		WithArgs(true, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tx.WithinTx(context.Background(), func(exec core.DBExecutor) error {
		return repo.MarkRead(context.Background(), 1, exec)
	})
	require.NoError(t, err)
}

func TestTransactor_WithinTx_Rollback(t *testing.T) {
	db, mock := newMock(t)
	tx := NewTransactor(db)
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notifications").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := tx.WithinTx(context.Background(), func(exec core.DBExecutor) error {
		return repo.MarkRead(context.Background(), 1, exec)
	})
	assert.True(t, core.IsNotFound(err))
}
