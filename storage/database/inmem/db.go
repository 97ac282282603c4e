package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/notification"
	"github.com/trezcool/academia/core/sponsorship"
	"github.com/trezcool/academia/core/user"
)

// DB keeps every table in memory. All tables share one lock so that cascades and
// derived fields are computed on a consistent snapshot.
type DB struct {
	sync.RWMutex
	seq map[string]int64

	users         map[int64]*user.User
	tokens        map[int64]*user.Token // by user ID
	courses       map[int64]*course.Course
	videos        map[int64]*course.Video
	enrollments   map[int64]*enrollment.Enrollment
	assessments   map[int64]*assessment.Assessment
	submissions   map[int64]*assessment.Submission
	sponsorships  map[int64]*sponsorship.Sponsorship
	payments      map[int64]*sponsorship.Payment
	notifications map[int64]*notification.Notification
}

func Open() *DB {
	return &DB{
		seq:           make(map[string]int64),
		users:         make(map[int64]*user.User),
		tokens:        make(map[int64]*user.Token),
		courses:       make(map[int64]*course.Course),
		videos:        make(map[int64]*course.Video),
		enrollments:   make(map[int64]*enrollment.Enrollment),
		assessments:   make(map[int64]*assessment.Assessment),
		submissions:   make(map[int64]*assessment.Submission),
		sponsorships:  make(map[int64]*sponsorship.Sponsorship),
		payments:      make(map[int64]*sponsorship.Payment),
		notifications: make(map[int64]*notification.Notification),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int64 {
	db.seq[table]++
	return db.seq[table]
}

func (db *DB) userEmail(id int64) string {
	if u, ok := db.users[id]; ok {
		return u.Email
	}
	return ""
}

// Transactor runs fn directly: the in-memory store has no rollback, so a failing fn
// leaves the rows it already wrote.
type Transactor struct{}

var _ core.Transactor = Transactor{}

func NewTransactor() Transactor { return Transactor{} }

func (Transactor) WithinTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	return fn(nil)
}
