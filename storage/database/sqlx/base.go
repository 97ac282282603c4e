package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type baseRepository struct {
	db *sqlx.DB
}

// getExec returns the transaction passed by the service, if any.
func (repo baseRepository) getExec(exec []core.DBExecutor) sqlx.ExtContext {
	if len(exec) > 0 && exec[0] != nil {
		if e, ok := exec[0].(sqlx.ExtContext); ok {
			return e
		}
	}
	return repo.db
}

func (repo baseRepository) get(ctx context.Context, exec []core.DBExecutor, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, repo.getExec(exec), dest, query, args...)
}

func (repo baseRepository) selectAll(ctx context.Context, exec []core.DBExecutor, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, repo.getExec(exec), dest, query, args...)
}

func (repo baseRepository) execute(ctx context.Context, exec []core.DBExecutor, q sq.Sqlizer) (sql.Result, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return repo.getExec(exec).ExecContext(ctx, query, args...)
}

// insert runs q and returns the id of the new row.
func (repo baseRepository) insert(ctx context.Context, exec []core.DBExecutor, q sq.InsertBuilder) (int64, error) {
	query, args, err := q.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var id int64
	err = repo.getExec(exec).QueryRowxContext(ctx, query, args...).Scan(&id)
	return id, err
}

// deleteByID returns notFound when no row matched.
func (repo baseRepository) deleteByID(ctx context.Context, exec []core.DBExecutor, table string, id int64, notFound error) error {
	res, err := repo.execute(ctx, exec, psql.Delete(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	return checkAffected(res, notFound)
}

func (repo baseRepository) count(ctx context.Context, exec []core.DBExecutor, table string) (int, error) {
	var n int
	err := repo.get(ctx, exec, &n, psql.Select("COUNT(*)").From(table))
	return n, errors.Wrapf(err, "counting %s", table)
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapUniqueErr maps a unique violation on one of the given constraints to its domain error.
func trapUniqueErr(err error, constraints map[string]error) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
		if domainErr, ok := constraints[pqErr.Constraint]; ok {
			return domainErr
		}
	}
	return err
}

type Transactor struct {
	db *sqlx.DB
}

var _ core.Transactor = (*Transactor)(nil)

func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
