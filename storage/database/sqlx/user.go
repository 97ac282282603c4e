package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

var (
	userColumns = []string{"u.id", "u.username", "u.email", "u.role", "u.password_hash", "u.created_at"}

	userConstraints = map[string]error{
		"users_email_key":    user.ErrEmailExists,
		"users_username_key": user.ErrUsernameExists,
	}
)

type userRepository struct {
	baseRepository
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{baseRepository{db: db}}
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error {
	cond := sq.Or{sq.Eq{"u.email": email}}
	if username != "" {
		cond = append(cond, sq.Eq{"u.username": username})
	}
	var taken []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	q := psql.Select("u.username", "u.email").From("users u").Where(cond).Limit(2)
	if err := repo.selectAll(ctx, exec, &taken, q); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, t := range taken {
		if username != "" && t.Username == username {
			return user.ErrUsernameExists
		}
		if t.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Insert("users").
		Columns("username", "email", "role", "password_hash", "created_at").
		Values(usr.Username, usr.Email, usr.Role, usr.PasswordHash, usr.CreatedAt)
	id, err := repo.insert(ctx, exec, q)
	if err != nil {
		return user.User{}, errors.Wrap(trapUniqueErr(err, userConstraints), "inserting user")
	}
	return repo.GetUser(ctx, user.GetFilter{ID: id}, exec...)
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Select(userColumns...).From("users u").Limit(1)
	switch {
	case filter.ID != 0:
		q = q.Where(sq.Eq{"u.id": filter.ID})
	case filter.Email != "":
		q = q.Where(sq.Eq{"u.email": filter.Email})
	case filter.Username != "":
		q = q.Where(sq.Eq{"u.username": filter.Username})
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.get(ctx, exec, &usr, q); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Update("users").
		SetMap(map[string]interface{}{
			"username":      usr.Username,
			"email":         usr.Email,
			"role":          usr.Role,
			"password_hash": usr.PasswordHash,
		}).
		Where(sq.Eq{"id": usr.ID})
	res, err := repo.execute(ctx, exec, q)
	if err != nil {
		return user.User{}, errors.Wrap(trapUniqueErr(err, userConstraints), "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
}

func (repo userRepository) CountUsers(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	return repo.count(ctx, exec, "users")
}

func (repo userRepository) GetToken(ctx context.Context, userID int64, exec ...core.DBExecutor) (user.Token, error) {
	var token user.Token
	q := psql.Select("key", "user_id", "created_at").From("tokens").Where(sq.Eq{"user_id": userID})
	if err := repo.get(ctx, exec, &token, q); err != nil {
		return user.Token{}, trapNoRowsErr(err, user.ErrTokenNotFound, "getting token")
	}
	return token, nil
}

func (repo userRepository) CreateToken(ctx context.Context, token user.Token, exec ...core.DBExecutor) (user.Token, error) {
	q := psql.Insert("tokens").
		Columns("key", "user_id", "created_at").
		Values(token.Key, token.UserID, token.CreatedAt).
		Suffix("ON CONFLICT (user_id) DO NOTHING RETURNING key")

	var key string
	if err := repo.get(ctx, exec, &key, q); err != nil {
		// nothing returned: the user already has a token
		return user.Token{}, trapNoRowsErr(err, user.ErrTokenExists, "inserting token")
	}
	return token, nil
}

func (repo userRepository) GetUserByToken(ctx context.Context, key string, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Select(userColumns...).
		From("users u").
		Join("tokens t ON t.user_id = u.id").
		Where(sq.Eq{"t.key": key})

	var usr user.User
	if err := repo.get(ctx, exec, &usr, q); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user by token")
	}
	return usr, nil
}
