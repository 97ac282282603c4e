package inmemdb

import (
	"context"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) checkUniqueness(username, email string, excludedID int64) error {
	for _, usr := range repo.db.users {
		if usr.ID == excludedID {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.checkUniqueness(username, email, 0)
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkUniqueness(usr.Username, usr.Email, 0); err != nil {
		return user.User{}, err
	}
	usr.ID = repo.db.nextID("users")
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.users {
		if (filter.Email != "" && usr.Email == filter.Email) || (filter.Username != "" && usr.Username == filter.Username) {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.checkUniqueness(usr.Username, usr.Email, usr.ID); err != nil {
		return user.User{}, err
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) CountUsers(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.db.users), nil
}

func (repo *userRepository) GetToken(_ context.Context, userID int64, _ ...core.DBExecutor) (user.Token, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if token, ok := repo.db.tokens[userID]; ok {
		return *token, nil
	}
	return user.Token{}, user.ErrTokenNotFound
}

func (repo *userRepository) CreateToken(_ context.Context, token user.Token, _ ...core.DBExecutor) (user.Token, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tokens[token.UserID]; ok {
		return user.Token{}, user.ErrTokenExists
	}
	if _, ok := repo.db.users[token.UserID]; !ok {
		return user.Token{}, user.ErrNotFound
	}
	repo.db.tokens[token.UserID] = &token
	return token, nil
}

func (repo *userRepository) GetUserByToken(_ context.Context, key string, _ ...core.DBExecutor) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, token := range repo.db.tokens {
		if token.Key == key {
			if usr, ok := repo.db.users[token.UserID]; ok {
				return *usr, nil
			}
			break
		}
	}
	return user.User{}, user.ErrNotFound
}
