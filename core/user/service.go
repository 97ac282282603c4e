package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

var (
	// errors
	ErrNotFound           = &core.NotFoundError{Resource: "user"}
	ErrTokenNotFound      = &core.NotFoundError{Resource: "token"}
	ErrEmailExists        = errors.New("user with this email already exists")
	ErrUsernameExists     = errors.New("user with this username already exists")
	ErrTokenExists        = errors.New("user already has a token")
	ErrInvalidCredentials = errors.New("Invalid Credentials!")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists or ErrEmailExists when taken. Empty usernames are ignored.
		CheckUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		CountUsers(ctx context.Context, exec ...core.DBExecutor) (int, error)

		GetToken(ctx context.Context, userID int64, exec ...core.DBExecutor) (Token, error)
		// CreateToken returns ErrTokenExists if the User already has one.
		CreateToken(ctx context.Context, token Token, exec ...core.DBExecutor) (Token, error)
		GetUserByToken(ctx context.Context, key string, exec ...core.DBExecutor) (User, error)
	}

	Service struct {
		repo   Repository
		issuer string
		secret []byte
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{
		repo:   repo,
		issuer: conf.AppName,
		secret: []byte(conf.SecretKey),
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string) error {
	if err := svc.repo.CheckUniqueness(ctx, uname, email); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Create registers a User. The password is stored hashed.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountUsers(ctx)
}

// SetPassword replaces the password of usr.
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// Authenticate returns ErrInvalidCredentials for both unknown emails and wrong passwords.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	usr, err := svc.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

// Login authenticates creds and returns the User's Token, creating it on first login.
func (svc *Service) Login(ctx context.Context, creds Credentials) (Token, error) {
	usr, err := svc.Authenticate(ctx, creds)
	if err != nil {
		return Token{}, err
	}
	return svc.GetOrCreateToken(ctx, usr)
}

// GetOrCreateToken returns the existing Token of usr or issues one.
func (svc *Service) GetOrCreateToken(ctx context.Context, usr User) (Token, error) {
	token, err := svc.repo.GetToken(ctx, usr.ID)
	if err == nil {
		return token, nil
	}
	if errors.Cause(err) != ErrTokenNotFound {
		return Token{}, errors.Wrap(err, "getting token")
	}

	key, err := makeTokenKey(usr, svc.issuer, svc.secret)
	if err != nil {
		return Token{}, err
	}
	token, err = svc.repo.CreateToken(ctx, Token{Key: key, UserID: usr.ID, CreatedAt: time.Now().UTC()})
	if errors.Cause(err) == ErrTokenExists {
		// lost a race with a concurrent login
		return svc.repo.GetToken(ctx, usr.ID)
	}
	return token, err
}

// GetByToken returns the User owning key. ErrInvalidToken is returned for unsigned or unknown keys.
func (svc *Service) GetByToken(ctx context.Context, key string) (User, error) {
	id, err := parseTokenKey(key, svc.secret)
	if err != nil {
		return User{}, err
	}
	usr, err := svc.repo.GetUserByToken(ctx, key)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidToken
		}
		return User{}, errors.Wrap(err, "finding user by token")
	}
	if usr.ID != id {
		return User{}, ErrInvalidToken
	}
	return usr, nil
}
