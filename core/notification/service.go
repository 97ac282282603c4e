package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

var (
	// errors
	ErrNotFound = &core.NotFoundError{Resource: "notification"}
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification, exec ...core.DBExecutor) (Notification, error)
		// QueryNotifications returns notifications matching filter, newest first.
		QueryNotifications(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Notification, error)
		GetNotification(ctx context.Context, id int64, exec ...core.DBExecutor) (Notification, error)
		MarkRead(ctx context.Context, id int64, exec ...core.DBExecutor) error
		DeleteNotification(ctx context.Context, id int64, exec ...core.DBExecutor) error
	}

	UserGetter interface {
		GetByID(ctx context.Context, id int64) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserGetter
	}
)

func NewService(repo Repository, users UserGetter) *Service {
	return &Service{repo: repo, users: users}
}

func (svc *Service) Create(ctx context.Context, nn NewNotification) (Notification, error) {
	if _, err := svc.users.GetByID(ctx, nn.User); err != nil {
		if core.IsNotFound(err) {
			return Notification{}, core.InvalidPKError("user", nn.User)
		}
		return Notification{}, errors.Wrap(err, "finding user")
	}
	n, err := svc.repo.CreateNotification(ctx, Notification{
		UserID:    nn.User,
		Message:   nn.Message,
		CreatedAt: time.Now().UTC(),
	})
	return n, errors.Wrap(err, "creating notification")
}

// Query lists the notifications visible to viewer: all of them for admins, their own otherwise.
func (svc *Service) Query(ctx context.Context, viewer user.User, filter QueryFilter) ([]Notification, error) {
	if !viewer.IsAdmin() {
		filter.UserID = viewer.ID
	}
	return svc.repo.QueryNotifications(ctx, filter)
}

// Get returns ErrNotFound when the notification belongs to someone else and viewer is not an admin.
func (svc *Service) Get(ctx context.Context, viewer user.User, id int64) (Notification, error) {
	n, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if !viewer.IsAdmin() && n.UserID != viewer.ID {
		return Notification{}, ErrNotFound
	}
	return n, nil
}

// MarkRead flags the notification as read. Marking it again is a no-op.
func (svc *Service) MarkRead(ctx context.Context, viewer user.User, id int64) error {
	n, err := svc.Get(ctx, viewer, id)
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	return svc.repo.MarkRead(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, viewer user.User, id int64) error {
	if _, err := svc.Get(ctx, viewer, id); err != nil {
		return err
	}
	return svc.repo.DeleteNotification(ctx, id)
}
