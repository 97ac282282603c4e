package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/notification"
)

type notificationRepository struct {
	baseRepository
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{baseRepository{db: db}}
}

func (repo notificationRepository) selectNotifications() sq.SelectBuilder {
	return psql.Select("n.id", "n.user_id", "u.email AS user_email", "n.message", "n.is_read", "n.created_at").
		From("notifications n").
		Join("users u ON u.id = n.user_id")
}

func (repo notificationRepository) CreateNotification(ctx context.Context, n notification.Notification, exec ...core.DBExecutor) (notification.Notification, error) {
	q := psql.Insert("notifications").
		Columns("user_id", "message", "is_read", "created_at").
		Values(n.UserID, n.Message, n.IsRead, n.CreatedAt)
	id, err := repo.insert(ctx, exec, q)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return repo.GetNotification(ctx, id, exec...)
}

func (repo notificationRepository) QueryNotifications(ctx context.Context, filter notification.QueryFilter, exec ...core.DBExecutor) ([]notification.Notification, error) {
	q := repo.selectNotifications().OrderBy("n.created_at DESC", "n.id DESC")
	if filter.UserID != 0 {
		q = q.Where(sq.Eq{"n.user_id": filter.UserID})
	}
	if filter.IsRead != nil {
		q = q.Where(sq.Eq{"n.is_read": *filter.IsRead})
	}
	notifs := make([]notification.Notification, 0)
	if err := repo.selectAll(ctx, exec, &notifs, q); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifs, nil
}

func (repo notificationRepository) GetNotification(ctx context.Context, id int64, exec ...core.DBExecutor) (notification.Notification, error) {
	var n notification.Notification
	if err := repo.get(ctx, exec, &n, repo.selectNotifications().Where(sq.Eq{"n.id": id})); err != nil {
		return notification.Notification{}, trapNoRowsErr(err, notification.ErrNotFound, "getting notification")
	}
	return n, nil
}

func (repo notificationRepository) MarkRead(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	res, err := repo.execute(ctx, exec, psql.Update("notifications").Set("is_read", true).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return checkAffected(res, notification.ErrNotFound)
}

func (repo notificationRepository) DeleteNotification(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	return repo.deleteByID(ctx, exec, "notifications", id, notification.ErrNotFound)
}
