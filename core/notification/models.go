package notification

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
)

type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user" db:"user_id"`
	UserEmail string    `json:"user_email" db:"user_email"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewNotification contains information needed to notify a user directly.
type NewNotification struct {
	User    int64  `json:"user" validate:"required"`
	Message string `json:"message" validate:"required,notblank"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Message = core.CleanString(nn.Message)
	return validate.Struct(nn)
}

type QueryFilter struct {
	UserID int64 `query:"-"`
	IsRead *bool `query:"is_read"`
}
