package sponsorship

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/academia/core"
)

type PaymentStatus string

// Payment statuses
const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
)

var errNegativeAmount = "ensure this value is greater than or equal to 0"

type Sponsorship struct {
	ID           int64           `json:"id" db:"id"`
	SponsorID    int64           `json:"sponsor" db:"sponsor_id"`
	SponsorEmail string          `json:"sponsor_email" db:"sponsor_email"`
	StudentID    int64           `json:"student" db:"student_id"`
	StudentEmail string          `json:"student_email" db:"student_email"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	FundedAt     time.Time       `json:"funded_at" db:"funded_at"`
}

type Payment struct {
	ID            int64           `json:"id" db:"id"`
	SponsorID     int64           `json:"sponsor" db:"sponsor_id"`
	SponsorEmail  string          `json:"sponsor_email" db:"sponsor_email"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	Status        PaymentStatus   `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Stats aggregates the sponsorships of one sponsor.
type Stats struct {
	Count int
	Total decimal.Decimal
}

func checkAmount(amount *decimal.Decimal, required bool) error {
	if amount == nil {
		if required {
			return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: core.RequiredFieldError})
		}
		return nil
	}
	if amount.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: errNegativeAmount})
	}
	return nil
}

// NewSponsorship contains information needed to fund a student. It is also the body of a full update.
type NewSponsorship struct {
	Sponsor int64            `json:"sponsor" validate:"required"`
	Student int64            `json:"student" validate:"required"`
	Amount  *decimal.Decimal `json:"amount"`
}

func (ns *NewSponsorship) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return checkAmount(ns.Amount, true)
}

func (ns NewSponsorship) AsUpdate() UpdateSponsorship {
	return UpdateSponsorship{Sponsor: &ns.Sponsor, Student: &ns.Student, Amount: ns.Amount}
}

type UpdateSponsorship struct {
	Sponsor *int64           `json:"sponsor" validate:"omitempty,gt=0"`
	Student *int64           `json:"student" validate:"omitempty,gt=0"`
	Amount  *decimal.Decimal `json:"amount"`
}

func (us *UpdateSponsorship) Validate(validate *validator.Validate) error {
	if err := validate.Struct(us); err != nil {
		return err
	}
	return checkAmount(us.Amount, false)
}

func (us UpdateSponsorship) apply(s Sponsorship) Sponsorship {
	if us.Sponsor != nil {
		s.SponsorID = *us.Sponsor
	}
	if us.Student != nil {
		s.StudentID = *us.Student
	}
	if us.Amount != nil {
		s.Amount = *us.Amount
	}
	return s
}

type QueryFilter struct {
	SponsorID int64 `query:"sponsor"`
	StudentID int64 `query:"student"`
}

// NewPayment contains information needed to record a payment. It is also the body of a full update.
// A transaction ID is generated when none is given.
type NewPayment struct {
	Sponsor       int64            `json:"sponsor" validate:"required"`
	Amount        *decimal.Decimal `json:"amount"`
	TransactionID string           `json:"transaction_id" validate:"max=100"`
	Status        PaymentStatus    `json:"status" validate:"omitempty,oneof=pending completed"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.TransactionID = core.CleanString(np.TransactionID)
	np.Status = PaymentStatus(core.CleanString(string(np.Status), true /* lower */))
	if err := validate.Struct(np); err != nil {
		return err
	}
	return checkAmount(np.Amount, true)
}

func (np NewPayment) AsUpdate() UpdatePayment {
	up := UpdatePayment{Sponsor: &np.Sponsor, Amount: np.Amount}
	if np.TransactionID != "" {
		up.TransactionID = &np.TransactionID
	}
	if np.Status != "" {
		up.Status = &np.Status
	}
	return up
}

type UpdatePayment struct {
	Sponsor       *int64           `json:"sponsor" validate:"omitempty,gt=0"`
	Amount        *decimal.Decimal `json:"amount"`
	TransactionID *string          `json:"transaction_id" validate:"omitempty,notblank,max=100"`
	Status        *PaymentStatus   `json:"status" validate:"omitempty,oneof=pending completed"`
}

func (up *UpdatePayment) Validate(validate *validator.Validate) error {
	if err := validate.Struct(up); err != nil {
		return err
	}
	return checkAmount(up.Amount, false)
}

func (up UpdatePayment) apply(p Payment) Payment {
	if up.Sponsor != nil {
		p.SponsorID = *up.Sponsor
	}
	if up.Amount != nil {
		p.Amount = *up.Amount
	}
	if up.TransactionID != nil {
		p.TransactionID = core.CleanString(*up.TransactionID)
	}
	if up.Status != nil {
		p.Status = *up.Status
	}
	return p
}

type PaymentFilter struct {
	Status    PaymentStatus `query:"status"`
	SponsorID int64         `query:"sponsor"`
}
