package sponsorship

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

var (
	// errors
	ErrNotFound          = &core.NotFoundError{Resource: "sponsorship"}
	ErrPaymentNotFound   = &core.NotFoundError{Resource: "payment"}
	ErrTransactionExists = errors.New("payment with this transaction id already exists")

	errNotSponsor = "user is not a sponsor"
	errNotStudent = "user is not a student"
)

type (
	Repository interface {
		CreateSponsorship(ctx context.Context, s Sponsorship, exec ...core.DBExecutor) (Sponsorship, error)
		QuerySponsorships(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Sponsorship, error)
		GetSponsorship(ctx context.Context, id int64, exec ...core.DBExecutor) (Sponsorship, error)
		UpdateSponsorship(ctx context.Context, s Sponsorship, exec ...core.DBExecutor) (Sponsorship, error)
		DeleteSponsorship(ctx context.Context, id int64, exec ...core.DBExecutor) error
		SponsorStats(ctx context.Context, sponsorID int64, exec ...core.DBExecutor) (Stats, error)

		// CreatePayment returns ErrTransactionExists when the transaction ID is taken.
		CreatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		QueryPayments(ctx context.Context, filter PaymentFilter, exec ...core.DBExecutor) ([]Payment, error)
		GetPayment(ctx context.Context, id int64, exec ...core.DBExecutor) (Payment, error)
		UpdatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		DeletePayment(ctx context.Context, id int64, exec ...core.DBExecutor) error
	}

	// Notifier thanks the sponsor of a new sponsorship.
	Notifier interface {
		// SponsorshipCreated persists the notification through exec and returns the email to send.
		SponsorshipCreated(ctx context.Context, s Sponsorship, exec core.DBExecutor) (core.Outbox, error)
		Deliver(ctx context.Context, outbox core.Outbox) error
	}

	UserGetter interface {
		GetByID(ctx context.Context, id int64) (user.User, error)
	}

	Service struct {
		tx       core.Transactor
		repo     Repository
		users    UserGetter
		notifier Notifier
	}
)

func NewService(tx core.Transactor, repo Repository, users UserGetter, notifier Notifier) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		users:    users,
		notifier: notifier,
	}
}

func (svc *Service) checkUser(ctx context.Context, field string, id int64, role user.Role, roleErr string) error {
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.InvalidPKError(field, id)
		}
		return errors.Wrapf(err, "finding %s", field)
	}
	if !usr.HasRole(role) {
		return core.NewValidationError(errors.New(roleErr), core.FieldError{Field: field, Error: roleErr})
	}
	return nil
}

func (svc *Service) checkRefs(ctx context.Context, sponsorID, studentID int64) error {
	if err := svc.checkUser(ctx, "sponsor", sponsorID, user.RoleSponsor, errNotSponsor); err != nil {
		return err
	}
	return svc.checkUser(ctx, "student", studentID, user.RoleStudent, errNotStudent)
}

// Create persists the sponsorship and a notification for its sponsor, then emails the sponsor.
// A non-nil error with a non-zero Sponsorship means the sponsorship was saved but the email was not sent.
func (svc *Service) Create(ctx context.Context, ns NewSponsorship) (Sponsorship, error) {
	if err := svc.checkRefs(ctx, ns.Sponsor, ns.Student); err != nil {
		return Sponsorship{}, err
	}

	var s Sponsorship
	var outbox core.Outbox
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		var err error
		s, err = svc.repo.CreateSponsorship(ctx, Sponsorship{
			SponsorID: ns.Sponsor,
			StudentID: ns.Student,
			Amount:    *ns.Amount,
			FundedAt:  time.Now().UTC(),
		}, exec)
		if err != nil {
			return errors.Wrap(err, "creating sponsorship")
		}
		outbox, err = svc.notifier.SponsorshipCreated(ctx, s, exec)
		return errors.Wrap(err, "notifying sponsor")
	})
	if err != nil {
		return Sponsorship{}, err
	}
	return s, svc.notifier.Deliver(ctx, outbox)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Sponsorship, error) {
	return svc.repo.QuerySponsorships(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id int64) (Sponsorship, error) {
	return svc.repo.GetSponsorship(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int64, us UpdateSponsorship) (Sponsorship, error) {
	orig, err := svc.repo.GetSponsorship(ctx, id)
	if err != nil {
		return Sponsorship{}, err
	}
	s := us.apply(orig)
	if s.SponsorID != orig.SponsorID || s.StudentID != orig.StudentID {
		if err = svc.checkRefs(ctx, s.SponsorID, s.StudentID); err != nil {
			return Sponsorship{}, err
		}
	}
	s, err = svc.repo.UpdateSponsorship(ctx, s)
	return s, errors.Wrap(err, "updating sponsorship")
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteSponsorship(ctx, id)
}

// Stats returns the number and total amount of the sponsorships funded by sponsorID.
func (svc *Service) Stats(ctx context.Context, sponsorID int64) (Stats, error) {
	return svc.repo.SponsorStats(ctx, sponsorID)
}

func (svc *Service) trapTransactionExists(err error) error {
	if errors.Cause(err) == ErrTransactionExists {
		return core.NewValidationError(ErrTransactionExists, core.FieldError{Field: "transaction_id", Error: ErrTransactionExists.Error()})
	}
	return err
}

func (svc *Service) CreatePayment(ctx context.Context, np NewPayment) (Payment, error) {
	if err := svc.checkUser(ctx, "sponsor", np.Sponsor, user.RoleSponsor, errNotSponsor); err != nil {
		return Payment{}, err
	}
	p := Payment{
		SponsorID:     np.Sponsor,
		Amount:        *np.Amount,
		TransactionID: np.TransactionID,
		Status:        np.Status,
		CreatedAt:     time.Now().UTC(),
	}
	if p.TransactionID == "" {
		p.TransactionID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	p, err := svc.repo.CreatePayment(ctx, p)
	if err != nil {
		return Payment{}, svc.trapTransactionExists(errors.Wrap(err, "creating payment"))
	}
	return p, nil
}

func (svc *Service) QueryPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, filter)
}

func (svc *Service) GetPayment(ctx context.Context, id int64) (Payment, error) {
	return svc.repo.GetPayment(ctx, id)
}

func (svc *Service) UpdatePayment(ctx context.Context, id int64, up UpdatePayment) (Payment, error) {
	orig, err := svc.repo.GetPayment(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	p := up.apply(orig)
	if p.SponsorID != orig.SponsorID {
		if err = svc.checkUser(ctx, "sponsor", p.SponsorID, user.RoleSponsor, errNotSponsor); err != nil {
			return Payment{}, err
		}
	}
	p, err = svc.repo.UpdatePayment(ctx, p)
	if err != nil {
		return Payment{}, svc.trapTransactionExists(errors.Wrap(err, "updating payment"))
	}
	return p, nil
}

func (svc *Service) DeletePayment(ctx context.Context, id int64) error {
	return svc.repo.DeletePayment(ctx, id)
}
