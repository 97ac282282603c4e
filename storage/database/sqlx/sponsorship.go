package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/sponsorship"
)

var paymentConstraints = map[string]error{
	"payments_transaction_id_key": sponsorship.ErrTransactionExists,
}

type sponsorshipRepository struct {
	baseRepository
}

var _ sponsorship.Repository = (*sponsorshipRepository)(nil)

func NewSponsorshipRepository(db *sqlx.DB) sponsorship.Repository {
	return &sponsorshipRepository{baseRepository{db: db}}
}

func (repo sponsorshipRepository) selectSponsorships() sq.SelectBuilder {
	return psql.Select(
		"s.id", "s.sponsor_id", "sp.email AS sponsor_email",
		"s.student_id", "st.email AS student_email", "s.amount", "s.funded_at",
	).
		From("sponsorships s").
		Join("users sp ON sp.id = s.sponsor_id").
		Join("users st ON st.id = s.student_id")
}

func (repo sponsorshipRepository) selectPayments() sq.SelectBuilder {
	return psql.Select(
		"p.id", "p.sponsor_id", "u.email AS sponsor_email",
		"p.amount", "p.transaction_id", "p.status", "p.created_at",
	).
		From("payments p").
		Join("users u ON u.id = p.sponsor_id")
}

func (repo sponsorshipRepository) CreateSponsorship(ctx context.Context, s sponsorship.Sponsorship, exec ...core.DBExecutor) (sponsorship.Sponsorship, error) {
	q := psql.Insert("sponsorships").
		Columns("sponsor_id", "student_id", "amount", "funded_at").
		Values(s.SponsorID, s.StudentID, s.Amount, s.FundedAt)
	id, err := repo.insert(ctx, exec, q)
	if err != nil {
		return sponsorship.Sponsorship{}, errors.Wrap(err, "inserting sponsorship")
	}
	return repo.GetSponsorship(ctx, id, exec...)
}

func (repo sponsorshipRepository) QuerySponsorships(ctx context.Context, filter sponsorship.QueryFilter, exec ...core.DBExecutor) ([]sponsorship.Sponsorship, error) {
	q := repo.selectSponsorships().OrderBy("s.id")
	if filter.SponsorID != 0 {
		q = q.Where(sq.Eq{"s.sponsor_id": filter.SponsorID})
	}
	if filter.StudentID != 0 {
		q = q.Where(sq.Eq{"s.student_id": filter.StudentID})
	}
	sponsorships := make([]sponsorship.Sponsorship, 0)
	if err := repo.selectAll(ctx, exec, &sponsorships, q); err != nil {
		return nil, errors.Wrap(err, "querying sponsorships")
	}
	return sponsorships, nil
}

func (repo sponsorshipRepository) GetSponsorship(ctx context.Context, id int64, exec ...core.DBExecutor) (sponsorship.Sponsorship, error) {
	var s sponsorship.Sponsorship
	if err := repo.get(ctx, exec, &s, repo.selectSponsorships().Where(sq.Eq{"s.id": id})); err != nil {
		return sponsorship.Sponsorship{}, trapNoRowsErr(err, sponsorship.ErrNotFound, "getting sponsorship")
	}
	return s, nil
}

func (repo sponsorshipRepository) UpdateSponsorship(ctx context.Context, s sponsorship.Sponsorship, exec ...core.DBExecutor) (sponsorship.Sponsorship, error) {
	q := psql.Update("sponsorships").
		SetMap(map[string]interface{}{
			"sponsor_id": s.SponsorID,
			"student_id": s.StudentID,
			"amount":     s.Amount,
		}).
		Where(sq.Eq{"id": s.ID})
	res, err := repo.execute(ctx, exec, q)
	if err != nil {
		return sponsorship.Sponsorship{}, errors.Wrap(err, "updating sponsorship")
	}
	if err = checkAffected(res, sponsorship.ErrNotFound); err != nil {
		return sponsorship.Sponsorship{}, err
	}
	return repo.GetSponsorship(ctx, s.ID, exec...)
}

func (repo sponsorshipRepository) DeleteSponsorship(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	return repo.deleteByID(ctx, exec, "sponsorships", id, sponsorship.ErrNotFound)
}

func (repo sponsorshipRepository) SponsorStats(ctx context.Context, sponsorID int64, exec ...core.DBExecutor) (sponsorship.Stats, error) {
	q, args, err := psql.Select("COUNT(*)", "COALESCE(SUM(amount), 0)").
		From("sponsorships").
		Where(sq.Eq{"sponsor_id": sponsorID}).
		ToSql()
	if err != nil {
		return sponsorship.Stats{}, errors.Wrap(err, "building query")
	}
	var stats sponsorship.Stats
	if err = repo.getExec(exec).QueryRowxContext(ctx, q, args...).Scan(&stats.Count, &stats.Total); err != nil {
		return sponsorship.Stats{}, errors.Wrap(err, "computing sponsor stats")
	}
	return stats, nil
}

func (repo sponsorshipRepository) CreatePayment(ctx context.Context, p sponsorship.Payment, exec ...core.DBExecutor) (sponsorship.Payment, error) {
	q := psql.Insert("payments").
		Columns("sponsor_id", "amount", "transaction_id", "status", "created_at").
		Values(p.SponsorID, p.Amount, p.TransactionID, p.Status, p.CreatedAt)
	id, err := repo.insert(ctx, exec, q)
	if err != nil {
		return sponsorship.Payment{}, errors.Wrap(trapUniqueErr(err, paymentConstraints), "inserting payment")
	}
	return repo.GetPayment(ctx, id, exec...)
}

func (repo sponsorshipRepository) QueryPayments(ctx context.Context, filter sponsorship.PaymentFilter, exec ...core.DBExecutor) ([]sponsorship.Payment, error) {
	q := repo.selectPayments().OrderBy("p.id")
	if filter.Status != "" {
		q = q.Where(sq.Eq{"p.status": filter.Status})
	}
	if filter.SponsorID != 0 {
		q = q.Where(sq.Eq{"p.sponsor_id": filter.SponsorID})
	}
	payments := make([]sponsorship.Payment, 0)
	if err := repo.selectAll(ctx, exec, &payments, q); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments, nil
}

func (repo sponsorshipRepository) GetPayment(ctx context.Context, id int64, exec ...core.DBExecutor) (sponsorship.Payment, error) {
	var p sponsorship.Payment
	if err := repo.get(ctx, exec, &p, repo.selectPayments().Where(sq.Eq{"p.id": id})); err != nil {
		return sponsorship.Payment{}, trapNoRowsErr(err, sponsorship.ErrPaymentNotFound, "getting payment")
	}
	return p, nil
}

func (repo sponsorshipRepository) UpdatePayment(ctx context.Context, p sponsorship.Payment, exec ...core.DBExecutor) (sponsorship.Payment, error) {
	q := psql.Update("payments").
		SetMap(map[string]interface{}{
			"sponsor_id":     p.SponsorID,
			"amount":         p.Amount,
			"transaction_id": p.TransactionID,
			"status":         p.Status,
		}).
		Where(sq.Eq{"id": p.ID})
	res, err := repo.execute(ctx, exec, q)
	if err != nil {
		return sponsorship.Payment{}, errors.Wrap(trapUniqueErr(err, paymentConstraints), "updating payment")
	}
	if err = checkAffected(res, sponsorship.ErrPaymentNotFound); err != nil {
		return sponsorship.Payment{}, err
	}
	return repo.GetPayment(ctx, p.ID, exec...)
}

func (repo sponsorshipRepository) DeletePayment(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	return repo.deleteByID(ctx, exec, "payments", id, sponsorship.ErrPaymentNotFound)
}
