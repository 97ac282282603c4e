package inmemdb

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/sponsorship"
)

type sponsorshipRepository struct {
	db *DB
}

var _ sponsorship.Repository = (*sponsorshipRepository)(nil)

func NewSponsorshipRepository(db *DB) sponsorship.Repository {
	return &sponsorshipRepository{db: db}
}

func (repo *sponsorshipRepository) fill(s sponsorship.Sponsorship) sponsorship.Sponsorship {
	s.SponsorEmail = repo.db.userEmail(s.SponsorID)
	s.StudentEmail = repo.db.userEmail(s.StudentID)
	return s
}

func (repo *sponsorshipRepository) fillPayment(p sponsorship.Payment) sponsorship.Payment {
	p.SponsorEmail = repo.db.userEmail(p.SponsorID)
	return p
}

func (repo *sponsorshipRepository) CreateSponsorship(_ context.Context, s sponsorship.Sponsorship, _ ...core.DBExecutor) (sponsorship.Sponsorship, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = repo.db.nextID("sponsorships")
	s = repo.fill(s)
	repo.db.sponsorships[s.ID] = &s
	return s, nil
}

func (repo *sponsorshipRepository) QuerySponsorships(_ context.Context, filter sponsorship.QueryFilter, _ ...core.DBExecutor) ([]sponsorship.Sponsorship, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sponsorships := make([]sponsorship.Sponsorship, 0)
	for _, s := range repo.db.sponsorships {
		if filter.SponsorID != 0 && s.SponsorID != filter.SponsorID {
			continue
		}
		if filter.StudentID != 0 && s.StudentID != filter.StudentID {
			continue
		}
		sponsorships = append(sponsorships, repo.fill(*s))
	}
	sort.Slice(sponsorships, func(i, j int) bool { return sponsorships[i].ID < sponsorships[j].ID })
	return sponsorships, nil
}

func (repo *sponsorshipRepository) GetSponsorship(_ context.Context, id int64, _ ...core.DBExecutor) (sponsorship.Sponsorship, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.sponsorships[id]; ok {
		return repo.fill(*s), nil
	}
	return sponsorship.Sponsorship{}, sponsorship.ErrNotFound
}

func (repo *sponsorshipRepository) UpdateSponsorship(_ context.Context, s sponsorship.Sponsorship, _ ...core.DBExecutor) (sponsorship.Sponsorship, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sponsorships[s.ID]; !ok {
		return sponsorship.Sponsorship{}, sponsorship.ErrNotFound
	}
	s = repo.fill(s)
	repo.db.sponsorships[s.ID] = &s
	return s, nil
}

func (repo *sponsorshipRepository) DeleteSponsorship(_ context.Context, id int64, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sponsorships[id]; !ok {
		return sponsorship.ErrNotFound
	}
	delete(repo.db.sponsorships, id)
	return nil
}

func (repo *sponsorshipRepository) SponsorStats(_ context.Context, sponsorID int64, _ ...core.DBExecutor) (sponsorship.Stats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	stats := sponsorship.Stats{Total: decimal.Zero}
	for _, s := range repo.db.sponsorships {
		if s.SponsorID == sponsorID {
			stats.Count++
			stats.Total = stats.Total.Add(s.Amount)
		}
	}
	return stats, nil
}

func (repo *sponsorshipRepository) checkTransaction(p sponsorship.Payment) error {
	for _, other := range repo.db.payments {
		if other.ID != p.ID && other.TransactionID == p.TransactionID {
			return sponsorship.ErrTransactionExists
		}
	}
	return nil
}

func (repo *sponsorshipRepository) CreatePayment(_ context.Context, p sponsorship.Payment, _ ...core.DBExecutor) (sponsorship.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkTransaction(p); err != nil {
		return sponsorship.Payment{}, err
	}
	p.ID = repo.db.nextID("payments")
	p = repo.fillPayment(p)
	repo.db.payments[p.ID] = &p
	return p, nil
}

func (repo *sponsorshipRepository) QueryPayments(_ context.Context, filter sponsorship.PaymentFilter, _ ...core.DBExecutor) ([]sponsorship.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	payments := make([]sponsorship.Payment, 0)
	for _, p := range repo.db.payments {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.SponsorID != 0 && p.SponsorID != filter.SponsorID {
			continue
		}
		payments = append(payments, repo.fillPayment(*p))
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return payments, nil
}

func (repo *sponsorshipRepository) GetPayment(_ context.Context, id int64, _ ...core.DBExecutor) (sponsorship.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.payments[id]; ok {
		return repo.fillPayment(*p), nil
	}
	return sponsorship.Payment{}, sponsorship.ErrPaymentNotFound
}

func (repo *sponsorshipRepository) UpdatePayment(_ context.Context, p sponsorship.Payment, _ ...core.DBExecutor) (sponsorship.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.payments[p.ID]; !ok {
		return sponsorship.Payment{}, sponsorship.ErrPaymentNotFound
	}
	if err := repo.checkTransaction(p); err != nil {
		return sponsorship.Payment{}, err
	}
	p = repo.fillPayment(p)
	repo.db.payments[p.ID] = &p
	return p, nil
}

func (repo *sponsorshipRepository) DeletePayment(_ context.Context, id int64, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.payments[id]; !ok {
		return sponsorship.ErrPaymentNotFound
	}
	delete(repo.db.payments, id)
	return nil
}
