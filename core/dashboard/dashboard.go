// Package dashboard computes the read-only aggregates shown to admins and sponsors.
package dashboard

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/academia/core/sponsorship"
)

type (
	Counter interface {
		Count(ctx context.Context) (int, error)
	}

	ProgressAverager interface {
		Count(ctx context.Context) (int, error)
		AverageProgress(ctx context.Context) (float64, error)
	}

	SponsorStatter interface {
		Stats(ctx context.Context, sponsorID int64) (sponsorship.Stats, error)
	}

	AdminStats struct {
		TotalUsers       int `json:"total_users"`
		TotalCourses     int `json:"total_courses"`
		TotalEnrollments int `json:"total_enrollments"`
	}

	SponsorStats struct {
		TotalStudentsFunded int             `json:"total_students_funded"`
		TotalFunds          decimal.Decimal `json:"total_funds"`
		// AvgProgress averages every enrollment, not only those of the funded students.
		AvgProgress float64 `json:"avg_progress"`
	}

	Service struct {
		users        Counter
		courses      Counter
		enrollments  ProgressAverager
		sponsorships SponsorStatter
	}
)

func NewService(users, courses Counter, enrollments ProgressAverager, sponsorships SponsorStatter) *Service {
	return &Service{
		users:        users,
		courses:      courses,
		enrollments:  enrollments,
		sponsorships: sponsorships,
	}
}

func (svc *Service) Admin(ctx context.Context) (AdminStats, error) {
	var (
		stats AdminStats
		err   error
	)
	if stats.TotalUsers, err = svc.users.Count(ctx); err != nil {
		return AdminStats{}, errors.Wrap(err, "counting users")
	}
	if stats.TotalCourses, err = svc.courses.Count(ctx); err != nil {
		return AdminStats{}, errors.Wrap(err, "counting courses")
	}
	if stats.TotalEnrollments, err = svc.enrollments.Count(ctx); err != nil {
		return AdminStats{}, errors.Wrap(err, "counting enrollments")
	}
	return stats, nil
}

func (svc *Service) Sponsor(ctx context.Context, sponsorID int64) (SponsorStats, error) {
	s, err := svc.sponsorships.Stats(ctx, sponsorID)
	if err != nil {
		return SponsorStats{}, errors.Wrap(err, "computing sponsorship stats")
	}
	avg, err := svc.enrollments.AverageProgress(ctx)
	if err != nil {
		return SponsorStats{}, errors.Wrap(err, "averaging progress")
	}
	return SponsorStats{
		TotalStudentsFunded: s.Count,
		TotalFunds:          s.Total,
		AvgProgress:         avg,
	}, nil
}
