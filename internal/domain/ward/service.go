package ward

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/pkg/pagination"
	"github.com/hospital/hms/pkg/params"
)

type Service struct {
	tx     db.TxRunner
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(tx db.TxRunner, repo Repository, logger zerolog.Logger) *Service {
	return &Service{tx: tx, repo: repo, logger: logger, now: time.Now}
}

func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	w.Name = strings.TrimSpace(w.Name)
	w.Type = strings.TrimSpace(w.Type)
	if w.Name == "" || w.Type == "" {
		return apperr.Validation("ward_name and ward_type are required")
	}
	if w.Capacity <= 0 {
		return apperr.Validation("capacity must be a positive integer")
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, w)
	})
}

// GetWard returns the ward with its occupancy, who is in it now and the
// most recent discharges. The three reads are independent and run in parallel.
func (s *Service) GetWard(ctx context.Context, id int64) (*Detail, error) {
	var (
		occ       *Occupancy
		current   []*Occupant
		discharge []*Occupant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		occ, err = s.repo.GetOccupancy(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = s.repo.CurrentPatients(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		discharge, err = s.repo.RecentDischarges(gctx, id, recentDischargeLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	today := params.DateOf(s.now())
	for _, o := range append(current, discharge...) {
		end := today
		if o.DischargeDate != nil {
			end = *o.DischargeDate
		}
		o.LengthOfStay = params.DaysBetween(o.AdmissionDate, end)
	}
	return &Detail{Occupancy: occ, CurrentPatients: current, RecentDischarges: discharge}, nil
}

// GetOccupancy returns the ward and its current bed usage.
func (s *Service) GetOccupancy(ctx context.Context, id int64) (*Occupancy, error) {
	return s.repo.GetOccupancy(ctx, id)
}

func (s *Service) ListWards(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Occupancy, int, error) {
	return s.repo.List(ctx, f, sort, page)
}
