package billing

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/metrics"
	"github.com/hospital/hms/pkg/pagination"
	"github.com/hospital/hms/pkg/params"
)

type Service struct {
	tx       db.TxRunner
	repo     Repository
	patients PatientReader
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(tx db.TxRunner, repo Repository, patients PatientReader, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{tx: tx, repo: repo, patients: patients, metrics: m, logger: logger, now: time.Now}
}

func (s *Service) CreateBill(ctx context.Context, in CreateInput) (*Details, error) {
	if in.PatientID <= 0 {
		return nil, apperr.Validation("patient_id is required")
	}
	amount := math.Round(in.Amount*100) / 100
	if math.IsNaN(in.Amount) || amount <= 0 {
		return nil, apperr.Validation("Amount must be a positive number")
	}
	if amount > MaxAmount {
		return nil, apperr.Validation("amount exceeds %.2f", MaxAmount)
	}
	date := params.DateOf(s.now())
	if in.BillDate != nil {
		date = params.DateOf(*in.BillDate)
	}

	var out *Details
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.Get(ctx, in.PatientID)
		if err != nil {
			return err
		}
		b := &Bill{PatientID: p.ID, BillDate: date, Amount: amount}
		if err := s.repo.Create(ctx, b); err != nil {
			return err
		}
		out = &Details{Bill: *b, PatientFirstName: p.FirstName, PatientLastName: p.LastName}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("bill_id", out.ID).Int64("patient_id", out.PatientID).Float64("amount", out.Amount).Msg("bill created")
	return out, nil
}

// PayBill marks a bill paid. Paying twice is a conflict so a retried payment
// is never recorded as a second one.
func (s *Service) PayBill(ctx context.Context, id int64) (*Details, error) {
	var out *Details
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Paid {
			s.metrics.Conflict("already_paid")
			return apperr.Conflict("Bill is already paid")
		}
		if err := s.repo.MarkPaid(ctx, id, s.now().UTC()); err != nil {
			return err
		}
		out, err = s.repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("bill_id", id).Msg("bill paid")
	return out, nil
}

func (s *Service) GetBill(ctx context.Context, id int64) (*Details, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListBills(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, 0, apperr.Validation("end date is before start date")
	}
	return s.repo.List(ctx, f, sort, page)
}

func (s *Service) Statistics(ctx context.Context, from, to *time.Time) (*Statistics, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.Validation("end date is before start date")
	}
	return s.repo.Statistics(ctx, from, to)
}

var _ PatientReader = (patient.Repository)(nil)
