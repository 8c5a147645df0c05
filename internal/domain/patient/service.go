package patient

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/pkg/pagination"
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

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	normalize(p)
	if err := s.validate(p); err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkEmail(ctx, p.Email, 0); err != nil {
			return err
		}
		return s.repo.Create(ctx, p)
	})
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Detail, error) {
	return s.repo.GetDetail(ctx, id)
}

// GetPatientRef returns the bare patient row; other domains use it to check
// that a referenced patient exists.
func (s *Service) GetPatientRef(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, id int64, in UpdateInput) (*Patient, error) {
	if in.IsEmpty() {
		return nil, apperr.Validation("no fields to update")
	}
	var out *Patient
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		in.apply(p)
		normalize(p)
		if err := s.validate(p); err != nil {
			return err
		}
		if in.Email != nil {
			if err := s.checkEmail(ctx, p.Email, id); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// DeletePatient removes a patient that nothing references yet.
func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		d, err := s.repo.GetDetail(ctx, id)
		if err != nil {
			return err
		}
		if d.References() {
			return apperr.Conflict("Cannot delete patient with existing appointments, medical records, bills or admissions")
		}
		return s.repo.Delete(ctx, id)
	})
}

func (s *Service) ListPatients(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Patient, int, error) {
	return s.repo.List(ctx, f, sort, page)
}

func (s *Service) validate(p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return apperr.Validation("first_name and last_name are required")
	}
	switch p.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		return apperr.Validation("gender is required")
	}
	if p.DateOfBirth.IsZero() {
		return apperr.Validation("date_of_birth is required")
	}
	if p.DateOfBirth.After(s.now()) {
		return apperr.Validation("date_of_birth cannot be in the future")
	}
	return nil
}

func (s *Service) checkEmail(ctx context.Context, email *string, excludeID int64) error {
	if email == nil {
		return nil
	}
	taken, err := s.repo.EmailTaken(ctx, *email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("Email already exists")
	}
	return nil
}
