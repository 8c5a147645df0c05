package doctor

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

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	normalize(d)
	if err := validate(d); err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkEmail(ctx, d.Email, 0); err != nil {
			return err
		}
		return s.repo.Create(ctx, d)
	})
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Detail, error) {
	return s.repo.GetDetail(ctx, id, s.now())
}

func (s *Service) UpdateDoctor(ctx context.Context, id int64, in UpdateInput) (*Doctor, error) {
	if in.IsEmpty() {
		return nil, apperr.Validation("no fields to update")
	}
	var out *Doctor
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		in.apply(d)
		normalize(d)
		if err := validate(d); err != nil {
			return err
		}
		if in.Email != nil {
			if err := s.checkEmail(ctx, d.Email, id); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

// DeleteDoctor removes a doctor with no appointments. The row lock keeps a
// concurrent booking from slipping in between the count and the delete.
func (s *Service) DeleteDoctor(ctx context.Context, id int64) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		d, err := s.repo.GetDetail(ctx, id, s.now())
		if err != nil {
			return err
		}
		if d.AppointmentCount > 0 {
			return apperr.Conflict("Cannot delete doctor with existing appointments")
		}
		return s.repo.Delete(ctx, id)
	})
}

func (s *Service) ListDoctors(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Doctor, int, error) {
	return s.repo.List(ctx, f, sort, page)
}

func (s *Service) Specializations(ctx context.Context) ([]string, error) {
	return s.repo.Specializations(ctx)
}

func validate(d *Doctor) error {
	if d.FirstName == "" || d.LastName == "" {
		return apperr.Validation("first_name and last_name are required")
	}
	if d.Specialization == "" {
		return apperr.Validation("specialization is required")
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
