package admission

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/domain/ward"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/metrics"
	"github.com/hospital/hms/pkg/pagination"
	"github.com/hospital/hms/pkg/params"
)

type Service struct {
	tx       db.TxRunner
	repo     Repository
	patients PatientLocker
	wards    WardLocker
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(tx db.TxRunner, repo Repository, patients PatientLocker, wards WardLocker,
	m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		patients: patients,
		wards:    wards,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Admit places a patient in a ward bed.
//
// The patient row is locked first, then the ward row, and every admission
// takes them in that order. The patient lock keeps two admissions of the
// same patient from both seeing "not admitted". The ward lock keeps two
// admissions into the last free bed from both seeing spare capacity.
func (s *Service) Admit(ctx context.Context, in AdmitInput) (*AdmitResult, error) {
	if in.PatientID <= 0 || in.WardID <= 0 {
		return nil, apperr.Validation("patient_id and ward_id are required")
	}
	date := params.DateOf(s.now())
	if in.AdmissionDate != nil {
		date = params.DateOf(*in.AdmissionDate)
	}

	var res *AdmitResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.GetForUpdate(ctx, in.PatientID)
		if err != nil {
			return err
		}

		cur, err := s.repo.CurrentForPatient(ctx, p.ID)
		if err != nil {
			return err
		}
		if cur != nil {
			s.metrics.Conflict("already_admitted")
			return apperr.Conflict("Patient is already admitted (admission %d, ward %d)", cur.ID, cur.WardID)
		}

		w, err := s.wards.GetForUpdate(ctx, in.WardID)
		if err != nil {
			return err
		}
		occupied, err := s.repo.CountCurrentInWard(ctx, w.ID)
		if err != nil {
			return err
		}
		if occupied >= w.Capacity {
			s.metrics.Conflict("ward_full")
			s.logger.Info().
				Int64("patient_id", p.ID).
				Int64("ward_id", w.ID).
				Int("capacity", w.Capacity).
				Msg("admission rejected, ward at capacity")
			return apperr.Conflict("Ward %s is at full capacity (%d beds)", w.Name, w.Capacity)
		}

		a := &Admission{PatientID: p.ID, WardID: w.ID, AdmissionDate: date}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		res = &AdmitResult{Admission: a, Patient: p, Ward: w}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("admission_id", res.Admission.ID).
		Int64("patient_id", res.Patient.ID).
		Int64("ward_id", res.Ward.ID).
		Msg("patient admitted")
	return res, nil
}

// Discharge ends a current admission. A discharged admission is never
// reopened; re-admitting the patient creates a new row.
func (s *Service) Discharge(ctx context.Context, id int64, dischargeDate *time.Time) (*Details, error) {
	date := params.DateOf(s.now())
	if dischargeDate != nil {
		date = params.DateOf(*dischargeDate)
	}

	var out *Details
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !a.Current() {
			s.metrics.Conflict("already_discharged")
			return apperr.Conflict("Patient already discharged")
		}
		if date.Before(a.AdmissionDate) {
			return apperr.Validation("discharge date cannot be before admission date")
		}
		if err := s.repo.SetDischargeDate(ctx, id, date); err != nil {
			return err
		}
		d, err := s.repo.GetDetails(ctx, id)
		if err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.fillLengthOfStay(out)
	return out, nil
}

func (s *Service) GetAdmission(ctx context.Context, id int64) (*Details, error) {
	d, err := s.repo.GetDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fillLengthOfStay(d)
	return d, nil
}

func (s *Service) ListAdmissions(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error) {
	items, total, err := s.repo.List(ctx, f, sort, page)
	if err != nil {
		return nil, 0, err
	}
	for _, d := range items {
		s.fillLengthOfStay(d)
	}
	return items, total, nil
}

// fillLengthOfStay counts days to the discharge date, or to today while the
// admission is current.
func (s *Service) fillLengthOfStay(d *Details) {
	end := params.DateOf(s.now())
	if d.DischargeDate != nil {
		end = *d.DischargeDate
	}
	d.LengthOfStay = params.DaysBetween(d.AdmissionDate, end)
}

var (
	_ PatientLocker = (patient.Repository)(nil)
	_ WardLocker    = (ward.Repository)(nil)
)
