package medicalrecord

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/domain/doctor"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/pkg/pagination"
	"github.com/hospital/hms/pkg/params"
)

type Service struct {
	tx       db.TxRunner
	repo     Repository
	patients PatientReader
	doctors  DoctorReader
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(tx db.TxRunner, repo Repository, patients PatientReader, doctors DoctorReader, logger zerolog.Logger) *Service {
	return &Service{tx: tx, repo: repo, patients: patients, doctors: doctors, logger: logger, now: time.Now}
}

func (s *Service) CreateRecord(ctx context.Context, in CreateInput) (*Details, error) {
	in.normalize()
	if in.PatientID <= 0 || in.Diagnosis == "" || in.Treatment == "" {
		return nil, apperr.Validation("patient_id, diagnosis and treatment are required")
	}
	if in.DoctorID != nil && *in.DoctorID <= 0 {
		return nil, apperr.Validation("invalid doctor_id")
	}
	date := params.DateOf(s.now())
	if in.RecordDate != nil {
		date = params.DateOf(*in.RecordDate)
	}

	var out *Details
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.Get(ctx, in.PatientID)
		if err != nil {
			return err
		}
		out = &Details{PatientFirstName: p.FirstName, PatientLastName: p.LastName}
		if in.DoctorID != nil {
			d, err := s.doctors.Get(ctx, *in.DoctorID)
			if err != nil {
				return err
			}
			out.DoctorFirstName, out.DoctorLastName = &d.FirstName, &d.LastName
			out.Specialization = &d.Specialization
		}
		out.Record = Record{
			PatientID:  p.ID,
			DoctorID:   in.DoctorID,
			Diagnosis:  in.Diagnosis,
			Treatment:  in.Treatment,
			RecordDate: date,
		}
		return s.repo.Create(ctx, &out.Record)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("record_id", out.ID).Int64("patient_id", out.PatientID).Msg("medical record created")
	return out, nil
}

func (s *Service) GetRecord(ctx context.Context, id int64) (*Details, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListRecords(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error) {
	return s.repo.List(ctx, f, sort, page)
}

var (
	_ PatientReader = (patient.Repository)(nil)
	_ DoctorReader  = (doctor.Repository)(nil)
)
