package appointment

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/domain/doctor"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/metrics"
	"github.com/hospital/hms/pkg/pagination"
)

const (
	DefaultUpcomingLimit = 20
	MaxUpcomingLimit     = 100
)

type Service struct {
	tx       db.TxRunner
	repo     Repository
	patients PatientReader
	doctors  DoctorLocker
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(tx db.TxRunner, repo Repository, patients PatientReader, doctors DoctorLocker,
	m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		patients: patients,
		doctors:  doctors,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateAppointment books a patient with a doctor.
//
// The doctor row stays locked from the conflict check until commit, so two
// bookings for the same doctor cannot both pass the check.
func (s *Service) CreateAppointment(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if in.PatientID <= 0 || in.DoctorID <= 0 {
		return nil, apperr.Validation("patient_id and doctor_id are required")
	}
	if in.AppointmentDate.IsZero() {
		return nil, apperr.Validation("appointment_date is required")
	}
	status := in.Status
	if status == "" {
		status = StatusScheduled
	}
	if !status.Valid() {
		return nil, apperr.Validation("invalid status")
	}

	var res *CreateResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.Get(ctx, in.PatientID)
		if err != nil {
			return err
		}
		d, err := s.doctors.GetForUpdate(ctx, in.DoctorID)
		if err != nil {
			return err
		}

		a := &Appointment{
			PatientID:       p.ID,
			DoctorID:        d.ID,
			AppointmentDate: in.AppointmentDate.UTC(),
			Status:          status,
			Notes:           in.Notes,
		}
		if status.Active() {
			if err := s.checkConflict(ctx, a); err != nil {
				return err
			}
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		res = &CreateResult{Appointment: a, Patient: p, Doctor: d}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("appointment_id", res.Appointment.ID).
		Int64("doctor_id", res.Doctor.ID).
		Time("appointment_date", res.Appointment.AppointmentDate).
		Msg("appointment booked")
	return res, nil
}

// UpdateAppointment applies the supplied fields. The conflict check runs
// again when the slot moves (new time or new doctor) or when an inactive
// appointment becomes active. A notes-only change never touches the doctor.
func (s *Service) UpdateAppointment(ctx context.Context, id int64, in UpdateInput) (*Appointment, error) {
	if in.IsEmpty() {
		return nil, apperr.Validation("no fields to update")
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.Validation("invalid status")
	}
	if in.DoctorID != nil && *in.DoctorID <= 0 {
		return nil, apperr.Validation("invalid doctor_id")
	}
	if in.AppointmentDate != nil && in.AppointmentDate.IsZero() {
		return nil, apperr.Validation("invalid date")
	}

	var out *Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before := *a
		in.apply(a)

		doctorChanged := a.DoctorID != before.DoctorID
		slotMoved := doctorChanged || !a.AppointmentDate.Equal(before.AppointmentDate)
		reactivated := !before.Status.Active() && a.Status.Active()

		if doctorChanged || (a.Status.Active() && (slotMoved || reactivated)) {
			// Locks the effective doctor and, for a new doctor, checks it exists.
			if _, err := s.doctors.GetForUpdate(ctx, a.DoctorID); err != nil {
				return err
			}
		}
		if a.Status.Active() && (slotMoved || reactivated) {
			if err := s.checkConflict(ctx, a); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelAppointment marks an appointment Cancelled. The row is kept.
func (s *Service) CancelAppointment(ctx context.Context, id int64) (*Appointment, error) {
	var out *Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != StatusCancelled {
			a.Status = StatusCancelled
			if err := s.repo.Update(ctx, a); err != nil {
				return err
			}
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("appointment_id", id).Msg("appointment cancelled")
	return out, nil
}

// checkConflict must run with the doctor row locked.
func (s *Service) checkConflict(ctx context.Context, a *Appointment) error {
	other, err := s.repo.FindConflict(ctx, a.DoctorID, a.AppointmentDate, a.ID)
	if err != nil {
		return err
	}
	if other != nil {
		s.metrics.Conflict("appointment_overlap")
		s.logger.Info().
			Int64("doctor_id", a.DoctorID).
			Time("requested", a.AppointmentDate).
			Int64("conflicting_appointment_id", other.ID).
			Msg("appointment rejected, doctor busy")
		return apperr.Conflict(conflictMessage)
	}
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*Details, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.computeStatus(d)
	return d, nil
}

func (s *Service) ListAppointments(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, 0, apperr.Validation("end date is before start date")
	}
	items, total, err := s.repo.List(ctx, f, sort, page)
	if err != nil {
		return nil, 0, err
	}
	for _, d := range items {
		s.computeStatus(d)
	}
	return items, total, nil
}

func (s *Service) Statistics(ctx context.Context, from, to *time.Time) (*Statistics, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.Validation("end date is before start date")
	}
	return s.repo.Statistics(ctx, from, to)
}

func (s *Service) Upcoming(ctx context.Context, doctorID *int64, limit int) ([]*Upcoming, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	if limit > MaxUpcomingLimit {
		limit = MaxUpcomingLimit
	}
	now := s.now().UTC()
	items, err := s.repo.Upcoming(ctx, now, doctorID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*Upcoming, 0, len(items))
	for _, d := range items {
		s.computeStatus(d)
		out = append(out, &Upcoming{Details: d, HoursUntil: d.AppointmentDate.Sub(now).Hours()})
	}
	return out, nil
}

func (s *Service) computeStatus(d *Details) {
	d.ComputedStatus = d.Status
	if d.Status == StatusScheduled && d.AppointmentDate.Before(s.now()) {
		d.ComputedStatus = StatusOverdue
	}
}

var (
	_ PatientReader = (patient.Repository)(nil)
	_ DoctorLocker  = (doctor.Repository)(nil)
)
