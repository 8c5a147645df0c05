package appointment

import (
	"context"
	"time"

	"github.com/hospital/hms/internal/domain/doctor"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/pkg/pagination"
)

type Repository interface {
	// Create inserts a. A row that would overlap another active appointment
	// of the same doctor is rejected with a conflict.
	Create(ctx context.Context, a *Appointment) error
	Get(ctx context.Context, id int64) (*Details, error)
	GetForUpdate(ctx context.Context, id int64) (*Appointment, error)
	// FindConflict returns an active appointment of doctorID strictly less
	// than ConflictWindow away from at, ignoring excludeID. It returns nil
	// when there is none.
	FindConflict(ctx context.Context, doctorID int64, at time.Time, excludeID int64) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error)
	Statistics(ctx context.Context, from, to *time.Time) (*Statistics, error)
	// Upcoming lists Scheduled appointments at or after now, earliest first.
	Upcoming(ctx context.Context, now time.Time, doctorID *int64, limit int) ([]*Details, error)
}

// PatientReader looks up the patient an appointment is booked for.
type PatientReader interface {
	Get(ctx context.Context, id int64) (*patient.Patient, error)
}

// DoctorLocker locks a doctor row for the rest of the unit of work.
type DoctorLocker interface {
	GetForUpdate(ctx context.Context, id int64) (*doctor.Doctor, error)
}

var SortColumns = pagination.Columns{
	"appointment_date": "a.appointment_date",
	"status":           "a.status",
	"patient_name":     "p.last_name",
	"doctor_name":      "d.last_name",
	"created_at":       "a.created_at",
}
