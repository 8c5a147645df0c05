package appointment

import (
	"strings"
	"time"

	"github.com/hospital/hms/internal/domain/doctor"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/platform/apperr"
)

// ConflictWindow is how close two active appointments of one doctor may be.
// Appointments exactly one window apart do not conflict.
const ConflictWindow = time.Hour

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
	StatusNoShow    Status = "No-Show"

	// StatusOverdue is reported for Scheduled appointments in the past. It
	// is never stored.
	StatusOverdue Status = "Overdue"
)

// Active reports whether appointments in this status occupy the doctor's
// time and so count toward conflicts.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusCompleted
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// ParseStatus matches the stored values case-insensitively.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	for _, s := range []Status{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow} {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", apperr.Validation("invalid status")
}

// Appointment maps to the appointments table. AppointmentDate is UTC.
type Appointment struct {
	ID              int64     `json:"appointment_id"`
	PatientID       int64     `json:"patient_id"`
	DoctorID        int64     `json:"doctor_id"`
	AppointmentDate time.Time `json:"appointment_date"`
	Status          Status    `json:"status"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Details is an appointment joined with patient and doctor display fields.
type Details struct {
	Appointment
	PatientFirstName string `json:"patient_first_name"`
	PatientLastName  string `json:"patient_last_name"`
	DoctorFirstName  string `json:"doctor_first_name"`
	DoctorLastName   string `json:"doctor_last_name"`
	Specialization   string `json:"specialization"`
	ComputedStatus   Status `json:"computed_status"`
}

type CreateInput struct {
	PatientID       int64
	DoctorID        int64
	AppointmentDate time.Time
	// Status defaults to Scheduled when empty.
	Status Status
	Notes  *string
}

type CreateResult struct {
	Appointment *Appointment     `json:"appointment"`
	Patient     *patient.Patient `json:"patient"`
	Doctor      *doctor.Doctor   `json:"doctor"`
}

// UpdateInput holds the fields a client supplied. Nil means unchanged.
type UpdateInput struct {
	AppointmentDate *time.Time
	DoctorID        *int64
	Status          *Status
	Notes           *string
}

func (in UpdateInput) IsEmpty() bool {
	return in.AppointmentDate == nil && in.DoctorID == nil && in.Status == nil && in.Notes == nil
}

func (in UpdateInput) apply(a *Appointment) {
	if in.AppointmentDate != nil {
		a.AppointmentDate = in.AppointmentDate.UTC()
	}
	if in.DoctorID != nil {
		a.DoctorID = *in.DoctorID
	}
	if in.Status != nil {
		a.Status = *in.Status
	}
	if in.Notes != nil {
		a.Notes = in.Notes
	}
}

type ListFilter struct {
	Search         string
	Status         Status
	DoctorID       *int64
	PatientID      *int64
	Specialization string
	From           *time.Time
	To             *time.Time
}

type Statistics struct {
	Total            int                   `json:"total_appointments"`
	Scheduled        int                   `json:"scheduled_appointments"`
	Completed        int                   `json:"completed_appointments"`
	Cancelled        int                   `json:"cancelled_appointments"`
	NoShow           int                   `json:"no_show_appointments"`
	UniquePatients   int                   `json:"unique_patients"`
	ActiveDoctors    int                   `json:"active_doctors"`
	BySpecialization []*SpecializationStat `json:"by_specialization"`
}

type SpecializationStat struct {
	Specialization   string   `json:"specialization" db:"specialization"`
	AppointmentCount int      `json:"appointment_count" db:"appointment_count"`
	CompletedCount   int      `json:"completed_count" db:"completed_count"`
	CompletionRate   *float64 `json:"completion_rate" db:"completion_rate"`
}

// Upcoming is a Scheduled appointment that has not started yet.
type Upcoming struct {
	*Details
	HoursUntil float64 `json:"hours_until_appointment"`
}

const conflictMessage = "Doctor has a conflicting appointment within 1 hour of this time"
