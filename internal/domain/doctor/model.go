package doctor

import (
	"strings"
	"time"
)

// Doctor maps to the doctors table.
type Doctor struct {
	ID             int64     `json:"doctor_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Specialization string    `json:"specialization"`
	PhoneNumber    *string   `json:"phone_number,omitempty"`
	Email          *string   `json:"email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (d *Doctor) FullName() string {
	return "Dr. " + d.FirstName + " " + d.LastName
}

type Detail struct {
	Doctor
	AppointmentCount         int `json:"appointment_count"`
	UpcomingAppointmentCount int `json:"upcoming_appointment_count"`
	MedicalRecordCount       int `json:"medical_record_count"`
}

type UpdateInput struct {
	FirstName      *string
	LastName       *string
	Specialization *string
	PhoneNumber    *string
	Email          *string
}

func (in UpdateInput) IsEmpty() bool {
	return in.FirstName == nil && in.LastName == nil && in.Specialization == nil &&
		in.PhoneNumber == nil && in.Email == nil
}

func (in UpdateInput) apply(d *Doctor) {
	if in.FirstName != nil {
		d.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		d.LastName = *in.LastName
	}
	if in.Specialization != nil {
		d.Specialization = *in.Specialization
	}
	if in.PhoneNumber != nil {
		d.PhoneNumber = in.PhoneNumber
	}
	if in.Email != nil {
		d.Email = in.Email
	}
}

type ListFilter struct {
	Search         string
	Specialization string
}

func normalize(d *Doctor) {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Specialization = strings.TrimSpace(d.Specialization)
	d.PhoneNumber = trimOptional(d.PhoneNumber)
	if d.Email = trimOptional(d.Email); d.Email != nil {
		lower := strings.ToLower(*d.Email)
		d.Email = &lower
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
