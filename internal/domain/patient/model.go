package patient

import (
	"strings"
	"time"

	"github.com/hospital/hms/internal/platform/apperr"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

// ParseGender accepts the stored codes and their spelled-out forms in any case.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return GenderMale, nil
	case "f", "female":
		return GenderFemale, nil
	case "o", "other":
		return GenderOther, nil
	}
	return "", apperr.Validation("invalid gender %q, expected Male, Female or Other", s)
}

// Patient maps to the patients table.
type Patient struct {
	ID          int64     `json:"patient_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Gender      Gender    `json:"gender"`
	DateOfBirth time.Time `json:"date_of_birth"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Address     *string   `json:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Detail is a patient together with how much of the hospital record
// references it.
type Detail struct {
	Patient
	AppointmentCount   int    `json:"appointment_count"`
	MedicalRecordCount int    `json:"medical_record_count"`
	BillCount          int    `json:"bill_count"`
	AdmissionCount     int    `json:"admission_count"`
	CurrentAdmissionID *int64 `json:"current_admission_id,omitempty"`
}

// References reports whether any row still points at the patient.
func (d *Detail) References() bool {
	return d.AppointmentCount+d.MedicalRecordCount+d.BillCount+d.AdmissionCount > 0
}

// UpdateInput lists the fields a patient update may change. Nil fields keep
// their stored value.
type UpdateInput struct {
	FirstName   *string
	LastName    *string
	Gender      *Gender
	DateOfBirth *time.Time
	PhoneNumber *string
	Email       *string
	Address     *string
}

func (in UpdateInput) IsEmpty() bool {
	return in.FirstName == nil && in.LastName == nil && in.Gender == nil &&
		in.DateOfBirth == nil && in.PhoneNumber == nil && in.Email == nil && in.Address == nil
}

func (in UpdateInput) apply(p *Patient) {
	if in.FirstName != nil {
		p.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		p.LastName = *in.LastName
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.DateOfBirth != nil {
		p.DateOfBirth = *in.DateOfBirth
	}
	if in.PhoneNumber != nil {
		p.PhoneNumber = in.PhoneNumber
	}
	if in.Email != nil {
		p.Email = in.Email
	}
	if in.Address != nil {
		p.Address = in.Address
	}
}

type ListFilter struct {
	Search string
	Gender *Gender
}

// normalize trims names and lowercases the email; an empty optional string
// is stored as NULL.
func normalize(p *Patient) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.PhoneNumber = trimOptional(p.PhoneNumber)
	p.Address = trimOptional(p.Address)
	if p.Email = trimOptional(p.Email); p.Email != nil {
		lower := strings.ToLower(*p.Email)
		p.Email = &lower
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
