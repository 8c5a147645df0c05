package admission

import (
	"time"

	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/domain/ward"
)

// Admission maps to the admissions table. An admission with no discharge
// date is current: the patient occupies a bed in the ward.
type Admission struct {
	ID            int64      `json:"admission_id"`
	PatientID     int64      `json:"patient_id"`
	WardID        int64      `json:"ward_id"`
	AdmissionDate time.Time  `json:"admission_date"`
	DischargeDate *time.Time `json:"discharge_date"`
}

func (a *Admission) Current() bool {
	return a.DischargeDate == nil
}

// Details is an admission joined with the display fields of its patient and
// ward.
type Details struct {
	Admission
	PatientFirstName string `json:"first_name"`
	PatientLastName  string `json:"last_name"`
	WardName         string `json:"ward_name"`
	WardType         string `json:"ward_type"`
	LengthOfStay     int    `json:"length_of_stay"`
}

type AdmitInput struct {
	PatientID     int64
	WardID        int64
	AdmissionDate *time.Time
}

// AdmitResult carries the rows read while validating the admission.
type AdmitResult struct {
	Admission *Admission       `json:"admission"`
	Patient   *patient.Patient `json:"patient"`
	Ward      *ward.Ward       `json:"ward"`
}

type ListFilter struct {
	PatientID *int64
	WardID    *int64
	// Current selects current (true) or discharged (false) admissions.
	Current *bool
}
