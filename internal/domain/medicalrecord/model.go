package medicalrecord

import (
	"strings"
	"time"
)

// Record maps to the medical_records table.
type Record struct {
	ID         int64     `json:"record_id"`
	PatientID  int64     `json:"patient_id"`
	DoctorID   *int64    `json:"doctor_id"`
	Diagnosis  string    `json:"diagnosis"`
	Treatment  string    `json:"treatment"`
	RecordDate time.Time `json:"record_date"`
	CreatedAt  time.Time `json:"created_at"`
}

type Details struct {
	Record
	PatientFirstName string  `json:"patient_first_name"`
	PatientLastName  string  `json:"patient_last_name"`
	DoctorFirstName  *string `json:"doctor_first_name"`
	DoctorLastName   *string `json:"doctor_last_name"`
	Specialization   *string `json:"specialization"`
}

type CreateInput struct {
	PatientID  int64
	DoctorID   *int64
	Diagnosis  string
	Treatment  string
	RecordDate *time.Time
}

func (in *CreateInput) normalize() {
	in.Diagnosis = strings.TrimSpace(in.Diagnosis)
	in.Treatment = strings.TrimSpace(in.Treatment)
}

type ListFilter struct {
	PatientID *int64
	DoctorID  *int64
	Search    string
}
