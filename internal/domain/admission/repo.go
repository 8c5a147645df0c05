package admission

import (
	"context"
	"time"

	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/domain/ward"
	"github.com/hospital/hms/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, a *Admission) error
	GetForUpdate(ctx context.Context, id int64) (*Admission, error)
	GetDetails(ctx context.Context, id int64) (*Details, error)
	// CurrentForPatient returns the patient's current admission, or nil.
	CurrentForPatient(ctx context.Context, patientID int64) (*Admission, error)
	CountCurrentInWard(ctx context.Context, wardID int64) (int, error)
	SetDischargeDate(ctx context.Context, id int64, date time.Time) error
	List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error)
}

// PatientLocker reads a patient under a row lock.
type PatientLocker interface {
	GetForUpdate(ctx context.Context, id int64) (*patient.Patient, error)
}

// WardLocker reads a ward under a row lock.
type WardLocker interface {
	GetForUpdate(ctx context.Context, id int64) (*ward.Ward, error)
}

var SortColumns = pagination.Columns{
	"admission_id":   "a.admission_id",
	"admission_date": "a.admission_date",
	"discharge_date": "a.discharge_date",
	"ward_name":      "w.ward_name",
	"last_name":      "p.last_name",
}
