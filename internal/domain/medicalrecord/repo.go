package medicalrecord

import (
	"context"

	"github.com/hospital/hms/internal/domain/doctor"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, id int64) (*Details, error)
	List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error)
}

type PatientReader interface {
	Get(ctx context.Context, id int64) (*patient.Patient, error)
}

type DoctorReader interface {
	Get(ctx context.Context, id int64) (*doctor.Doctor, error)
}

var SortColumns = pagination.Columns{
	"record_id":   "r.record_id",
	"record_date": "r.record_date",
	"created_at":  "r.created_at",
}
