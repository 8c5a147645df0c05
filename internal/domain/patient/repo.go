package patient

import (
	"context"

	"github.com/hospital/hms/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	Get(ctx context.Context, id int64) (*Patient, error)
	// GetForUpdate locks the patient row until the unit of work ends.
	GetForUpdate(ctx context.Context, id int64) (*Patient, error)
	GetDetail(ctx context.Context, id int64) (*Detail, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) error
	// EmailTaken reports whether another patient than excludeID uses email.
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Patient, int, error)
}

// SortColumns is the closed set of list sort keys.
var SortColumns = pagination.Columns{
	"patient_id":    "patient_id",
	"first_name":    "first_name",
	"last_name":     "last_name",
	"date_of_birth": "date_of_birth",
	"created_at":    "created_at",
}
