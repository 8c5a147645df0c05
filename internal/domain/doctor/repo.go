package doctor

import (
	"context"
	"time"

	"github.com/hospital/hms/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	Get(ctx context.Context, id int64) (*Doctor, error)
	// GetForUpdate locks the doctor row. Every booking for the doctor takes
	// this lock, so conflict checks for one doctor run one at a time.
	GetForUpdate(ctx context.Context, id int64) (*Doctor, error)
	GetDetail(ctx context.Context, id int64, now time.Time) (*Detail, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id int64) error
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Doctor, int, error)
	Specializations(ctx context.Context) ([]string, error)
}

var SortColumns = pagination.Columns{
	"doctor_id":      "doctor_id",
	"first_name":     "first_name",
	"last_name":      "last_name",
	"specialization": "specialization",
	"created_at":     "created_at",
}
