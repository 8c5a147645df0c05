package ward

import (
	"context"

	"github.com/hospital/hms/pkg/pagination"
)

const recentDischargeLimit = 20

type Repository interface {
	Create(ctx context.Context, w *Ward) error
	Get(ctx context.Context, id int64) (*Ward, error)
	// GetForUpdate locks the ward row. Admissions into one ward serialize on it.
	GetForUpdate(ctx context.Context, id int64) (*Ward, error)
	GetOccupancy(ctx context.Context, id int64) (*Occupancy, error)
	List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Occupancy, int, error)
	CurrentPatients(ctx context.Context, id int64) ([]*Occupant, error)
	RecentDischarges(ctx context.Context, id int64, limit int) ([]*Occupant, error)
}

// SortColumns is the closed set of list sort keys.
var SortColumns = pagination.Columns{
	"ward_name":      "w.ward_name",
	"ward_type":      "w.ward_type",
	"capacity":       "w.capacity",
	"occupancy_rate": "COUNT(a.admission_id)::float8 / w.capacity",
}
