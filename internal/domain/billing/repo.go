package billing

import (
	"context"
	"time"

	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, b *Bill) error
	Get(ctx context.Context, id int64) (*Details, error)
	GetForUpdate(ctx context.Context, id int64) (*Bill, error)
	// MarkPaid sets paid and paid_at on an unpaid bill. A bill that is
	// already paid is a conflict.
	MarkPaid(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error)
	Statistics(ctx context.Context, from, to *time.Time) (*Statistics, error)
}

type PatientReader interface {
	Get(ctx context.Context, id int64) (*patient.Patient, error)
}

var SortColumns = pagination.Columns{
	"bill_id":   "b.bill_id",
	"bill_date": "b.bill_date",
	"amount":    "b.amount",
	"paid":      "b.paid",
}
