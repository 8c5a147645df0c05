package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/pkg/pagination"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const billCols = `b.bill_id, b.patient_id, b.bill_date, b.amount::float8, b.paid, b.paid_at, b.created_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	if err := row.Scan(&b.ID, &b.PatientID, &b.BillDate, &b.Amount, &b.Paid, &b.PaidAt, &b.CreatedAt); err != nil {
		return nil, apperr.FromPG(err, "Bill")
	}
	return &b, nil
}

func scanDetails(row pgx.Row) (*Details, error) {
	var d Details
	b := &d.Bill
	err := row.Scan(&b.ID, &b.PatientID, &b.BillDate, &b.Amount, &b.Paid, &b.PaidAt, &b.CreatedAt,
		&d.PatientFirstName, &d.PatientLastName)
	if err != nil {
		return nil, apperr.FromPG(err, "Bill")
	}
	return &d, nil
}

const detailsSelect = `SELECT ` + billCols + `, p.first_name, p.last_name
	FROM billing b
	JOIN patients p ON p.patient_id = b.patient_id`

func (r *repoPG) Create(ctx context.Context, b *Bill) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO billing (patient_id, bill_date, amount)
		VALUES ($1, $2, $3)
		RETURNING bill_id, paid, created_at`,
		b.PatientID, b.BillDate, b.Amount,
	).Scan(&b.ID, &b.Paid, &b.CreatedAt)
	return apperr.FromPG(err, "Bill")
}

func (r *repoPG) Get(ctx context.Context, id int64) (*Details, error) {
	return scanDetails(r.conn(ctx).QueryRow(ctx, detailsSelect+` WHERE b.bill_id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id int64) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM billing b WHERE b.bill_id = $1 FOR UPDATE`, id))
}

func (r *repoPG) MarkPaid(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE billing SET paid = TRUE, paid_at = $2 WHERE bill_id = $1 AND paid = FALSE`, id, at)
	if err != nil {
		return apperr.FromPG(err, "Bill")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("Bill is already paid")
	}
	return nil
}

func filterClause(f ListFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("b.patient_id = $%d", len(args)))
	}
	if f.Paid != nil {
		args = append(args, *f.Paid)
		where = append(where, fmt.Sprintf("b.paid = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("b.bill_date >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("b.bill_date <= $%d", len(args)))
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *repoPG) List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error) {
	clause, args := filterClause(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM billing b`+clause, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "Bill")
	}
	rows, err := r.conn(ctx).Query(ctx, detailsSelect+clause+` `+sort.SQL()+`, b.bill_id `+page.SQL(), args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "Bill")
	}
	defer rows.Close()
	items := []*Details{}
	for rows.Next() {
		d, err := scanDetails(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, apperr.FromPG(rows.Err(), "Bill")
}

func (r *repoPG) Statistics(ctx context.Context, from, to *time.Time) (*Statistics, error) {
	clause, args := filterClause(ListFilter{From: from, To: to})

	var s Statistics
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(b.amount), 0)::float8,
			COALESCE(SUM(b.amount) FILTER (WHERE b.paid), 0)::float8,
			COALESCE(SUM(b.amount) FILTER (WHERE NOT b.paid), 0)::float8,
			COUNT(*) FILTER (WHERE b.paid),
			COUNT(*) FILTER (WHERE NOT b.paid),
			COALESCE(ROUND(AVG(b.amount), 2), 0)::float8,
			COALESCE(MIN(b.amount), 0)::float8,
			COALESCE(MAX(b.amount), 0)::float8,
			COUNT(DISTINCT b.patient_id),
			COUNT(DISTINCT b.patient_id) FILTER (WHERE NOT b.paid)
		FROM billing b`+clause, args...,
	).Scan(&s.TotalBills, &s.TotalBilled, &s.TotalPaid, &s.TotalOutstanding,
		&s.PaidCount, &s.UnpaidCount, &s.AverageAmount, &s.MinAmount, &s.MaxAmount,
		&s.PatientsWithBills, &s.PatientsWithOutstanding)
	if err != nil {
		return nil, apperr.FromPG(err, "Bill")
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DATE_TRUNC('month', b.bill_date)::date AS month,
			COUNT(*)::int AS bills_count,
			SUM(b.amount)::float8 AS billed,
			COALESCE(SUM(b.amount) FILTER (WHERE b.paid), 0)::float8 AS collected
		FROM billing b`+clause+`
		GROUP BY 1
		ORDER BY 1 DESC
		LIMIT 12`, args...)
	if err != nil {
		return nil, apperr.FromPG(err, "Bill")
	}
	s.Monthly, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[MonthlyStat])
	if err != nil {
		return nil, apperr.FromPG(err, "Bill")
	}
	return &s, nil
}
