package medicalrecord

import (
	"context"
	"fmt"
	"strings"

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

// Records without a doctor still list, hence the LEFT JOIN.
const detailsSelect = `
	SELECT r.record_id, r.patient_id, r.doctor_id, r.diagnosis, r.treatment, r.record_date, r.created_at,
		p.first_name, p.last_name, d.first_name, d.last_name, d.specialization
	FROM medical_records r
	JOIN patients p ON p.patient_id = r.patient_id
	LEFT JOIN doctors d ON d.doctor_id = r.doctor_id`

func scanDetails(row pgx.Row) (*Details, error) {
	var d Details
	rec := &d.Record
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.Diagnosis, &rec.Treatment, &rec.RecordDate, &rec.CreatedAt,
		&d.PatientFirstName, &d.PatientLastName, &d.DoctorFirstName, &d.DoctorLastName, &d.Specialization)
	if err != nil {
		return nil, apperr.FromPG(err, "Medical record")
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_records (patient_id, doctor_id, diagnosis, treatment, record_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING record_id, created_at`,
		rec.PatientID, rec.DoctorID, rec.Diagnosis, rec.Treatment, rec.RecordDate,
	).Scan(&rec.ID, &rec.CreatedAt)
	return apperr.FromPG(err, "Medical record")
}

func (r *repoPG) Get(ctx context.Context, id int64) (*Details, error) {
	return scanDetails(r.conn(ctx).QueryRow(ctx, detailsSelect+` WHERE r.record_id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("r.patient_id = $%d", len(args)))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		where = append(where, fmt.Sprintf("r.doctor_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(r.diagnosis ILIKE $%d OR r.treatment ILIKE $%d)", n, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_records r`+clause, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "Medical record")
	}
	rows, err := r.conn(ctx).Query(ctx, detailsSelect+clause+` `+sort.SQL()+`, r.record_id `+page.SQL(), args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "Medical record")
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
	return items, total, apperr.FromPG(rows.Err(), "Medical record")
}
