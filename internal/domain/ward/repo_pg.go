package ward

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

const wardCols = `ward_id, ward_name, ward_type, capacity`

const occupancyFrom = `
	FROM wards w
	LEFT JOIN admissions a ON a.ward_id = w.ward_id AND a.discharge_date IS NULL`

func scanWard(row pgx.Row) (*Ward, error) {
	var w Ward
	if err := row.Scan(&w.ID, &w.Name, &w.Type, &w.Capacity); err != nil {
		return nil, apperr.FromPG(err, "Ward")
	}
	return &w, nil
}

func scanOccupancy(row pgx.Row) (*Occupancy, error) {
	var (
		w       Ward
		current int
	)
	if err := row.Scan(&w.ID, &w.Name, &w.Type, &w.Capacity, &current); err != nil {
		return nil, apperr.FromPG(err, "Ward")
	}
	return newOccupancy(w, current), nil
}

func (r *repoPG) Create(ctx context.Context, w *Ward) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO wards (ward_name, ward_type, capacity) VALUES ($1, $2, $3) RETURNING ward_id`,
		w.Name, w.Type, w.Capacity).Scan(&w.ID)
	return apperr.FromPG(err, "Ward")
}

func (r *repoPG) Get(ctx context.Context, id int64) (*Ward, error) {
	return scanWard(r.conn(ctx).QueryRow(ctx, `SELECT `+wardCols+` FROM wards WHERE ward_id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id int64) (*Ward, error) {
	return scanWard(r.conn(ctx).QueryRow(ctx, `SELECT `+wardCols+` FROM wards WHERE ward_id = $1 FOR UPDATE`, id))
}

func (r *repoPG) GetOccupancy(ctx context.Context, id int64) (*Occupancy, error) {
	return scanOccupancy(r.conn(ctx).QueryRow(ctx, `
		SELECT w.ward_id, w.ward_name, w.ward_type, w.capacity, COUNT(a.admission_id)`+occupancyFrom+`
		WHERE w.ward_id = $1
		GROUP BY w.ward_id`, id))
}

func (r *repoPG) List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Occupancy, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("w.ward_name ILIKE $%d", len(args)))
	}
	if t := strings.TrimSpace(f.Type); t != "" {
		args = append(args, t)
		where = append(where, fmt.Sprintf("w.ward_type = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	having := ""
	if f.Available != nil {
		if *f.Available {
			having = " HAVING COUNT(a.admission_id) < w.capacity"
		} else {
			having = " HAVING COUNT(a.admission_id) >= w.capacity"
		}
	}
	grouped := occupancyFrom + clause + ` GROUP BY w.ward_id` + having

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM (SELECT w.ward_id`+grouped+`) t`, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "Ward")
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT w.ward_id, w.ward_name, w.ward_type, w.capacity, COUNT(a.admission_id)`+
			grouped+` `+sort.SQL()+`, w.ward_id `+page.SQL(), args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "Ward")
	}
	defer rows.Close()
	items := []*Occupancy{}
	for rows.Next() {
		o, err := scanOccupancy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, apperr.FromPG(rows.Err(), "Ward")
}

const occupantSelect = `
	SELECT a.admission_id, p.patient_id, p.first_name, p.last_name, p.gender,
		a.admission_date, a.discharge_date
	FROM admissions a
	JOIN patients p ON p.patient_id = a.patient_id`

func (r *repoPG) CurrentPatients(ctx context.Context, id int64) ([]*Occupant, error) {
	return r.occupants(ctx, occupantSelect+`
		WHERE a.ward_id = $1 AND a.discharge_date IS NULL
		ORDER BY a.admission_date, a.admission_id`, id)
}

func (r *repoPG) RecentDischarges(ctx context.Context, id int64, limit int) ([]*Occupant, error) {
	return r.occupants(ctx, occupantSelect+`
		WHERE a.ward_id = $1 AND a.discharge_date IS NOT NULL
		ORDER BY a.discharge_date DESC, a.admission_id DESC
		LIMIT $2`, id, limit)
}

func (r *repoPG) occupants(ctx context.Context, sql string, args ...interface{}) ([]*Occupant, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.FromPG(err, "Ward")
	}
	defer rows.Close()
	out := []*Occupant{}
	for rows.Next() {
		var o Occupant
		if err := rows.Scan(&o.AdmissionID, &o.PatientID, &o.FirstName, &o.LastName, &o.Gender,
			&o.AdmissionDate, &o.DischargeDate); err != nil {
			return nil, apperr.FromPG(err, "Ward")
		}
		out = append(out, &o)
	}
	return out, apperr.FromPG(rows.Err(), "Ward")
}
