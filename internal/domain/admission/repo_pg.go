package admission

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

const admissionCols = `admission_id, patient_id, ward_id, admission_date, discharge_date`

const detailsSelect = `
	SELECT a.admission_id, a.patient_id, a.ward_id, a.admission_date, a.discharge_date,
		p.first_name, p.last_name, w.ward_name, w.ward_type
	FROM admissions a
	JOIN patients p ON p.patient_id = a.patient_id
	JOIN wards w ON w.ward_id = a.ward_id`

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	if err := row.Scan(&a.ID, &a.PatientID, &a.WardID, &a.AdmissionDate, &a.DischargeDate); err != nil {
		return nil, apperr.FromPG(err, "Admission")
	}
	return &a, nil
}

func scanDetails(row pgx.Row) (*Details, error) {
	var d Details
	if err := row.Scan(&d.ID, &d.PatientID, &d.WardID, &d.AdmissionDate, &d.DischargeDate,
		&d.PatientFirstName, &d.PatientLastName, &d.WardName, &d.WardType); err != nil {
		return nil, apperr.FromPG(err, "Admission")
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, a *Admission) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO admissions (patient_id, ward_id, admission_date)
		VALUES ($1, $2, $3)
		RETURNING admission_id`,
		a.PatientID, a.WardID, a.AdmissionDate).Scan(&a.ID)
	return apperr.FromPG(err, "Admission")
}

func (r *repoPG) GetForUpdate(ctx context.Context, id int64) (*Admission, error) {
	return scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+` FROM admissions WHERE admission_id = $1 FOR UPDATE`, id))
}

func (r *repoPG) GetDetails(ctx context.Context, id int64) (*Details, error) {
	return scanDetails(r.conn(ctx).QueryRow(ctx, detailsSelect+` WHERE a.admission_id = $1`, id))
}

func (r *repoPG) CurrentForPatient(ctx context.Context, patientID int64) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+` FROM admissions WHERE patient_id = $1 AND discharge_date IS NULL`, patientID))
	if apperr.IsNotFound(err) {
		return nil, nil
	}
	return a, err
}

func (r *repoPG) CountCurrentInWard(ctx context.Context, wardID int64) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM admissions WHERE ward_id = $1 AND discharge_date IS NULL`, wardID).Scan(&n)
	return n, apperr.FromPG(err, "Admission")
}

func (r *repoPG) SetDischargeDate(ctx context.Context, id int64, date time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE admissions SET discharge_date = $2 WHERE admission_id = $1 AND discharge_date IS NULL`, id, date)
	if err != nil {
		return apperr.FromPG(err, "Admission")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("Patient already discharged")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("a.patient_id = $%d", len(args)))
	}
	if f.WardID != nil {
		args = append(args, *f.WardID)
		where = append(where, fmt.Sprintf("a.ward_id = $%d", len(args)))
	}
	if f.Current != nil {
		if *f.Current {
			where = append(where, "a.discharge_date IS NULL")
		} else {
			where = append(where, "a.discharge_date IS NOT NULL")
		}
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admissions a`+clause, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "Admission")
	}
	rows, err := r.conn(ctx).Query(ctx,
		detailsSelect+clause+` `+sort.SQL()+`, a.admission_id `+page.SQL(), args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "Admission")
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
	return items, total, apperr.FromPG(rows.Err(), "Admission")
}
