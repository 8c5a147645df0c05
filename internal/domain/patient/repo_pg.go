package patient

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

const patientCols = `patient_id, first_name, last_name, gender, date_of_birth,
	phone_number, email, address, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Gender, &p.DateOfBirth,
		&p.PhoneNumber, &p.Email, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, apperr.FromPG(err, "Patient")
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (first_name, last_name, gender, date_of_birth, phone_number, email, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING patient_id, created_at, updated_at`,
		p.FirstName, p.LastName, p.Gender, p.DateOfBirth, p.PhoneNumber, p.Email, p.Address,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return apperr.FromPG(err, "Patient")
}

func (r *repoPG) Get(ctx context.Context, id int64) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE patient_id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id int64) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE patient_id = $1 FOR UPDATE`, id))
}

func (r *repoPG) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	var d Detail
	p := &d.Patient
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+patientCols+`,
			(SELECT COUNT(*) FROM appointments a WHERE a.patient_id = p.patient_id),
			(SELECT COUNT(*) FROM medical_records m WHERE m.patient_id = p.patient_id),
			(SELECT COUNT(*) FROM billing b WHERE b.patient_id = p.patient_id),
			(SELECT COUNT(*) FROM admissions ad WHERE ad.patient_id = p.patient_id),
			(SELECT ad.admission_id FROM admissions ad
				WHERE ad.patient_id = p.patient_id AND ad.discharge_date IS NULL)
		FROM patients p WHERE p.patient_id = $1`, id,
	).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Gender, &p.DateOfBirth,
		&p.PhoneNumber, &p.Email, &p.Address, &p.CreatedAt, &p.UpdatedAt,
		&d.AppointmentCount, &d.MedicalRecordCount, &d.BillCount, &d.AdmissionCount,
		&d.CurrentAdmissionID)
	if err != nil {
		return nil, apperr.FromPG(err, "Patient")
	}
	return &d, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET first_name = $2, last_name = $3, gender = $4, date_of_birth = $5,
			phone_number = $6, email = $7, address = $8, updated_at = NOW()
		WHERE patient_id = $1
		RETURNING updated_at`,
		p.ID, p.FirstName, p.LastName, p.Gender, p.DateOfBirth, p.PhoneNumber, p.Email, p.Address,
	).Scan(&p.UpdatedAt)
	return apperr.FromPG(err, "Patient")
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE patient_id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "Patient")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Patient")
	}
	return nil
}

func (r *repoPG) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1 AND patient_id <> $2)`,
		email, excludeID).Scan(&taken)
	return taken, apperr.FromPG(err, "Patient")
}

func (r *repoPG) List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Patient, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR first_name || ' ' || last_name ILIKE $%d)",
			n, n, n, n))
	}
	if f.Gender != nil {
		args = append(args, *f.Gender)
		where = append(where, fmt.Sprintf("gender = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+clause, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "Patient")
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients`+clause+` `+sort.SQL()+`, patient_id `+page.SQL(), args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "Patient")
	}
	defer rows.Close()
	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, apperr.FromPG(rows.Err(), "Patient")
}
