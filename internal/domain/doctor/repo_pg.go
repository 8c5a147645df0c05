package doctor

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

const doctorCols = `doctor_id, first_name, last_name, specialization, phone_number, email, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Specialization,
		&d.PhoneNumber, &d.Email, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, apperr.FromPG(err, "Doctor")
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (first_name, last_name, specialization, phone_number, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING doctor_id, created_at, updated_at`,
		d.FirstName, d.LastName, d.Specialization, d.PhoneNumber, d.Email,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return apperr.FromPG(err, "Doctor")
}

func (r *repoPG) Get(ctx context.Context, id int64) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE doctor_id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id int64) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE doctor_id = $1 FOR UPDATE`, id))
}

func (r *repoPG) GetDetail(ctx context.Context, id int64, now time.Time) (*Detail, error) {
	var out Detail
	d := &out.Doctor
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+doctorCols+`,
			(SELECT COUNT(*) FROM appointments a WHERE a.doctor_id = d.doctor_id),
			(SELECT COUNT(*) FROM appointments a
				WHERE a.doctor_id = d.doctor_id AND a.status = 'Scheduled' AND a.appointment_date >= $2),
			(SELECT COUNT(*) FROM medical_records m WHERE m.doctor_id = d.doctor_id)
		FROM doctors d WHERE d.doctor_id = $1`, id, now.UTC(),
	).Scan(&d.ID, &d.FirstName, &d.LastName, &d.Specialization,
		&d.PhoneNumber, &d.Email, &d.CreatedAt, &d.UpdatedAt,
		&out.AppointmentCount, &out.UpcomingAppointmentCount, &out.MedicalRecordCount)
	if err != nil {
		return nil, apperr.FromPG(err, "Doctor")
	}
	return &out, nil
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctors SET first_name = $2, last_name = $3, specialization = $4,
			phone_number = $5, email = $6, updated_at = NOW()
		WHERE doctor_id = $1
		RETURNING updated_at`,
		d.ID, d.FirstName, d.LastName, d.Specialization, d.PhoneNumber, d.Email,
	).Scan(&d.UpdatedAt)
	return apperr.FromPG(err, "Doctor")
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE doctor_id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "Doctor")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Doctor")
	}
	return nil
}

func (r *repoPG) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM doctors WHERE email = $1 AND doctor_id <> $2)`,
		email, excludeID).Scan(&taken)
	return taken, apperr.FromPG(err, "Doctor")
}

func (r *repoPG) List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Doctor, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR specialization ILIKE $%d)",
			n, n, n, n))
	}
	if s := strings.TrimSpace(f.Specialization); s != "" {
		args = append(args, s)
		where = append(where, fmt.Sprintf("specialization = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`+clause, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "Doctor")
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorCols+` FROM doctors`+clause+` `+sort.SQL()+`, doctor_id `+page.SQL(), args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "Doctor")
	}
	defer rows.Close()
	items := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, apperr.FromPG(rows.Err(), "Doctor")
}

func (r *repoPG) Specializations(ctx context.Context) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT DISTINCT specialization FROM doctors ORDER BY specialization`)
	if err != nil {
		return nil, apperr.FromPG(err, "Doctor")
	}
	specs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperr.FromPG(err, "Doctor")
	}
	return specs, nil
}
