package appointment

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

const appointmentCols = `a.appointment_id, a.patient_id, a.doctor_id, a.appointment_date, a.status, a.notes,
	a.created_at, a.updated_at`

const detailsSelect = `SELECT ` + appointmentCols + `,
		p.first_name, p.last_name, d.first_name, d.last_name, d.specialization
	FROM appointments a
	JOIN patients p ON p.patient_id = a.patient_id
	JOIN doctors d ON d.doctor_id = a.doctor_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDate, &a.Status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, apperr.FromPG(err, "Appointment")
	}
	return &a, nil
}

func scanDetails(row pgx.Row) (*Details, error) {
	var d Details
	a := &d.Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDate, &a.Status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
		&d.PatientFirstName, &d.PatientLastName, &d.DoctorFirstName, &d.DoctorLastName, &d.Specialization)
	if err != nil {
		return nil, apperr.FromPG(err, "Appointment")
	}
	return &d, nil
}

// writeErr maps the doctor overlap exclusion constraint to the same conflict
// the service reports for a failed check.
func writeErr(err error) error {
	if apperr.IsExclusionViolation(err) {
		return apperr.Conflict(conflictMessage)
	}
	return apperr.FromPG(err, "Appointment")
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING appointment_id, created_at, updated_at`,
		a.PatientID, a.DoctorID, a.AppointmentDate, a.Status, a.Notes,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return writeErr(err)
}

func (r *repoPG) Get(ctx context.Context, id int64) (*Details, error) {
	return scanDetails(r.conn(ctx).QueryRow(ctx, detailsSelect+` WHERE a.appointment_id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id int64) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments a WHERE a.appointment_id = $1 FOR UPDATE`, id))
}

func (r *repoPG) FindConflict(ctx context.Context, doctorID int64, at time.Time, excludeID int64) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `
		SELECT `+appointmentCols+` FROM appointments a
		WHERE a.doctor_id = $1
			AND a.appointment_id <> $2
			AND a.status IN ('Scheduled', 'Completed')
			AND a.appointment_date > $3
			AND a.appointment_date < $4
		ORDER BY a.appointment_date
		LIMIT 1`,
		doctorID, excludeID, at.Add(-ConflictWindow), at.Add(ConflictWindow)))
	if apperr.IsNotFound(err) {
		return nil, nil
	}
	return a, err
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET doctor_id = $2, appointment_date = $3, status = $4, notes = $5,
			updated_at = NOW()
		WHERE appointment_id = $1
		RETURNING updated_at`,
		a.ID, a.DoctorID, a.AppointmentDate, a.Status, a.Notes,
	).Scan(&a.UpdatedAt)
	return writeErr(err)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, sort pagination.Sort, page pagination.Params) ([]*Details, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(p.first_name ILIKE $%d OR p.last_name ILIKE $%d OR d.first_name ILIKE $%d OR d.last_name ILIKE $%d OR a.notes ILIKE $%d)",
			n, n, n, n, n))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		where = append(where, fmt.Sprintf("a.doctor_id = $%d", len(args)))
	}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where = append(where, fmt.Sprintf("a.patient_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Specialization); s != "" {
		args = append(args, s)
		where = append(where, fmt.Sprintf("d.specialization = $%d", len(args)))
	}
	where, args = dateRange(where, args, f.From, f.To)
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		JOIN doctors d ON d.doctor_id = a.doctor_id`+clause, args...).Scan(&total)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "Appointment")
	}
	rows, err := r.conn(ctx).Query(ctx,
		detailsSelect+clause+` `+sort.SQL()+`, a.appointment_id `+page.SQL(), args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "Appointment")
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
	return items, total, apperr.FromPG(rows.Err(), "Appointment")
}

// dateRange adds an inclusive appointment_date range.
func dateRange(where []string, args []interface{}, from, to *time.Time) ([]string, []interface{}) {
	if from != nil {
		args = append(args, from.UTC())
		where = append(where, fmt.Sprintf("a.appointment_date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, to.UTC())
		where = append(where, fmt.Sprintf("a.appointment_date <= $%d", len(args)))
	}
	return where, args
}

func (r *repoPG) Statistics(ctx context.Context, from, to *time.Time) (*Statistics, error) {
	where, args := dateRange(nil, nil, from, to)
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var s Statistics
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE a.status = 'Scheduled'),
			COUNT(*) FILTER (WHERE a.status = 'Completed'),
			COUNT(*) FILTER (WHERE a.status = 'Cancelled'),
			COUNT(*) FILTER (WHERE a.status = 'No-Show'),
			COUNT(DISTINCT a.patient_id),
			COUNT(DISTINCT a.doctor_id)
		FROM appointments a`+clause, args...,
	).Scan(&s.Total, &s.Scheduled, &s.Completed, &s.Cancelled, &s.NoShow, &s.UniquePatients, &s.ActiveDoctors)
	if err != nil {
		return nil, apperr.FromPG(err, "Appointment")
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT d.specialization AS specialization,
			COUNT(a.appointment_id)::int AS appointment_count,
			(COUNT(*) FILTER (WHERE a.status = 'Completed'))::int AS completed_count,
			ROUND(COUNT(*) FILTER (WHERE a.status = 'Completed') * 100.0
				/ NULLIF(COUNT(a.appointment_id), 0), 2)::float8 AS completion_rate
		FROM appointments a
		JOIN doctors d ON d.doctor_id = a.doctor_id`+clause+`
		GROUP BY d.specialization
		ORDER BY appointment_count DESC, d.specialization`, args...)
	if err != nil {
		return nil, apperr.FromPG(err, "Appointment")
	}
	s.BySpecialization, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[SpecializationStat])
	if err != nil {
		return nil, apperr.FromPG(err, "Appointment")
	}
	return &s, nil
}

func (r *repoPG) Upcoming(ctx context.Context, now time.Time, doctorID *int64, limit int) ([]*Details, error) {
	args := []interface{}{now.UTC(), limit}
	clause := ` WHERE a.status = 'Scheduled' AND a.appointment_date >= $1`
	if doctorID != nil {
		args = append(args, *doctorID)
		clause += ` AND a.doctor_id = $3`
	}
	rows, err := r.conn(ctx).Query(ctx,
		detailsSelect+clause+` ORDER BY a.appointment_date, a.appointment_id LIMIT $2`, args...)
	if err != nil {
		return nil, apperr.FromPG(err, "Appointment")
	}
	defer rows.Close()
	items := []*Details{}
	for rows.Next() {
		d, err := scanDetails(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, apperr.FromPG(rows.Err(), "Appointment")
}
