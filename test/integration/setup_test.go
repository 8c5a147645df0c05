//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/domain/admission"
	"github.com/hospital/hms/internal/domain/appointment"
	"github.com/hospital/hms/internal/domain/billing"
	"github.com/hospital/hms/internal/domain/doctor"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/domain/ward"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/metrics"
	"github.com/hospital/hms/migrations"
	"github.com/hospital/hms/pkg/pagination"
)

// globalPool is connected to the shared test database, initialized once in TestMain.
var globalPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr, cleanup, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup postgres container: %v\n", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, connStr, db.PoolConfig{MaxConns: 40})
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "create pool: %v\n", err)
		os.Exit(1)
	}
	if _, err := db.NewMigrator(pool, migrations.FS).Up(ctx, "public"); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "run migrations: %v\n", err)
		os.Exit(1)
	}

	globalPool = pool
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// services bundles the real pgx-backed stack the server wires up.
type services struct {
	metrics     *metrics.Metrics
	patients    *patient.Service
	doctors     *doctor.Service
	wards       *ward.Service
	admissions  *admission.Service
	appointment *appointment.Service
	billing     *billing.Service
}

// newServices truncates every table and returns a fresh service stack.
func newServices(t *testing.T) *services {
	t.Helper()
	ctx := context.Background()
	_, err := globalPool.Exec(ctx, `TRUNCATE billing, medical_records, appointments, admissions,
		wards, doctors, patients RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}

	m := metrics.New()
	logger := zerolog.Nop()
	tx := db.NewTransactor(globalPool,
		db.WithAcquireTimeout(10*time.Second),
		db.WithLockTimeout(10*time.Second),
		db.WithMetrics(m),
	)
	patientRepo := patient.NewRepoPG(globalPool)
	doctorRepo := doctor.NewRepoPG(globalPool)
	wardRepo := ward.NewRepoPG(globalPool)

	return &services{
		metrics:     m,
		patients:    patient.NewService(tx, patientRepo, logger),
		doctors:     doctor.NewService(tx, doctorRepo, logger),
		wards:       ward.NewService(tx, wardRepo, logger),
		admissions:  admission.NewService(tx, admission.NewRepoPG(globalPool), patientRepo, wardRepo, m, logger),
		appointment: appointment.NewService(tx, appointment.NewRepoPG(globalPool), patientRepo, doctorRepo, m, logger),
		billing:     billing.NewService(tx, billing.NewRepoPG(globalPool), patientRepo, m, logger),
	}
}

func (s *services) createPatient(t *testing.T, first, last string) *patient.Patient {
	t.Helper()
	p := &patient.Patient{
		FirstName:   first,
		LastName:    last,
		Gender:      patient.GenderFemale,
		DateOfBirth: time.Date(1985, 4, 12, 0, 0, 0, 0, time.UTC),
	}
	if err := s.patients.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("create patient %s %s: %v", first, last, err)
	}
	return p
}

func (s *services) createDoctor(t *testing.T, last, specialization string) *doctor.Doctor {
	t.Helper()
	d := &doctor.Doctor{FirstName: "Dana", LastName: last, Specialization: specialization}
	if err := s.doctors.CreateDoctor(context.Background(), d); err != nil {
		t.Fatalf("create doctor %s: %v", last, err)
	}
	return d
}

func (s *services) createWard(t *testing.T, name string, capacity int) *ward.Ward {
	t.Helper()
	w := &ward.Ward{Name: name, Type: "General", Capacity: capacity}
	if err := s.wards.CreateWard(context.Background(), w); err != nil {
		t.Fatalf("create ward %s: %v", name, err)
	}
	return w
}

func defaultPage() pagination.Params {
	return pagination.Params{Limit: pagination.MaxLimit}
}

func defaultAdmissionSort() pagination.Sort {
	return pagination.ResolveSort(admission.SortColumns, "", "", "admission_date")
}
