package appointment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/domain/doctor"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db/dbtest"
	"github.com/hospital/hms/internal/platform/metrics"
	"github.com/hospital/hms/pkg/pagination"
)

// -- Mock Repositories --

type mockPatients struct {
	patients map[int64]*patient.Patient
}

func (m *mockPatients) Get(_ context.Context, id int64) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("Patient")
	}
	cp := *p
	return &cp, nil
}

type mockDoctors struct {
	locks   *dbtest.Locks
	doctors map[int64]*doctor.Doctor
	locked  int32
}

func (m *mockDoctors) GetForUpdate(ctx context.Context, id int64) (*doctor.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.NotFound("Doctor")
	}
	m.locks.Lock(ctx, fmt.Sprintf("doctor:%d", id))
	atomic.AddInt32(&m.locked, 1)
	cp := *d
	return &cp, nil
}

type mockRepo struct {
	mu           sync.Mutex
	locks        *dbtest.Locks
	nextID       int64
	appointments map[int64]*Appointment
	patients     *mockPatients
	doctors      *mockDoctors
	checks       int32
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) find(id int64) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, apperr.NotFound("Appointment")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) details(a *Appointment) *Details {
	p := m.patients.patients[a.PatientID]
	d := m.doctors.doctors[a.DoctorID]
	return &Details{
		Appointment:      *a,
		PatientFirstName: p.FirstName,
		PatientLastName:  p.LastName,
		DoctorFirstName:  d.FirstName,
		DoctorLastName:   d.LastName,
		Specialization:   d.Specialization,
	}
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Details, error) {
	a, err := m.find(id)
	if err != nil {
		return nil, err
	}
	return m.details(a), nil
}

func (m *mockRepo) GetForUpdate(ctx context.Context, id int64) (*Appointment, error) {
	m.locks.Lock(ctx, fmt.Sprintf("appointment:%d", id))
	return m.find(id)
}

func (m *mockRepo) FindConflict(_ context.Context, doctorID int64, at time.Time, excludeID int64) (*Appointment, error) {
	atomic.AddInt32(&m.checks, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.DoctorID != doctorID || a.ID == excludeID || !a.Status.Active() {
			continue
		}
		gap := a.AppointmentDate.Sub(at)
		if gap < 0 {
			gap = -gap
		}
		if gap < ConflictWindow {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[a.ID]; !ok {
		return apperr.NotFound("Appointment")
	}
	a.UpdatedAt = time.Now()
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) sorted() []*Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Appointment, 0, len(m.appointments))
	for _, a := range m.appointments {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentDate.Before(out[j].AppointmentDate) })
	return out
}

func (m *mockRepo) List(_ context.Context, f ListFilter, _ pagination.Sort, _ pagination.Params) ([]*Details, int, error) {
	items := []*Details{}
	for _, a := range m.sorted() {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		items = append(items, m.details(a))
	}
	return items, len(items), nil
}

func (m *mockRepo) Statistics(_ context.Context, _, _ *time.Time) (*Statistics, error) {
	s := &Statistics{BySpecialization: []*SpecializationStat{}}
	patients := map[int64]bool{}
	doctors := map[int64]bool{}
	for _, a := range m.sorted() {
		s.Total++
		switch a.Status {
		case StatusScheduled:
			s.Scheduled++
		case StatusCompleted:
			s.Completed++
		case StatusCancelled:
			s.Cancelled++
		case StatusNoShow:
			s.NoShow++
		}
		patients[a.PatientID] = true
		doctors[a.DoctorID] = true
	}
	s.UniquePatients, s.ActiveDoctors = len(patients), len(doctors)
	return s, nil
}

func (m *mockRepo) Upcoming(_ context.Context, now time.Time, doctorID *int64, limit int) ([]*Details, error) {
	items := []*Details{}
	for _, a := range m.sorted() {
		if a.Status != StatusScheduled || a.AppointmentDate.Before(now) {
			continue
		}
		if doctorID != nil && a.DoctorID != *doctorID {
			continue
		}
		if len(items) == limit {
			break
		}
		items = append(items, m.details(a))
	}
	return items, nil
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	doctors *mockDoctors
	runner  *dbtest.Runner
}

var testNow = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

// at returns 2024-03-10 at hh:mm UTC.
func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 10, hh, mm, 0, 0, time.UTC)
}

func newFixture() *fixture {
	locks := dbtest.NewLocks()
	mp := &mockPatients{patients: map[int64]*patient.Patient{
		1: {ID: 1, FirstName: "Ana", LastName: "Silva"},
		2: {ID: 2, FirstName: "Ben", LastName: "Okafor"},
	}}
	md := &mockDoctors{locks: locks, doctors: map[int64]*doctor.Doctor{
		1: {ID: 1, FirstName: "Grace", LastName: "Hopper", Specialization: "Cardiology"},
		2: {ID: 2, FirstName: "Alan", LastName: "Turing", Specialization: "Neurology"},
	}}
	repo := &mockRepo{locks: locks, appointments: make(map[int64]*Appointment), patients: mp, doctors: md}
	runner := dbtest.NewRunner()
	svc := NewService(runner, repo, mp, md, metrics.New(), zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return &fixture{svc: svc, repo: repo, doctors: md, runner: runner}
}

func (f *fixture) book(t *testing.T, patientID, doctorID int64, when time.Time) *Appointment {
	t.Helper()
	res, err := f.svc.CreateAppointment(context.Background(), CreateInput{
		PatientID: patientID, DoctorID: doctorID, AppointmentDate: when,
	})
	if err != nil {
		t.Fatalf("book %v: %v", when, err)
	}
	return res.Appointment
}

func assertOverlapConflict(t *testing.T, err error) {
	t.Helper()
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := apperr.Message(err); got != conflictMessage {
		t.Errorf("unexpected message %q", got)
	}
}

// -- Tests --

func TestCreateAppointment_Success(t *testing.T) {
	f := newFixture()
	notes := "follow-up"
	res, err := f.svc.CreateAppointment(context.Background(), CreateInput{
		PatientID: 1, DoctorID: 1, AppointmentDate: at(10, 0), Notes: &notes,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Appointment.Status != StatusScheduled {
		t.Errorf("expected default status Scheduled, got %s", res.Appointment.Status)
	}
	if res.Patient.FirstName != "Ana" || res.Doctor.Specialization != "Cardiology" {
		t.Errorf("expected patient and doctor snapshots, got %+v %+v", res.Patient, res.Doctor)
	}
	if f.runner.Commits() != 1 {
		t.Errorf("expected 1 commit, got %d", f.runner.Commits())
	}
}

func TestCreateAppointment_NormalizesToUTC(t *testing.T) {
	f := newFixture()
	loc := time.FixedZone("UTC+2", 2*60*60)
	a := f.book(t, 1, 1, time.Date(2024, 3, 10, 12, 0, 0, 0, loc))
	if a.AppointmentDate.Location() != time.UTC || a.AppointmentDate.Hour() != 10 {
		t.Errorf("expected 10:00 UTC, got %v", a.AppointmentDate)
	}
}

// Doctor booked at 10:00: 10:30 conflicts, 11:00 is exactly one hour away
// and is allowed.
func TestCreateAppointment_ConflictWindow(t *testing.T) {
	f := newFixture()
	f.book(t, 1, 1, at(10, 0))

	_, err := f.svc.CreateAppointment(context.Background(), CreateInput{PatientID: 2, DoctorID: 1, AppointmentDate: at(10, 30)})
	assertOverlapConflict(t, err)

	f.book(t, 2, 1, at(11, 0))
}

func TestCreateAppointment_Boundary(t *testing.T) {
	tests := []struct {
		name     string
		when     time.Time
		conflict bool
	}{
		{"exactly one hour before", at(9, 0), false},
		{"one second inside before", at(9, 0).Add(time.Second), true},
		{"same time", at(10, 0), true},
		{"one second inside after", at(11, 0).Add(-time.Second), true},
		{"exactly one hour after", at(11, 0), false},
		{"other day", at(10, 0).AddDate(0, 0, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.book(t, 1, 1, at(10, 0))
			_, err := f.svc.CreateAppointment(context.Background(), CreateInput{PatientID: 2, DoctorID: 1, AppointmentDate: tt.when})
			if tt.conflict && !apperr.IsConflict(err) {
				t.Errorf("expected conflict, got %v", err)
			}
			if !tt.conflict && err != nil {
				t.Errorf("expected success, got %v", err)
			}
		})
	}
}

func TestCreateAppointment_OtherDoctorUnaffected(t *testing.T) {
	f := newFixture()
	f.book(t, 1, 1, at(10, 0))
	f.book(t, 2, 2, at(10, 0))
}

func TestCreateAppointment_InactiveAppointmentsDoNotBlock(t *testing.T) {
	f := newFixture()
	a := f.book(t, 1, 1, at(10, 0))
	if _, err := f.svc.CancelAppointment(context.Background(), a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	f.book(t, 2, 1, at(10, 15))
}

func TestCreateAppointment_InactiveStatusSkipsCheck(t *testing.T) {
	f := newFixture()
	f.book(t, 1, 1, at(10, 0))
	checks := atomic.LoadInt32(&f.repo.checks)

	res, err := f.svc.CreateAppointment(context.Background(), CreateInput{
		PatientID: 2, DoctorID: 1, AppointmentDate: at(10, 15), Status: StatusNoShow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Appointment.Status != StatusNoShow {
		t.Errorf("expected No-Show, got %s", res.Appointment.Status)
	}
	if atomic.LoadInt32(&f.repo.checks) != checks {
		t.Error("conflict check must not run for an inactive appointment")
	}
}

func TestCreateAppointment_Validation(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name string
		in   CreateInput
	}{
		{"missing patient id", CreateInput{DoctorID: 1, AppointmentDate: at(10, 0)}},
		{"missing doctor id", CreateInput{PatientID: 1, AppointmentDate: at(10, 0)}},
		{"missing date", CreateInput{PatientID: 1, DoctorID: 1}},
		{"bad status", CreateInput{PatientID: 1, DoctorID: 1, AppointmentDate: at(10, 0), Status: "Pending"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateAppointment(context.Background(), tt.in); !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if f.runner.Commits()+f.runner.Rollbacks() != 0 {
		t.Error("invalid input must not open a unit of work")
	}
}

func TestCreateAppointment_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateAppointment(context.Background(), CreateInput{PatientID: 9, DoctorID: 1, AppointmentDate: at(10, 0)})
	if !apperr.IsNotFound(err) || apperr.Message(err) != "Patient not found" {
		t.Errorf("expected patient not found, got %v", err)
	}
	_, err = f.svc.CreateAppointment(context.Background(), CreateInput{PatientID: 1, DoctorID: 9, AppointmentDate: at(10, 0)})
	if !apperr.IsNotFound(err) || apperr.Message(err) != "Doctor not found" {
		t.Errorf("expected doctor not found, got %v", err)
	}
}

func TestCreateAppointment_ConcurrentSameSlot(t *testing.T) {
	const n = 20
	f := newFixture()

	var (
		wg        sync.WaitGroup
		successes int32
		conflicts int32
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			// Spread requests over 10:00-10:57 so every pair is inside the window.
			when := at(10, 0).Add(time.Duration(i*3) * time.Minute)
			_, err := f.svc.CreateAppointment(context.Background(), CreateInput{
				PatientID: int64(i%2 + 1), DoctorID: 1, AppointmentDate: when,
			})
			switch {
			case err == nil:
				atomic.AddInt32(&successes, 1)
			case apperr.IsConflict(err):
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly one booking, got %d", successes)
	}
	if conflicts != n-1 {
		t.Errorf("expected %d conflicts, got %d", n-1, conflicts)
	}
}

func TestCreateAppointment_ConcurrentSpreadKeepsGaps(t *testing.T) {
	f := newFixture()
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			when := at(8, 0).Add(time.Duration(i*15) * time.Minute)
			f.svc.CreateAppointment(context.Background(), CreateInput{PatientID: 1, DoctorID: 1, AppointmentDate: when})
		}(i)
	}
	wg.Wait()

	booked := f.repo.sorted()
	if len(booked) == 0 {
		t.Fatal("expected some bookings")
	}
	for i := 1; i < len(booked); i++ {
		if gap := booked[i].AppointmentDate.Sub(booked[i-1].AppointmentDate); gap < ConflictWindow {
			t.Errorf("appointments %d and %d are only %v apart", booked[i-1].ID, booked[i].ID, gap)
		}
	}
}

// An update that only touches notes neither locks the doctor nor runs the
// conflict check.
func TestUpdateAppointment_NotesOnly(t *testing.T) {
	f := newFixture()
	a := f.book(t, 1, 1, at(10, 0))
	checks := atomic.LoadInt32(&f.repo.checks)
	locked := atomic.LoadInt32(&f.doctors.locked)

	notes := "bring previous scans"
	got, err := f.svc.UpdateAppointment(context.Background(), a.ID, UpdateInput{Notes: &notes})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Notes == nil || *got.Notes != notes {
		t.Errorf("expected notes to be updated, got %v", got.Notes)
	}
	if !got.AppointmentDate.Equal(at(10, 0)) || got.Status != StatusScheduled {
		t.Errorf("unsupplied fields must be unchanged, got %+v", got)
	}
	if atomic.LoadInt32(&f.repo.checks) != checks {
		t.Error("notes-only update must not run the conflict check")
	}
	if atomic.LoadInt32(&f.doctors.locked) != locked {
		t.Error("notes-only update must not lock the doctor")
	}
}

func TestUpdateAppointment_MoveIntoConflict(t *testing.T) {
	f := newFixture()
	f.book(t, 1, 1, at(10, 0))
	b := f.book(t, 2, 1, at(12, 0))

	moved := at(10, 45)
	_, err := f.svc.UpdateAppointment(context.Background(), b.ID, UpdateInput{AppointmentDate: &moved})
	assertOverlapConflict(t, err)

	stored, _ := f.repo.find(b.ID)
	if !stored.AppointmentDate.Equal(at(12, 0)) {
		t.Errorf("rejected update must not change the row, got %v", stored.AppointmentDate)
	}
}

func TestUpdateAppointment_MoveWithinOwnWindow(t *testing.T) {
	f := newFixture()
	a := f.book(t, 1, 1, at(10, 0))
	moved := at(10, 20)
	got, err := f.svc.UpdateAppointment(context.Background(), a.ID, UpdateInput{AppointmentDate: &moved})
	if err != nil {
		t.Fatalf("an appointment must not conflict with itself: %v", err)
	}
	if !got.AppointmentDate.Equal(moved) {
		t.Errorf("expected %v, got %v", moved, got.AppointmentDate)
	}
}

func TestUpdateAppointment_DoctorOnly(t *testing.T) {
	f := newFixture()
	f.book(t, 1, 1, at(10, 0))
	b := f.book(t, 2, 2, at(10, 30))

	other := int64(1)
	_, err := f.svc.UpdateAppointment(context.Background(), b.ID, UpdateInput{DoctorID: &other})
	assertOverlapConflict(t, err)

	missing := int64(99)
	_, err = f.svc.UpdateAppointment(context.Background(), b.ID, UpdateInput{DoctorID: &missing})
	if !apperr.IsNotFound(err) || apperr.Message(err) != "Doctor not found" {
		t.Errorf("expected doctor not found, got %v", err)
	}
}

func TestUpdateAppointment_ReactivationChecks(t *testing.T) {
	f := newFixture()
	a := f.book(t, 1, 1, at(10, 0))
	if _, err := f.svc.CancelAppointment(context.Background(), a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	f.book(t, 2, 1, at(10, 30))

	scheduled := StatusScheduled
	_, err := f.svc.UpdateAppointment(context.Background(), a.ID, UpdateInput{Status: &scheduled})
	assertOverlapConflict(t, err)

	stored, _ := f.repo.find(a.ID)
	if stored.Status != StatusCancelled {
		t.Errorf("rejected reactivation must leave the row cancelled, got %s", stored.Status)
	}
}

func TestUpdateAppointment_CompleteDoesNotCheck(t *testing.T) {
	f := newFixture()
	a := f.book(t, 1, 1, at(10, 0))
	checks := atomic.LoadInt32(&f.repo.checks)

	completed := StatusCompleted
	got, err := f.svc.UpdateAppointment(context.Background(), a.ID, UpdateInput{Status: &completed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("expected Completed, got %s", got.Status)
	}
	if atomic.LoadInt32(&f.repo.checks) != checks {
		t.Error("active to active status change must not run the conflict check")
	}
}

func TestUpdateAppointment_Validation(t *testing.T) {
	f := newFixture()
	a := f.book(t, 1, 1, at(10, 0))
	bad := Status("Pending")
	zero := time.Time{}
	tests := []struct {
		name string
		in   UpdateInput
		msg  string
	}{
		{"empty", UpdateInput{}, "no fields to update"},
		{"bad status", UpdateInput{Status: &bad}, "invalid status"},
		{"zero date", UpdateInput{AppointmentDate: &zero}, "invalid date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateAppointment(context.Background(), a.ID, tt.in)
			if !apperr.IsValidation(err) || apperr.Message(err) != tt.msg {
				t.Errorf("expected validation %q, got %v", tt.msg, err)
			}
		})
	}
	if f.runner.Rollbacks() != 0 {
		t.Error("validation must happen before the unit of work")
	}
}

func TestUpdateAppointment_NotFound(t *testing.T) {
	f := newFixture()
	notes := "x"
	if _, err := f.svc.UpdateAppointment(context.Background(), 42, UpdateInput{Notes: &notes}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCancelAppointment(t *testing.T) {
	f := newFixture()
	a := f.book(t, 1, 1, at(10, 0))

	got, err := f.svc.CancelAppointment(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected Cancelled, got %s", got.Status)
	}
	if _, err := f.repo.find(a.ID); err != nil {
		t.Error("cancelled appointment must be kept")
	}
	if _, err := f.svc.CancelAppointment(context.Background(), a.ID); err != nil {
		t.Errorf("cancelling twice should succeed, got %v", err)
	}
	if _, err := f.svc.CancelAppointment(context.Background(), 99); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestGetAppointment_ComputedStatus(t *testing.T) {
	f := newFixture()
	past := f.book(t, 1, 1, at(6, 0))
	future := f.book(t, 1, 1, at(10, 0))

	d, err := f.svc.GetAppointment(context.Background(), past.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ComputedStatus != StatusOverdue || d.Status != StatusScheduled {
		t.Errorf("expected overdue computed status, got %s/%s", d.Status, d.ComputedStatus)
	}
	if d.DoctorLastName != "Hopper" {
		t.Errorf("expected doctor display fields, got %+v", d)
	}
	d, _ = f.svc.GetAppointment(context.Background(), future.ID)
	if d.ComputedStatus != StatusScheduled {
		t.Errorf("expected Scheduled, got %s", d.ComputedStatus)
	}
}

func TestListAppointments_BadRange(t *testing.T) {
	f := newFixture()
	from, to := at(12, 0), at(9, 0)
	_, _, err := f.svc.ListAppointments(context.Background(), ListFilter{From: &from, To: &to}, pagination.Sort{}, pagination.Params{Limit: 10})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestStatistics(t *testing.T) {
	f := newFixture()
	f.book(t, 1, 1, at(10, 0))
	b := f.book(t, 2, 1, at(12, 0))
	f.book(t, 2, 2, at(12, 0))
	f.svc.CancelAppointment(context.Background(), b.ID)

	s, err := f.svc.Statistics(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Total != 3 || s.Scheduled != 2 || s.Cancelled != 1 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.UniquePatients != 2 || s.ActiveDoctors != 2 {
		t.Errorf("unexpected distinct counts %+v", s)
	}
}

func TestUpcoming(t *testing.T) {
	f := newFixture()
	f.book(t, 1, 1, at(6, 0))
	f.book(t, 1, 1, at(12, 0))
	f.book(t, 2, 2, at(10, 0))

	items, err := f.svc.Upcoming(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 upcoming, got %d", len(items))
	}
	if items[0].HoursUntil != 2 || items[1].HoursUntil != 4 {
		t.Errorf("unexpected hours until: %v, %v", items[0].HoursUntil, items[1].HoursUntil)
	}

	doctorID := int64(1)
	items, _ = f.svc.Upcoming(context.Background(), &doctorID, 5)
	if len(items) != 1 || items[0].DoctorID != 1 {
		t.Errorf("expected one upcoming appointment for doctor 1, got %d", len(items))
	}
}
