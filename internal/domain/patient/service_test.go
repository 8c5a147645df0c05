package patient

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/db/dbtest"
	"github.com/hospital/hms/pkg/pagination"
)

// -- Mock Repository --

type mockRepo struct {
	mu       sync.Mutex
	locks    *dbtest.Locks
	nextID   int64
	patients map[int64]*Patient
	refs     map[int64]int
}

func newMockRepo() *mockRepo {
	return &mockRepo{locks: dbtest.NewLocks(), patients: make(map[int64]*Patient), refs: make(map[int64]int)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("Patient")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetForUpdate(ctx context.Context, id int64) (*Patient, error) {
	m.locks.Lock(ctx, fmt.Sprintf("patient:%d", id))
	return m.Get(ctx, id)
}

func (m *mockRepo) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Detail{Patient: *p, AppointmentCount: m.refs[id]}, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[p.ID]; !ok {
		return apperr.NotFound("Patient")
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[id]; !ok {
		return apperr.NotFound("Patient")
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.patients {
		if id != excludeID && p.Email != nil && *p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, _ pagination.Sort, page pagination.Params) ([]*Patient, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Patient
	for _, p := range m.patients {
		if f.Search != "" && !strings.Contains(strings.ToLower(p.FullName()), strings.ToLower(f.Search)) {
			continue
		}
		if f.Gender != nil && p.Gender != *f.Gender {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	total := len(result)
	if page.Offset < len(result) {
		result = result[page.Offset:]
	} else {
		result = nil
	}
	if len(result) > page.Limit {
		result = result[:page.Limit]
	}
	return result, total, nil
}

func newTestService() (*Service, *mockRepo, *dbtest.Runner) {
	repo := newMockRepo()
	runner := dbtest.NewRunner()
	svc := NewService(runner, repo, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo, runner
}

func strPtr(s string) *string { return &s }

func newPatient() *Patient {
	return &Patient{
		FirstName:   "  Ana ",
		LastName:    "Lopez",
		Gender:      GenderFemale,
		DateOfBirth: time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		Email:       strPtr(" Ana.Lopez@Example.com "),
	}
}

// -- Tests --

func TestParseGender(t *testing.T) {
	tests := map[string]Gender{
		"M": GenderMale, "male": GenderMale, "Male": GenderMale,
		"f": GenderFemale, "FEMALE": GenderFemale,
		"O": GenderOther, "other": GenderOther,
	}
	for in, want := range tests {
		got, err := ParseGender(in)
		if err != nil || got != want {
			t.Errorf("ParseGender(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseGender("x"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreatePatient_Normalizes(t *testing.T) {
	svc, _, runner := newTestService()
	p := newPatient()
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected ID to be assigned")
	}
	if p.FirstName != "Ana" {
		t.Errorf("expected trimmed first name, got %q", p.FirstName)
	}
	if p.Email == nil || *p.Email != "ana.lopez@example.com" {
		t.Errorf("expected lowercased email, got %v", p.Email)
	}
	if runner.Commits() != 1 {
		t.Errorf("expected one committed unit of work, got %d", runner.Commits())
	}
}

func TestCreatePatient_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	tests := []struct {
		name   string
		mutate func(*Patient)
	}{
		{"missing first name", func(p *Patient) { p.FirstName = " " }},
		{"missing gender", func(p *Patient) { p.Gender = "" }},
		{"missing birth date", func(p *Patient) { p.DateOfBirth = time.Time{} }},
		{"future birth date", func(p *Patient) { p.DateOfBirth = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPatient()
			tt.mutate(p)
			if err := svc.CreatePatient(context.Background(), p); !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreatePatient_DuplicateEmail(t *testing.T) {
	svc, _, runner := newTestService()
	if err := svc.CreatePatient(context.Background(), newPatient()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	dup := newPatient()
	dup.Email = strPtr("ANA.LOPEZ@example.com")
	err := svc.CreatePatient(context.Background(), dup)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if apperr.Message(err) != "Email already exists" {
		t.Errorf("unexpected message %q", apperr.Message(err))
	}
	if runner.Rollbacks() != 1 {
		t.Errorf("expected the failed create to roll back, got %d", runner.Rollbacks())
	}
}

func TestUpdatePatient(t *testing.T) {
	svc, _, _ := newTestService()
	p := newPatient()
	svc.CreatePatient(context.Background(), p)

	updated, err := svc.UpdatePatient(context.Background(), p.ID, UpdateInput{LastName: strPtr(" Garcia ")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.LastName != "Garcia" {
		t.Errorf("expected last name Garcia, got %q", updated.LastName)
	}
	if updated.FirstName != "Ana" || updated.Email == nil {
		t.Error("expected unspecified fields to keep their values")
	}
}

func TestUpdatePatient_EmptyAndMissing(t *testing.T) {
	svc, _, runner := newTestService()
	if _, err := svc.UpdatePatient(context.Background(), 1, UpdateInput{}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty update, got %v", err)
	}
	if runner.Commits()+runner.Rollbacks() != 0 {
		t.Error("empty update must not open a unit of work")
	}
	if _, err := svc.UpdatePatient(context.Background(), 99, UpdateInput{FirstName: strPtr("X")}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdatePatient_EmailTakenByOther(t *testing.T) {
	svc, _, _ := newTestService()
	first := newPatient()
	svc.CreatePatient(context.Background(), first)
	second := newPatient()
	second.Email = strPtr("other@example.com")
	svc.CreatePatient(context.Background(), second)

	_, err := svc.UpdatePatient(context.Background(), second.ID, UpdateInput{Email: strPtr("ana.lopez@example.com")})
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
	if _, err := svc.UpdatePatient(context.Background(), first.ID, UpdateInput{Email: strPtr("ANA.LOPEZ@example.com")}); err != nil {
		t.Errorf("keeping one's own email should succeed, got %v", err)
	}
}

func TestDeletePatient(t *testing.T) {
	svc, repo, _ := newTestService()
	p := newPatient()
	svc.CreatePatient(context.Background(), p)
	repo.refs[p.ID] = 1

	if err := svc.DeletePatient(context.Background(), p.ID); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict while referenced, got %v", err)
	}

	repo.refs[p.ID] = 0
	if err := svc.DeletePatient(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetPatient(context.Background(), p.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestListPatients(t *testing.T) {
	svc, _, _ := newTestService()
	for _, name := range []string{"Ana", "Bruno", "Carla"} {
		p := newPatient()
		p.FirstName = name
		p.Email = nil
		svc.CreatePatient(context.Background(), p)
	}
	items, total, err := svc.ListPatients(context.Background(), ListFilter{Search: "br"},
		pagination.ResolveSort(SortColumns, "", "", "patient_id"), pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].FirstName != "Bruno" {
		t.Errorf("expected only Bruno, got %d items", total)
	}
}
