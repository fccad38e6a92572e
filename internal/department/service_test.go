// AngelaMos | 2026
// service_test.go

package department

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arusey/Huduma/internal/core"
)

type memRepo struct {
	mu    sync.Mutex
	rows  map[string]Department
	clock time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		rows:  make(map[string]Department),
		clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memRepo) emailTaken(email, exceptID string) bool {
	for id, d := range m.rows {
		if id != exceptID && strings.EqualFold(d.Email, email) {
			return true
		}
	}
	return false
}

func (m *memRepo) Create(_ context.Context, d *Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(d.Email, "") {
		return fmt.Errorf("create department: %w", core.ErrDuplicateKey)
	}
	now := m.tick()
	d.CreatedAt, d.UpdatedAt = now, now
	m.rows[d.ID] = *d
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("get department: %w", core.ErrNotFound)
	}
	return &d, nil
}

func (m *memRepo) List(_ context.Context, p ListParams) ([]Department, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.Normalize()
	var all []Department
	for _, d := range m.rows {
		needle := strings.ToLower(p.Search)
		if needle == "" ||
			strings.Contains(strings.ToLower(d.Name), needle) ||
			strings.Contains(strings.ToLower(d.Service), needle) {
			all = append(all, d)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := min(p.Offset(), len(all))
	end := min(start+p.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (m *memRepo) Update(_ context.Context, d *Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[d.ID]; !ok {
		return fmt.Errorf("update department: %w", core.ErrNotFound)
	}
	if m.emailTaken(d.Email, d.ID) {
		return fmt.Errorf("update department: %w", core.ErrDuplicateKey)
	}
	d.UpdatedAt = m.tick()
	m.rows[d.ID] = *d
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("delete department: %w", core.ErrNotFound)
	}
	delete(m.rows, id)
	return nil
}

func validCreate(email string) CreateDepartmentRequest {
	return CreateDepartmentRequest{
		Name:        "Registration of Persons",
		Service:     "National ID issuance",
		Email:       email,
		PhoneNumber: "+254712345678",
	}
}

func TestCreateAssignsOwner(t *testing.T) {
	svc := NewService(newMemRepo())

	d, err := svc.Create(context.Background(), "owner-1", validCreate("Reg@Huduma.go.ke"))
	require.NoError(t, err)
	require.NotNil(t, d.CreatedBy)
	assert.Equal(t, "owner-1", *d.CreatedBy)
	assert.Equal(t, "reg@huduma.go.ke", d.Email)
}

func TestCreateRequiresRequester(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.Create(context.Background(), "", validCreate("a@huduma.go.ke"))
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestDuplicateEmailIsBadRequest(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner-1", validCreate("a@huduma.go.ke"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, "owner-2", validCreate("A@huduma.go.ke"))
	require.ErrorIs(t, err, core.ErrDuplicateKey)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestGetMissing(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, core.ErrNotFound)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Department not found", appErr.Message)
}

func TestBlankNameAfterTrim(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	req := validCreate("a@huduma.go.ke")
	req.Name = "   "
	_, err := svc.Create(ctx, "owner-1", req)
	require.ErrorIs(t, err, core.ErrInvalidInput)

	d, err := svc.Create(ctx, "owner-1", validCreate("a@huduma.go.ke"))
	require.NoError(t, err)

	blank := " \t "
	_, err = svc.Patch(ctx, d.ID, "owner-1", PatchDepartmentRequest{Name: &blank})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Registration of Persons", got.Name)
}

func TestMutationsAreOwnerGated(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	d, err := svc.Create(ctx, "owner-1", validCreate("a@huduma.go.ke"))
	require.NoError(t, err)

	name := "Immigration"
	_, err = svc.Patch(ctx, d.ID, "intruder", PatchDepartmentRequest{Name: &name})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Update(ctx, d.ID, "intruder", validCreate("b@huduma.go.ke"))
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = svc.Delete(ctx, d.ID, "intruder")
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, d.ID, "owner-1"))
	_, err = svc.Get(ctx, d.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUnownedDepartmentIsOpenToSignedInUsers(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	d, err := svc.Create(ctx, "owner-1", validCreate("a@huduma.go.ke"))
	require.NoError(t, err)

	orphan := repo.rows[d.ID]
	orphan.CreatedBy = nil
	repo.rows[d.ID] = orphan

	name := "Lands"
	patched, err := svc.Patch(ctx, d.ID, "someone-else", PatchDepartmentRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Lands", patched.Name)

	_, err = svc.Patch(ctx, d.ID, "", PatchDepartmentRequest{Name: &name})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestPatchKeepsUnsetFields(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	d, err := svc.Create(ctx, "owner-1", validCreate("a@huduma.go.ke"))
	require.NoError(t, err)

	service := "Passports and visas"
	patched, err := svc.Patch(ctx, d.ID, "owner-1", PatchDepartmentRequest{Service: &service})
	require.NoError(t, err)

	assert.Equal(t, "Registration of Persons", patched.Name)
	assert.Equal(t, "Passports and visas", patched.Service)
	assert.Equal(t, "+254712345678", patched.PhoneNumber)
}

func TestUpdateReplacesEverything(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	img := "https://cdn.example.com/reg.png"
	req := validCreate("a@huduma.go.ke")
	req.Image = &img
	d, err := svc.Create(ctx, "owner-1", req)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, d.ID, "owner-1", UpdateDepartmentRequest{
		Name:  "Lands",
		Email: "lands@huduma.go.ke",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lands", updated.Name)
	assert.Empty(t, updated.PhoneNumber)
	assert.Nil(t, updated.Image)
}

func TestListNewestFirstWithSearch(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	for i, name := range []string{"Lands", "Health", "Land Registry"} {
		req := validCreate(fmt.Sprintf("d%d@huduma.go.ke", i))
		req.Name = name
		_, err := svc.Create(ctx, "owner-1", req)
		require.NoError(t, err)
	}

	all, total, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "Land Registry", all[0].Name)

	found, total, err := svc.List(ctx, ListParams{Search: "land"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, found, 2)

	page, total, err := svc.List(ctx, ListParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 1)
}
