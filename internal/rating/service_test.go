// AngelaMos | 2026
// service_test.go

package rating

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arusey/Huduma/internal/core"
	"github.com/Arusey/Huduma/internal/department"
)

type fakeDepartments map[string]*department.Department

func (f fakeDepartments) Get(_ context.Context, id string) (*department.Department, error) {
	d, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("get department %s: %w", id, department.ErrNotFound)
	}
	return d, nil
}

type pairKey struct{ user, department string }

// memRepo keeps one row per (user, department) and upserts under a lock,
// like the unique constraint plus ON CONFLICT does in Postgres.
type memRepo struct {
	mu   sync.Mutex
	rows map[pairKey]Rating
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[pairKey]Rating)}
}

func (m *memRepo) Upsert(_ context.Context, r *Rating) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := pairKey{r.UserID, r.DepartmentID}
	now := time.Now()
	if existing, ok := m.rows[k]; ok {
		existing.UserRating = r.UserRating
		existing.UpdatedAt = now
		m.rows[k] = existing
		*r = existing
		return false, nil
	}
	r.CreatedAt, r.UpdatedAt = now, now
	m.rows[k] = *r
	return true, nil
}

func (m *memRepo) GetForUser(_ context.Context, departmentID, userID string) (*Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[pairKey{userID, departmentID}]
	if !ok {
		return nil, fmt.Errorf("get rating: %w", core.ErrNotFound)
	}
	return &r, nil
}

func (m *memRepo) Average(_ context.Context, departmentID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sum float64
	var n int
	for k, r := range m.rows {
		if k.department == departmentID {
			sum += r.UserRating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func (m *memRepo) count(departmentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.rows {
		if k.department == departmentID {
			n++
		}
	}
	return n
}

const (
	deptID  = "dept-1"
	ownerID = "owner-o"
)

func newTestService() (*Service, *memRepo) {
	owner := ownerID
	deps := fakeDepartments{
		deptID:    {ID: deptID, Name: "Immigration", CreatedBy: &owner},
		"unowned": {ID: "unowned", Name: "Lands"},
	}
	repo := newMemRepo()
	return NewService(repo, deps), repo
}

func ptr(v float64) *float64 { return &v }

func TestSubmitValidatesRange(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	tests := []struct {
		name  string
		value *float64
		msg   string
	}{
		{"missing", nil, "Please provide a rating between 1 and 5"},
		{"zero", ptr(0), "The minimum allowed rating is 1"},
		{"below", ptr(0.5), "The minimum allowed rating is 1"},
		{"above", ptr(5.5), "The maximum allowed rating is 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, deptID, "user-a", tt.value)
			require.ErrorIs(t, err, core.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
	assert.Zero(t, repo.count(deptID))

	for _, v := range []float64{1, 2.5, 5} {
		_, err := svc.Submit(ctx, deptID, "user-a", ptr(v))
		assert.NoError(t, err, "value %v", v)
	}
}

func TestSubmitThenResubmitKeepsOneRow(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, err := svc.Submit(ctx, deptID, "user-a", ptr(4))
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.InDelta(t, 4.0, first.Average, 1e-9)

	second, err := svc.Submit(ctx, deptID, "user-a", ptr(2))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.InDelta(t, 2.0, second.Average, 1e-9)
	assert.Equal(t, first.Rating.ID, second.Rating.ID)
	assert.Equal(t, 1, repo.count(deptID))

	_, err = svc.Submit(ctx, deptID, ownerID, ptr(5))
	require.ErrorIs(t, err, core.ErrForbidden)
	assert.Contains(t, err.Error(), "You cannot rate your own department")
	assert.Equal(t, 1, repo.count(deptID))
}

func TestAverageAcrossUsers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	avg, err := svc.AverageFor(ctx, deptID)
	require.NoError(t, err)
	assert.Zero(t, avg)

	for user, v := range map[string]float64{"user-a": 5, "user-b": 2, "user-c": 2} {
		_, err := svc.Submit(ctx, deptID, user, ptr(v))
		require.NoError(t, err)
	}

	avg, err = svc.AverageFor(ctx, deptID)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, avg, 1e-9)
}

func TestConcurrentSubmitsSamePair(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, deptID, "user-a", ptr(float64(i%5+1)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.count(deptID))
}

func TestSubmitMissingAndUnownedDepartment(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, "missing", "user-a", ptr(3))
	assert.ErrorIs(t, err, core.ErrNotFound)

	sub, err := svc.Submit(ctx, "unowned", "user-a", ptr(3))
	require.NoError(t, err)
	assert.True(t, sub.Created)
}

func TestView(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, deptID, "user-a", ptr(4))
	require.NoError(t, err)

	v, err := svc.View(ctx, deptID, "")
	require.NoError(t, err)
	assert.Equal(t, SentinelAnonymous, v.UserRating)
	assert.InDelta(t, 4.0, v.Average, 1e-9)

	v, err = svc.View(ctx, deptID, "user-b")
	require.NoError(t, err)
	assert.Equal(t, SentinelNotRated, v.UserRating)

	v, err = svc.View(ctx, deptID, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.UserRating)

	rt, err := svc.GetForUser(ctx, deptID, "user-b")
	require.NoError(t, err)
	assert.Nil(t, rt)

	_, err = svc.View(ctx, "missing", "user-a")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
