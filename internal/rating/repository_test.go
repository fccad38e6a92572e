// AngelaMos | 2026
// repository_test.go

package rating

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arusey/Huduma/internal/config"
	"github.com/Arusey/Huduma/internal/core"
)

// openTestDB connects to HUDUMA_TEST_DATABASE_URL and applies the embedded
// migrations. The test is skipped when the variable is unset.
func openTestDB(t *testing.T) *core.Database {
	t.Helper()

	url := os.Getenv("HUDUMA_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("HUDUMA_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		URL:          url,
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *core.Database) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.DB.ExecContext(context.Background(),
		`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, 'x')`,
		id, id+"@huduma.test",
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.DB.ExecContext(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func seedDepartment(t *testing.T, db *core.Database) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.DB.ExecContext(context.Background(),
		`INSERT INTO departments (id, name, email) VALUES ($1, 'Lands', $2)`,
		id, id[:8]+"@huduma.test",
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.DB.ExecContext(context.Background(), `DELETE FROM departments WHERE id = $1`, id)
	})
	return id
}

func TestRepositoryUpsertKeepsOneRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	userID := seedUser(t, db)
	deptID := seedDepartment(t, db)

	first := Rating{ID: uuid.New().String(), UserID: userID, DepartmentID: deptID, UserRating: 4}
	created, err := repo.Upsert(ctx, &first)
	require.NoError(t, err)
	assert.True(t, created)

	second := Rating{ID: uuid.New().String(), UserID: userID, DepartmentID: deptID, UserRating: 2}
	created, err = repo.Upsert(ctx, &second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.GetForUser(ctx, deptID, userID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got.UserRating, 1e-9)

	var rows int
	require.NoError(t, db.DB.GetContext(ctx, &rows,
		`SELECT COUNT(*) FROM ratings WHERE department_id = $1`, deptID))
	assert.Equal(t, 1, rows)

	avg, err := repo.Average(ctx, deptID)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, avg, 1e-9)
}

func TestRepositoryConcurrentUpserts(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	userID := seedUser(t, db)
	deptID := seedDepartment(t, db)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rt := Rating{
				ID:           uuid.New().String(),
				UserID:       userID,
				DepartmentID: deptID,
				UserRating:   float64(i%5 + 1),
			}
			_, err := repo.Upsert(ctx, &rt)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var rows int
	require.NoError(t, db.DB.GetContext(ctx, &rows,
		`SELECT COUNT(*) FROM ratings WHERE user_id = $1 AND department_id = $2`,
		userID, deptID))
	assert.Equal(t, 1, rows)
}

func TestRepositoryAverageAndMissingDepartment(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	deptID := seedDepartment(t, db)

	avg, err := repo.Average(ctx, deptID)
	require.NoError(t, err)
	assert.Zero(t, avg)

	for _, v := range []float64{5, 2, 2} {
		rt := Rating{ID: uuid.New().String(), UserID: seedUser(t, db), DepartmentID: deptID, UserRating: v}
		_, err := repo.Upsert(ctx, &rt)
		require.NoError(t, err)
	}

	avg, err = repo.Average(ctx, deptID)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, avg, 1e-9)

	_, err = repo.GetForUser(ctx, deptID, uuid.New().String())
	assert.ErrorIs(t, err, core.ErrNotFound)

	orphan := Rating{
		ID:           uuid.New().String(),
		UserID:       seedUser(t, db),
		DepartmentID: uuid.New().String(),
		UserRating:   3,
	}
	_, err = repo.Upsert(ctx, &orphan)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
