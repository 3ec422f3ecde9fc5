package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "links.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testLink(code string, created time.Time) *domain.Link {
	return &domain.Link{
		Code:        code,
		OriginalURL: "https://example.com/" + code,
		CreatedAt:   created,
		ExpiresAt:   created.Add(30 * time.Minute),
	}
}

func TestTryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	created := time.Date(2025, 6, 1, 9, 30, 0, 123456789, time.UTC)

	outcome, err := repo.TryCreate(ctx, testLink("Ab_$-9", created))
	require.NoError(t, err)
	assert.Equal(t, domain.Created, outcome)

	got, err := repo.FindByCode(ctx, "Ab_$-9")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/Ab_$-9", got.OriginalURL)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.ExpiresAt.Equal(created.Add(30*time.Minute)))
}

func TestTimestampsBeyondUnixNanoRange(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	created := time.Date(2210, 3, 30, 4, 0, 0, 0, time.UTC)
	link := testLink("far", created)
	link.ExpiresAt = created.Add(domain.MaxValidity)
	require.Equal(t, 2310, link.ExpiresAt.Year())

	_, err := repo.TryCreate(ctx, link)
	require.NoError(t, err)

	got, err := repo.FindByCode(ctx, "far")
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.Equal(link.ExpiresAt), "got %s", got.ExpiresAt)
	assert.False(t, got.IsExpired(created))

	require.NoError(t, repo.AppendClick(ctx, "far", &domain.Click{Timestamp: link.ExpiresAt}))
	clicks, err := repo.ListClicks(ctx, "far")
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.True(t, clicks[0].Timestamp.Equal(link.ExpiresAt))
}

func TestTryCreateConflict(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	now := time.Now()

	_, err := repo.TryCreate(ctx, testLink("dup", now))
	require.NoError(t, err)

	second := testLink("dup", now)
	second.OriginalURL = "https://other.example"
	outcome, err := repo.TryCreate(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, domain.Conflict, outcome)

	got, err := repo.FindByCode(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/dup", got.OriginalURL, "losing insert must not overwrite")
}

func TestTryCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	now := time.Now()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := repo.TryCreate(ctx, testLink("race", now))
			if err == nil && outcome == domain.Created {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestFindByCodeNotFound(t *testing.T) {
	_, err := setupTestRepo(t).FindByCode(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestAppendAndListClicks(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	created := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	_, err := repo.TryCreate(ctx, testLink("clk", created))
	require.NoError(t, err)

	sources := []string{"https://news.example", "", "https://blog.example"}
	for i, src := range sources {
		click := &domain.Click{
			Timestamp: created.Add(time.Duration(i) * time.Second),
			Source:    src,
			Geo:       domain.Geo{City: "Bangkok", Country: "TH"},
		}
		require.NoError(t, repo.AppendClick(ctx, "clk", click))
		assert.NotEmpty(t, click.ID)
	}

	clicks, err := repo.ListClicks(ctx, "clk")
	require.NoError(t, err)
	require.Len(t, clicks, 3)
	for i, c := range clicks {
		assert.Equal(t, sources[i], c.Source)
		assert.Equal(t, "clk", c.LinkCode)
		assert.Equal(t, "Bangkok", c.Geo.City)
		assert.True(t, c.Timestamp.Equal(created.Add(time.Duration(i)*time.Second)))
	}
}

func TestAppendClickUnknownLink(t *testing.T) {
	err := setupTestRepo(t).AppendClick(context.Background(), "ghost", &domain.Click{Timestamp: time.Now()})
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestListClicksUnknownLink(t *testing.T) {
	_, err := setupTestRepo(t).ListClicks(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestListClicksEmpty(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	_, err := repo.TryCreate(ctx, testLink("quiet", time.Now()))
	require.NoError(t, err)

	clicks, err := repo.ListClicks(ctx, "quiet")
	require.NoError(t, err)
	assert.Empty(t, clicks)
}

func TestDump(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := repo.TryCreate(ctx, testLink("second", base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = repo.TryCreate(ctx, testLink("first", base))
	require.NoError(t, err)

	links, err := repo.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "first", links[0].Code)
	assert.Equal(t, "second", links[1].Code)
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	first, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = first.TryCreate(context.Background(), testLink("keep", time.Now()))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer second.Close()

	_, err = second.FindByCode(context.Background(), "keep")
	assert.NoError(t, err)
}
