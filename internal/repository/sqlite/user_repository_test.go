package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studioaljo/internal/domain"
	"studioaljo/internal/repository"
)

func createUser(t *testing.T, repo repository.UserRepository, email string, credits int) *domain.User {
	t.Helper()

	user := &domain.User{Email: email, PasswordHash: "hash", Credits: credits}
	_, err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestUserRepositoryCreateAndGet(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))
	ctx := context.Background()

	user := createUser(t, repo, "a@x.com", domain.DefaultCredits)
	assert.NotEmpty(t, user.ID)

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, 50, got.Credits)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.GetByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))
	createUser(t, repo, "a@x.com", 50)

	_, err := repo.Create(context.Background(), &domain.User{Email: "a@x.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestUserRepositoryDecrementCredits(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))
	ctx := context.Background()
	createUser(t, repo, "a@x.com", 1)

	ok, err := repo.DecrementCredits(ctx, "a@x.com", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementCredits(ctx, "a@x.com", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Credits)

	_, err = repo.DecrementCredits(ctx, "missing@x.com", 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// The conditional update must let exactly one of many concurrent spends through.
func TestUserRepositoryParallelSpendNeverGoesNegative(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))
	ctx := context.Background()
	createUser(t, repo, "a@x.com", 1)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := repo.DecrementCredits(ctx, "a@x.com", 1)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				t.Errorf("decrement: %v", err)
				return
			}
			if ok {
				successes++
			} else {
				failures++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, failures)

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Credits)
}

func TestUserRepositoryAddCredits(t *testing.T) {
	repo := NewUserRepository(newTestStore(t))
	ctx := context.Background()
	createUser(t, repo, "a@x.com", 0)

	require.NoError(t, repo.AddCredits(ctx, "a@x.com", 1))

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Credits)

	assert.ErrorIs(t, repo.AddCredits(ctx, "missing@x.com", 1), repository.ErrNotFound)
}
