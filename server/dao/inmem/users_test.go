package inmem

import (
	"context"
	"testing"

	"github.com/dekarrin/sequitur/server/dao"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_UsersRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepository()

	created, err := repo.Create(ctx, dao.User{Username: "alice", Password: "hash"})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID.String(), "00000000-0000-0000-0000-000000000000")

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created, byName)
}

func Test_UsersRepository_Create_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepository()

	_, err := repo.Create(ctx, dao.User{Username: "alice", Password: "hash"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, dao.User{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, dao.ErrConstraintViolation)
}

func Test_UsersRepository_GetByID_NotFound(t *testing.T) {
	repo := NewUsersRepository()
	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_UsersRepository_Update(t *testing.T) {
	testCases := []struct {
		name      string
		setup     func(t *testing.T, repo *UsersRepository) dao.User
		mutate    func(u dao.User) dao.User
		expectErr error
	}{
		{
			name: "change password",
			setup: func(t *testing.T, repo *UsersRepository) dao.User {
				u, err := repo.Create(context.Background(), dao.User{Username: "alice", Password: "hash"})
				require.NoError(t, err)
				return u
			},
			mutate: func(u dao.User) dao.User {
				u.Password = "newhash"
				return u
			},
		},
		{
			name: "change username to a free one",
			setup: func(t *testing.T, repo *UsersRepository) dao.User {
				u, err := repo.Create(context.Background(), dao.User{Username: "alice", Password: "hash"})
				require.NoError(t, err)
				return u
			},
			mutate: func(u dao.User) dao.User {
				u.Username = "alicia"
				return u
			},
		},
		{
			name: "change username to a taken one",
			setup: func(t *testing.T, repo *UsersRepository) dao.User {
				_, err := repo.Create(context.Background(), dao.User{Username: "bob", Password: "hash"})
				require.NoError(t, err)
				u, err := repo.Create(context.Background(), dao.User{Username: "alice", Password: "hash"})
				require.NoError(t, err)
				return u
			},
			mutate: func(u dao.User) dao.User {
				u.Username = "bob"
				return u
			},
			expectErr: dao.ErrConstraintViolation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := NewUsersRepository()
			existing := tc.setup(t, repo)

			updated, err := repo.Update(context.Background(), existing.ID, tc.mutate(existing))
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)

			got, err := repo.GetByID(context.Background(), updated.ID)
			require.NoError(t, err)
			assert.Equal(t, updated, got)
		})
	}
}
