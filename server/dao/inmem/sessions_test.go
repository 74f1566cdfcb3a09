package inmem

import (
	"context"
	"testing"

	"github.com/dekarrin/sequitur/server/dao"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SessionsRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionsRepository()
	owner := uuid.New()

	created, err := repo.Create(ctx, dao.Session{OwnerID: owner})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func Test_SessionsRepository_GetAllByUser(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionsRepository()
	owner1 := uuid.New()
	owner2 := uuid.New()

	s1, err := repo.Create(ctx, dao.Session{OwnerID: owner1})
	require.NoError(t, err)
	s2, err := repo.Create(ctx, dao.Session{OwnerID: owner1})
	require.NoError(t, err)
	_, err = repo.Create(ctx, dao.Session{OwnerID: owner2})
	require.NoError(t, err)

	got, err := repo.GetAllByUser(ctx, owner1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []dao.Session{s1, s2}, got)
}

func Test_SessionsRepository_AppendTerminals(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionsRepository()

	sesh, err := repo.Create(ctx, dao.Session{OwnerID: uuid.New()})
	require.NoError(t, err)

	updated, err := repo.AppendTerminals(ctx, sesh.ID, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), updated.Terminals)

	updated, err = repo.AppendTerminals(ctx, sesh.ID, []byte("def"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), updated.Terminals)
}

func Test_SessionsRepository_AppendTerminals_NotFound(t *testing.T) {
	repo := NewSessionsRepository()
	_, err := repo.AppendTerminals(context.Background(), uuid.New(), []byte("abc"))
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_SessionsRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionsRepository()
	owner := uuid.New()

	sesh, err := repo.Create(ctx, dao.Session{OwnerID: owner})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, sesh.ID))

	_, err = repo.GetByID(ctx, sesh.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)

	all, err := repo.GetAllByUser(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func Test_SessionsRepository_Delete_NotFound(t *testing.T) {
	repo := NewSessionsRepository()
	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
