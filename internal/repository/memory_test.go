package repository

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immxrtalbeast/collabdocs/internal/domain"
)

var (
	_ DocumentRepository = (*InMemoryDocumentRepository)(nil)
	_ UserRepository     = (*InMemoryUserRepository)(nil)
	_ DocumentRepository = (*PostgresDocumentRepository)(nil)
	_ UserRepository     = (*PostgresUserRepository)(nil)
)

func TestCreateIfMissing_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewInMemoryDocumentRepository()

	doc, err := repo.CreateIfMissing(ctx, "d1")
	require.NoError(t, err)
	assert.JSONEq(t, string(domain.EmptyContent), string(doc.Content))

	content := json.RawMessage(`{"ops":[{"insert":"kept"}]}`)
	require.NoError(t, repo.UpdateContent(ctx, "d1", content))

	again, err := repo.CreateIfMissing(ctx, "d1")
	require.NoError(t, err)
	assert.JSONEq(t, string(content), string(again.Content))
}

func TestCreateIfMissing_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewInMemoryDocumentRepository()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateIfMissing(ctx, "d1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	docs, err := repo.ListByOwner(ctx, "")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestUpdateContent_LastWriteWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewInMemoryDocumentRepository()

	before, err := repo.CreateIfMissing(ctx, "d1")
	require.NoError(t, err)

	x := json.RawMessage(`{"ops":[{"insert":"X"}]}`)
	y := json.RawMessage(`{"ops":[{"insert":"Y"}]}`)
	require.NoError(t, repo.UpdateContent(ctx, "d1", x))
	require.NoError(t, repo.UpdateContent(ctx, "d1", y))

	doc, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.JSONEq(t, string(y), string(doc.Content))
	assert.False(t, doc.LastUpdated.Before(before.LastUpdated))

	err = repo.UpdateContent(ctx, "missing", x)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestGetByLinkID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewInMemoryDocumentRepository()

	doc := domain.NewDocument("d1", "shared", "owner-1")
	require.NoError(t, repo.Create(ctx, doc))

	link := domain.NewSharedLink(domain.PermissionEdit)
	require.NoError(t, repo.AddSharedLink(ctx, "d1", link))

	found, err := repo.GetByLinkID(ctx, link.LinkID)
	require.NoError(t, err)
	assert.Equal(t, "d1", found.ID)
	require.NotNil(t, found.LinkByID(link.LinkID))

	_, err = repo.GetByLinkID(ctx, "bogus")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestAddSharedWith_FirstAccessWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewInMemoryDocumentRepository()

	doc := domain.NewDocument("d1", "shared", "owner-1")
	require.NoError(t, repo.Create(ctx, doc))

	now := time.Now().UTC()
	require.NoError(t, repo.AddSharedWith(ctx, "d1", domain.SharedWithEntry{
		UserID: "u1", Permission: domain.PermissionView, CreatedAt: now,
	}))
	require.NoError(t, repo.AddSharedWith(ctx, "d1", domain.SharedWithEntry{
		UserID: "u1", Permission: domain.PermissionEdit, CreatedAt: now,
	}))

	stored, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, stored.SharedWith, 1)
	assert.Equal(t, domain.PermissionView, stored.SharedWith[0].Permission)
}

func TestDelete_RemovesLinkIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewInMemoryDocumentRepository()

	doc := domain.NewDocument("d1", "tmp", "owner-1")
	require.NoError(t, repo.Create(ctx, doc))
	link := domain.NewSharedLink(domain.PermissionView)
	require.NoError(t, repo.AddSharedLink(ctx, "d1", link))

	require.NoError(t, repo.Delete(ctx, "d1"))

	_, err := repo.GetByID(ctx, "d1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	_, err = repo.GetByLinkID(ctx, link.LinkID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "d1"), ErrDocumentNotFound)
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewInMemoryDocumentRepository()

	_, err := repo.CreateIfMissing(ctx, "d1")
	require.NoError(t, err)

	first, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	first.Content = json.RawMessage(`{"ops":[{"insert":"mutated"}]}`)
	first.Title = "mutated"

	second, err := repo.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.JSONEq(t, string(domain.EmptyContent), string(second.Content))
	assert.Empty(t, second.Title)
}

func TestUserRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewInMemoryUserRepository()

	user := domain.NewUser("alice", "hash")
	require.NoError(t, repo.Create(ctx, user))
	assert.ErrorIs(t, repo.Create(ctx, domain.NewUser("alice", "other")), ErrUserNameExists)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Name)

	byName, err := repo.GetByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	bob := domain.NewUser("bob", "hash")
	require.NoError(t, repo.Create(ctx, bob))

	users, err := repo.ListByIDs(ctx, []string{user.ID, bob.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
