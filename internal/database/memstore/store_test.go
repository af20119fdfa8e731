package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
)

func newCreative(id string) *models.Creative {
	return &models.Creative{
		TenantID:    "t1",
		PrincipalID: "p1",
		CreativeID:  id,
		Name:        "Creative " + id,
		AgentURL:    "https://creative.example.com",
		Format:      "display_300x250",
	}
}

func TestItemIsolationRollsBackOnlyFailedItem(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("agent exploded")

	err := s.InTransaction(ctx, func(uow repository.UnitOfWork) error {
		for _, id := range []string{"c1", "c2", "c3"} {
			id := id
			itemErr := uow.WithItemIsolation(ctx, func(repos repository.Repositories) error {
				if err := repos.Creatives().Create(ctx, newCreative(id)); err != nil {
					return err
				}
				if id == "c2" {
					return boom
				}
				return nil
			})
			if id == "c2" {
				assert.ErrorIs(t, itemErr, boom)
			} else {
				assert.NoError(t, itemErr)
			}
		}
		return nil
	})
	require.NoError(t, err)

	for _, id := range []string{"c1", "c3"} {
		_, err := s.Creatives().GetByPrincipal(ctx, "t1", "p1", id)
		assert.NoError(t, err, id)
	}
	_, err = s.Creatives().GetByPrincipal(ctx, "t1", "p1", "c2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOuterRollbackUndoesEverything(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutCreative(*newCreative("existing"))

	err := s.InTransaction(ctx, func(uow repository.UnitOfWork) error {
		require.NoError(t, uow.Creatives().Create(ctx, newCreative("fresh")))
		c, err := uow.Creatives().GetByPrincipal(ctx, "t1", "p1", "existing")
		require.NoError(t, err)
		c.Name = "renamed"
		require.NoError(t, uow.Creatives().Update(ctx, c))
		return errors.New("dry run")
	})
	require.Error(t, err)

	_, err = s.Creatives().GetByPrincipal(ctx, "t1", "p1", "fresh")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	c, err := s.Creatives().GetByPrincipal(ctx, "t1", "p1", "existing")
	require.NoError(t, err)
	assert.Equal(t, "Creative existing", c.Name)
}

func TestCreativeLookupIsPrincipalScoped(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutCreative(*newCreative("shared_id"))

	_, err := s.Creatives().GetByPrincipal(ctx, "t1", "other_principal", "shared_id")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	other := newCreative("shared_id")
	other.PrincipalID = "other_principal"
	require.NoError(t, s.Creatives().Create(ctx, other))

	assert.ErrorIs(t, s.Creatives().Create(ctx, newCreative("shared_id")), repository.ErrDuplicate)
}

func TestReturnedRowsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := newCreative("c1")
	c.Data = map[string]interface{}{"url": "https://cdn.example.com/a.png"}
	require.NoError(t, s.Creatives().Create(ctx, c))

	got, err := s.Creatives().GetByPrincipal(ctx, "t1", "p1", "c1")
	require.NoError(t, err)
	got.Data["url"] = "mutated"

	again, err := s.Creatives().GetByPrincipal(ctx, "t1", "p1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", again.Data["url"])
}

func TestFindPackageRequiresTenantOwnership(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutMediaBuy(models.MediaBuy{MediaBuyID: "mb1", TenantID: "t1", PrincipalID: "p1", Status: models.MediaBuyStatusDraft},
		models.MediaPackage{PackageID: "pkg1"})

	pkg, buy, err := s.MediaBuys().FindPackage(ctx, "t1", "pkg1")
	require.NoError(t, err)
	assert.Equal(t, "mb1", pkg.MediaBuyID)
	assert.Equal(t, "mb1", buy.MediaBuyID)

	_, _, err = s.MediaBuys().FindPackage(ctx, "t2", "pkg1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAuditLogPagination(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.AuditLogs().Create(ctx, &models.AuditLog{TenantID: "t1", Operation: "sync_creatives"}))
	}
	require.NoError(t, s.AuditLogs().Create(ctx, &models.AuditLog{TenantID: "t2", Operation: "sync_creatives"}))

	page, total, err := s.AuditLogs().ListByTenant(ctx, "t1", 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)

	tail, _, err := s.AuditLogs().ListByTenant(ctx, "t1", 4, 10)
	require.NoError(t, err)
	assert.Len(t, tail, 1)
}

func TestWritesCounter(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutTenant(models.Tenant{TenantID: "t1"})
	assert.EqualValues(t, 0, s.Writes())

	_, err := s.Tenants().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, s.Writes())

	require.NoError(t, s.Creatives().Create(ctx, newCreative("c1")))
	assert.EqualValues(t, 1, s.Writes())
}
