package excel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/numaras/salesagent-sub000/internal/database/memstore"
	"github.com/numaras/salesagent-sub000/internal/models"
)

func seedExportStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	store.PutMediaBuy(models.MediaBuy{MediaBuyID: "mb1", TenantID: "t1", PrincipalID: "p1", Currency: "EUR", Status: models.MediaBuyStatusActive},
		models.MediaPackage{PackageID: "pkg1", PackageConfig: map[string]interface{}{
			"product_id": "prod1", "platform_line_item_id": "li1", "budget": 1500.0,
		}},
		models.MediaPackage{PackageID: "pkg2", PackageConfig: map[string]interface{}{"product_id": "prod2", "paused": true}},
	)
	store.PutCreative(models.Creative{TenantID: "t1", PrincipalID: "p1", CreativeID: "c1", Name: "Banner",
		AgentURL: "https://creative.example.com", Format: "display_300x250", Status: models.CreativeStatusApproved})
	require.NoError(t, store.Assignments().Create(ctx, &models.CreativeAssignment{
		TenantID: "t1", MediaBuyID: "mb1", PackageID: "pkg1", CreativeID: "c1", Weight: 100,
		PlacementIDs: []string{"A", "B"},
	}))
	return store
}

func TestExportMediaBuy(t *testing.T) {
	dir := t.TempDir()
	svc := NewExcelService(seedExportStore(t), dir)

	result, err := svc.ExportMediaBuy(context.Background(), &models.Identity{TenantID: "t1", PrincipalID: "p1"}, "mb1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Packages)
	assert.Equal(t, 1, result.Assignments)

	f, err := excelize.OpenFile(filepath.Join(dir, result.Filename))
	require.NoError(t, err)
	defer f.Close()

	pkgRows, err := f.GetRows(packagesSheet)
	require.NoError(t, err)
	require.Len(t, pkgRows, 3)
	assert.Equal(t, "package_id", pkgRows[0][0])
	assert.Equal(t, []string{"pkg1", "prod1", "li1", "1500", "EUR", "FALSE", "1"}, pkgRows[1])

	assignRows, err := f.GetRows(assignmentsSheet)
	require.NoError(t, err)
	require.Len(t, assignRows, 2)
	assert.Equal(t, []string{"pkg1", "c1", "Banner", "https://creative.example.com/display_300x250", "approved", "100", "A, B"}, assignRows[1])
}

func TestExportRejectsOtherPrincipal(t *testing.T) {
	svc := NewExcelService(seedExportStore(t), t.TempDir())

	_, err := svc.ExportMediaBuy(context.Background(), &models.Identity{TenantID: "t1", PrincipalID: "p2"}, "mb1")
	assert.ErrorIs(t, err, ErrMediaBuyNotFound)

	_, err = svc.ExportMediaBuy(context.Background(), &models.Identity{TenantID: "t1", PrincipalID: "p1"}, "mb404")
	assert.ErrorIs(t, err, ErrMediaBuyNotFound)
}
