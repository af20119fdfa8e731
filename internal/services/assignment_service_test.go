package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaras/salesagent-sub000/internal/database/memstore"
	"github.com/numaras/salesagent-sub000/internal/models"
)

func seedAssignmentStore(t *testing.T, buy models.MediaBuy, productFormats ...models.FormatRef) *memstore.Store {
	t.Helper()
	store := memstore.New()
	store.PutCreative(models.Creative{
		TenantID:    "t1",
		PrincipalID: "p1",
		CreativeID:  "c1",
		Name:        "Banner",
		AgentURL:    testAgentURL,
		Format:      "display_300x250",
		Status:      models.CreativeStatusApproved,
	})
	store.PutProduct(models.Product{TenantID: "t1", ProductID: "prod1", Name: "Homepage", FormatIDs: productFormats})
	store.PutMediaBuy(buy, models.MediaPackage{
		PackageID:     "pkg1",
		PackageConfig: map[string]interface{}{"product_id": "prod1"},
	})
	return store
}

func TestAssignIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := seedAssignmentStore(t, approvedBuy())
	svc := NewAssignmentService(store)
	assignments := map[string][]string{"c1": {"pkg1"}}

	for i := 0; i < 2; i++ {
		results := []models.SyncCreativeResult{{CreativeID: "c1", Action: models.SyncActionUnchanged}}
		outcome, err := svc.Assign(ctx, "t1", "p1", assignments, true, results)
		require.NoError(t, err)
		assert.Len(t, outcome.Assignments, 1)
		assert.Equal(t, []string{"pkg1"}, results[0].AssignedTo)
	}
	assert.Equal(t, 1, store.CountAssignments())

	rows, err := store.Assignments().ListByMediaBuy(ctx, "t1", "mb1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.DefaultAssignmentWeight, rows[0].Weight)
}

func TestAssignResetsWeight(t *testing.T) {
	ctx := context.Background()
	store := seedAssignmentStore(t, approvedBuy())
	require.NoError(t, store.Assignments().Create(ctx, &models.CreativeAssignment{
		TenantID: "t1", MediaBuyID: "mb1", PackageID: "pkg1", CreativeID: "c1", Weight: 25,
	}))

	_, err := NewAssignmentService(store).Assign(ctx, "t1", "p1", map[string][]string{"c1": {"pkg1"}}, true, nil)
	require.NoError(t, err)

	a, err := store.Assignments().Find(ctx, "t1", "mb1", "pkg1", "c1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAssignmentWeight, a.Weight)
}

func TestAssignMovesApprovedDraftToPendingCreatives(t *testing.T) {
	ctx := context.Background()
	store := seedAssignmentStore(t, approvedBuy())
	svc := NewAssignmentService(store)

	_, err := svc.Assign(ctx, "t1", "p1", map[string][]string{"c1": {"pkg1"}}, true, nil)
	require.NoError(t, err)

	buy, err := store.MediaBuys().GetByID(ctx, "t1", "mb1")
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStatusPendingCreatives, buy.Status)

	// a second pass leaves a non-draft buy alone
	_, err = svc.Assign(ctx, "t1", "p1", map[string][]string{"c1": {"pkg1"}}, true, nil)
	require.NoError(t, err)
	buy, err = store.MediaBuys().GetByID(ctx, "t1", "mb1")
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStatusPendingCreatives, buy.Status)
}

func TestAssignKeepsUnapprovedDraft(t *testing.T) {
	ctx := context.Background()
	buy := approvedBuy()
	buy.ApprovedAt = nil
	store := seedAssignmentStore(t, buy)

	_, err := NewAssignmentService(store).Assign(ctx, "t1", "p1", map[string][]string{"c1": {"pkg1"}}, true, nil)
	require.NoError(t, err)

	got, err := store.MediaBuys().GetByID(ctx, "t1", "mb1")
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStatusDraft, got.Status)
}

func TestAssignFormatCompatibility(t *testing.T) {
	t.Run("no declared formats allows everything", func(t *testing.T) {
		store := seedAssignmentStore(t, approvedBuy())
		_, err := NewAssignmentService(store).Assign(context.Background(), "t1", "p1",
			map[string][]string{"c1": {"pkg1"}}, true, nil)
		assert.NoError(t, err)
	})

	t.Run("agent URL matches with mcp suffix", func(t *testing.T) {
		store := seedAssignmentStore(t, approvedBuy(), models.FormatRef{AgentURL: testAgentURL + "/mcp/", ID: "display_300x250"})
		_, err := NewAssignmentService(store).Assign(context.Background(), "t1", "p1",
			map[string][]string{"c1": {"pkg1"}}, true, nil)
		assert.NoError(t, err)
	})

	t.Run("unsupported format names both sides", func(t *testing.T) {
		store := seedAssignmentStore(t, approvedBuy(), models.FormatRef{AgentURL: testAgentURL, ID: "display_728x90"})
		_, err := NewAssignmentService(store).Assign(context.Background(), "t1", "p1",
			map[string][]string{"c1": {"pkg1"}}, true, nil)

		var assignErr *AssignmentError
		require.ErrorAs(t, err, &assignErr)
		assert.Contains(t, assignErr.Message, "display_300x250")
		assert.Contains(t, assignErr.Message, "display_728x90")
		assert.Contains(t, assignErr.Message, "prod1")
		assert.Zero(t, store.CountAssignments())
	})
}

func TestAssignLenientRecordsErrorsPerPackage(t *testing.T) {
	store := seedAssignmentStore(t, approvedBuy(), models.FormatRef{AgentURL: testAgentURL, ID: "display_728x90"})
	results := []models.SyncCreativeResult{{CreativeID: "c1"}, {CreativeID: "c9"}}

	outcome, err := NewAssignmentService(store).Assign(context.Background(), "t1", "p1",
		map[string][]string{"c1": {"pkg1"}, "c9": {"pkg1"}}, false, results)
	require.NoError(t, err)

	assert.Empty(t, outcome.Assignments)
	assert.Contains(t, results[0].AssignmentErrors["pkg1"], "is not supported by product prod1")
	assert.Equal(t, "Creative not found: c9", results[1].AssignmentErrors["pkg1"])
	assert.Empty(t, results[0].AssignedTo)
}

func TestAssignmentErrorMessage(t *testing.T) {
	err := &AssignmentError{CreativeID: "c1", PackageID: "pkg1", Message: "Package not found: pkg1"}
	assert.Contains(t, err.Error(), "Package not found: pkg1")
}
