package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaras/salesagent-sub000/internal/database/memstore"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/ad_server"
)

type staticAdapters struct {
	adapter ad_server.Adapter
	err     error
}

func (f staticAdapters) ForTenant(*models.Tenant) (ad_server.Adapter, error) {
	return f.adapter, f.err
}

var flightStart = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

type updateFixture struct {
	store    *memstore.Store
	adapter  *ad_server.MockAdapter
	notifier *recordingNotifier
	svc      *MediaBuyUpdateService
	identity *models.Identity
}

func newUpdateFixture(t *testing.T, adapter *ad_server.MockAdapter) *updateFixture {
	t.Helper()
	store := memstore.New()
	store.PutTenant(models.Tenant{
		TenantID:        "t1",
		Name:            "Acme News",
		AdServer:        ad_server.PlatformMock,
		SlackWebhookURL: "https://hooks.example.com/t1",
	})
	store.PutPrincipal(models.Principal{TenantID: "t1", PrincipalID: "p1", Name: "Buyer One"})
	store.PutPrincipal(models.Principal{TenantID: "t1", PrincipalID: "p2", Name: "Buyer Two"})

	end := flightStart.Add(10 * 24 * time.Hour)
	store.PutMediaBuy(models.MediaBuy{
		MediaBuyID:  "mb1",
		TenantID:    "t1",
		PrincipalID: "p1",
		BuyerRef:    "br1",
		Status:      models.MediaBuyStatusActive,
		Budget:      5000,
		Currency:    "USD",
		StartTime:   &flightStart,
		EndTime:     &end,
	},
		models.MediaPackage{PackageID: "pkg1", PackageConfig: map[string]interface{}{
			"product_id":            "prod1",
			"platform_line_item_id": "li1",
			"budget":                2500.0,
		}},
		models.MediaPackage{PackageID: "pkg2", PackageConfig: map[string]interface{}{"product_id": "prod_plain"}},
	)
	store.PutMediaBuy(models.MediaBuy{MediaBuyID: "mb_other", TenantID: "t1", PrincipalID: "p2", Status: models.MediaBuyStatusActive},
		models.MediaPackage{PackageID: "pkg_other"})

	store.PutProduct(models.Product{TenantID: "t1", ProductID: "prod1", Name: "Homepage",
		Placements: []models.Placement{{PlacementID: "A"}, {PlacementID: "B"}}})
	store.PutProduct(models.Product{TenantID: "t1", ProductID: "prod_plain", Name: "Run of site"})

	minBudget, maxDaily := 100.0, 1000.0
	store.PutCurrencyLimit(models.CurrencyLimit{TenantID: "t1", CurrencyCode: "USD",
		MinPackageBudget: &minBudget, MaxDailyPackageSpend: &maxDaily})

	for _, id := range []string{"c1", "c2"} {
		store.PutCreative(models.Creative{TenantID: "t1", PrincipalID: "p1", CreativeID: id, Name: id,
			AgentURL: testAgentURL, Format: "display_300x250", Status: models.CreativeStatusApproved})
	}

	if adapter == nil {
		adapter = ad_server.NewMockAdapter(false)
	}
	notifier := &recordingNotifier{}
	svc := NewMediaBuyUpdateService(
		store,
		staticAdapters{adapter: adapter},
		NewWorkflowService(store, notifier),
		NewAuditService(store),
		notifier,
	)
	return &updateFixture{
		store:    store,
		adapter:  adapter,
		notifier: notifier,
		svc:      svc,
		identity: &models.Identity{TenantID: "t1", PrincipalID: "p1", Protocol: "mcp"},
	}
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func errorCode(t *testing.T, resp *models.UpdateMediaBuyResponse) string {
	t.Helper()
	require.NotNil(t, resp)
	require.Len(t, resp.Errors, 1)
	return resp.Errors[0].Code
}

func TestUpdateCampaignBudget(t *testing.T) {
	f := newUpdateFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.UpdateMediaBuy(ctx, f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1",
		Budget:     &models.Budget{Total: 6000},
	})
	require.NoError(t, err)
	require.True(t, resp.Success(), resp.Errors)
	assert.Equal(t, models.UpdateStatusCompleted, resp.Status)

	var ids []string
	for _, p := range resp.AffectedPackages {
		ids = append(ids, p.PackageID)
	}
	assert.ElementsMatch(t, []string{"pkg1", "pkg2"}, ids)

	updates := f.adapter.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, ad_server.ActionUpdateMediaBuyBudget, updates[0].Action)
	assert.Equal(t, 6000.0, *updates[0].Budget)
	assert.Equal(t, "USD", updates[0].Currency)

	buy, err := f.store.MediaBuys().GetByID(ctx, "t1", "mb1")
	require.NoError(t, err)
	assert.Equal(t, 6000.0, buy.Budget)

	steps := f.store.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepStatusCompleted, steps[0].Status)
	assert.Equal(t, resp.WorkflowStepID, steps[0].StepID)

	entries := f.store.AuditEntries("t1")
	require.Len(t, entries, 1)
	assert.Equal(t, AuditOpUpdateMediaBuy, entries[0].Operation)
	assert.True(t, entries[0].Success)
	assert.Equal(t, "Buyer One", entries[0].PrincipalName)
}

func TestUpdateCampaignValidation(t *testing.T) {
	cases := []struct {
		name string
		req  *models.UpdateMediaBuyRequest
		code string
	}{
		{"no identifier", &models.UpdateMediaBuyRequest{}, models.ErrCodeMediaBuyNotFound},
		{"unknown buy", &models.UpdateMediaBuyRequest{MediaBuyID: "mb404"}, models.ErrCodeMediaBuyNotFound},
		{"unknown buyer ref", &models.UpdateMediaBuyRequest{BuyerRef: "nope"}, models.ErrCodeMediaBuyNotFound},
		{"other principal's buy", &models.UpdateMediaBuyRequest{MediaBuyID: "mb_other"}, models.ErrCodeMediaBuyNotFound},
		{"zero budget", &models.UpdateMediaBuyRequest{MediaBuyID: "mb1", Budget: &models.Budget{Total: 0}}, models.ErrCodeInvalidBudget},
		{"daily spend from flight", &models.UpdateMediaBuyRequest{MediaBuyID: "mb1", Budget: &models.Budget{Total: 20000}}, models.ErrCodeBudgetLimitExceeded},
		{"daily cap", &models.UpdateMediaBuyRequest{MediaBuyID: "mb1", Budget: &models.Budget{Total: 5000, DailyCap: floatPtr(1500)}}, models.ErrCodeBudgetLimitExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newUpdateFixture(t, nil)
			resp, err := f.svc.UpdateMediaBuy(context.Background(), f.identity, tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.code, errorCode(t, resp))
			assert.Empty(t, resp.AffectedPackages)
			assert.Empty(t, f.adapter.Updates())
		})
	}
}

func TestUpdateUnknownPrincipal(t *testing.T) {
	f := newUpdateFixture(t, nil)
	resp, err := f.svc.UpdateMediaBuy(context.Background(), &models.Identity{TenantID: "t1", PrincipalID: "p9"},
		&models.UpdateMediaBuyRequest{MediaBuyID: "mb1"})
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodePrincipalNotFound, errorCode(t, resp))

	entries := f.store.AuditEntries("t1")
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Contains(t, entries[0].ErrorMessage, models.ErrCodePrincipalNotFound)
}

func TestUpdateRequiresPrincipal(t *testing.T) {
	f := newUpdateFixture(t, nil)
	_, err := f.svc.UpdateMediaBuy(context.Background(), &models.Identity{TenantID: "t1"}, &models.UpdateMediaBuyRequest{MediaBuyID: "mb1"})
	assert.ErrorIs(t, err, ErrPrincipalRequired)
}

func TestUpdateResolvesBuyerRef(t *testing.T) {
	f := newUpdateFixture(t, nil)
	resp, err := f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
		BuyerRef: "br1",
		Paused:   boolPtr(true),
	})
	require.NoError(t, err)
	require.True(t, resp.Success(), resp.Errors)
	assert.Equal(t, "mb1", resp.MediaBuyID)

	buy, err := f.store.MediaBuys().GetByID(context.Background(), "t1", "mb1")
	require.NoError(t, err)
	assert.Equal(t, models.MediaBuyStatusPaused, buy.Status)
	require.Len(t, f.adapter.Updates(), 1)
	assert.Equal(t, ad_server.ActionPauseMediaBuy, f.adapter.Updates()[0].Action)
}

func TestUpdateDateRangeBoundary(t *testing.T) {
	f := newUpdateFixture(t, nil)
	start := flightStart.Add(24 * time.Hour)

	end := start
	resp, err := f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1", StartTime: &start, EndTime: &end,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeInvalidDateRange, errorCode(t, resp))

	end = start.Add(time.Second)
	resp, err = f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1", StartTime: &start, EndTime: &end,
	})
	require.NoError(t, err)
	assert.True(t, resp.Success(), resp.Errors)

	updates := f.adapter.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, ad_server.ActionUpdateMediaBuyDates, updates[0].Action)
}

func TestUpdatePackageValidation(t *testing.T) {
	cases := []struct {
		name string
		pkg  models.PackageUpdate
		code string
	}{
		{"unknown package", models.PackageUpdate{PackageID: "pkg9"}, models.ErrCodePackageNotFound},
		{"other buy's package", models.PackageUpdate{PackageID: "pkg_other"}, models.ErrCodePackageNotFound},
		{"zero budget", models.PackageUpdate{PackageID: "pkg1", Budget: floatPtr(0)}, models.ErrCodeInvalidBudget},
		{"below minimum", models.PackageUpdate{PackageID: "pkg1", Budget: floatPtr(50)}, models.ErrCodeBudgetBelowMinimum},
		{"daily spend", models.PackageUpdate{PackageID: "pkg1", Budget: floatPtr(20000)}, models.ErrCodeBudgetLimitExceeded},
		{"unknown creative", models.PackageUpdate{PackageID: "pkg1", CreativeIDs: []string{"c1", "c9"}}, models.ErrCodeCreativesNotFound},
		{"placements unsupported", models.PackageUpdate{PackageID: "pkg2", CreativeAssignments: []models.CreativeAssignmentUpdate{
			{CreativeID: "c1", PlacementIDs: []string{"A"}},
		}}, models.ErrCodePlacementTargetingNotSupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newUpdateFixture(t, nil)
			resp, err := f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
				MediaBuyID: "mb1",
				Packages:   []models.PackageUpdate{tc.pkg},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.code, errorCode(t, resp))
			assert.Empty(t, f.adapter.Updates())
		})
	}
}

func TestUpdateRejectsOnlyUnknownPlacements(t *testing.T) {
	f := newUpdateFixture(t, nil)
	resp, err := f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1",
		Packages: []models.PackageUpdate{{
			PackageID:           "pkg1",
			CreativeAssignments: []models.CreativeAssignmentUpdate{{CreativeID: "c1", PlacementIDs: []string{"A", "X"}}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeInvalidPlacementIDs, errorCode(t, resp))
	assert.True(t, strings.HasSuffix(resp.Errors[0].Message, "prod1: X"), resp.Errors[0].Message)
}

func TestUpdateDryRunWritesNothing(t *testing.T) {
	f := newUpdateFixture(t, nil)
	f.identity.DryRun = true
	before := f.store.Writes()

	resp, err := f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1",
		Budget:     &models.Budget{Total: 6000},
		Packages:   []models.PackageUpdate{{PackageID: "pkg1", Budget: floatPtr(3000)}},
	})
	require.NoError(t, err)
	require.True(t, resp.Success(), resp.Errors)

	assert.Equal(t, before, f.store.Writes())
	assert.Empty(t, f.adapter.Updates())
	assert.Empty(t, f.store.Steps())
	assert.Empty(t, f.store.AuditEntries("t1"))

	require.NotEmpty(t, resp.AffectedPackages)
	for _, p := range resp.AffectedPackages {
		assert.Equal(t, true, p.ChangesApplied["dry_run"])
	}
}

func TestUpdateHeldForManualApproval(t *testing.T) {
	f := newUpdateFixture(t, ad_server.NewMockAdapter(true, ad_server.OperationUpdateMediaBuy))
	ctx := context.Background()

	resp, err := f.svc.UpdateMediaBuy(ctx, f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1",
		Budget:     &models.Budget{Total: 6000},
	})
	require.NoError(t, err)
	require.True(t, resp.Success(), resp.Errors)
	assert.Equal(t, models.UpdateStatusSubmitted, resp.Status)
	assert.Empty(t, resp.AffectedPackages)
	require.NotEmpty(t, resp.WorkflowStepID)

	steps := f.store.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepStatusRequiresApproval, steps[0].Status)
	assert.Equal(t, "mb1", steps[0].RequestData["media_buy_id"])

	mappings := f.store.Mappings()
	require.Len(t, mappings, 1)
	assert.Equal(t, ObjectTypeMediaBuy, mappings[0].ObjectType)

	require.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0].Text, resp.WorkflowStepID)
	assert.Empty(t, f.adapter.Updates())

	buy, err := f.store.MediaBuys().GetByID(ctx, "t1", "mb1")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, buy.Budget)
}

func TestUpdateOtherOperationsSkipApproval(t *testing.T) {
	f := newUpdateFixture(t, ad_server.NewMockAdapter(true, "create_media_buy"))
	resp, err := f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1",
		Paused:     boolPtr(false),
	})
	require.NoError(t, err)
	require.True(t, resp.Success(), resp.Errors)
	assert.Len(t, f.adapter.Updates(), 1)
}

func TestUpdateAdapterFailure(t *testing.T) {
	f := newUpdateFixture(t, nil)
	f.adapter.FailWith(errors.New("line item locked"))

	resp, err := f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1",
		Budget:     &models.Budget{Total: 6000},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeAdapterError, errorCode(t, resp))
	assert.Contains(t, resp.Errors[0].Message, "line item locked")

	steps := f.store.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepStatusFailed, steps[0].Status)

	buy, err := f.store.MediaBuys().GetByID(context.Background(), "t1", "mb1")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, buy.Budget)
}

func TestUpdateAdapterUnavailable(t *testing.T) {
	f := newUpdateFixture(t, nil)
	f.svc.adapters = staticAdapters{err: errors.New("unsupported ad server: kevel")}

	resp, err := f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1",
		Paused:     boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeAdapterError, errorCode(t, resp))
}

func TestUpdatePackageReplacesCreatives(t *testing.T) {
	f := newUpdateFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.store.Assignments().Create(ctx, &models.CreativeAssignment{
		TenantID: "t1", MediaBuyID: "mb1", PackageID: "pkg1", CreativeID: "c2", Weight: 100,
	}))

	resp, err := f.svc.UpdateMediaBuy(ctx, f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1",
		Packages: []models.PackageUpdate{{
			PackageID:   "pkg1",
			Paused:      boolPtr(true),
			Budget:      floatPtr(3000),
			CreativeIDs: []string{"c1"},
		}},
	})
	require.NoError(t, err)
	require.True(t, resp.Success(), resp.Errors)

	require.Len(t, resp.AffectedPackages, 1)
	changes := resp.AffectedPackages[0].ChangesApplied
	assert.Equal(t, true, changes["paused"])
	assert.Equal(t, []string{"c1"}, changes["creative_ids"])

	rows, err := f.store.Assignments().ListByMediaBuy(ctx, "t1", "mb1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c1", rows[0].CreativeID)

	updates := f.adapter.Updates()
	require.Len(t, updates, 2)
	assert.Equal(t, ad_server.ActionPausePackage, updates[0].Action)
	assert.Equal(t, "li1", updates[0].LineItemID)
	assert.Equal(t, ad_server.ActionUpdatePackageBudget, updates[1].Action)
	assert.Equal(t, 3000.0, *updates[1].Budget)

	pkg, err := f.store.MediaBuys().GetPackage(ctx, "mb1", "pkg1")
	require.NoError(t, err)
	budget, ok := pkg.Budget()
	require.True(t, ok)
	assert.Equal(t, 3000.0, budget)
}

func TestUpdateCreativeAssignmentsWithPlacements(t *testing.T) {
	f := newUpdateFixture(t, nil)
	ctx := context.Background()
	weight := 40

	resp, err := f.svc.UpdateMediaBuy(ctx, f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb1",
		Packages: []models.PackageUpdate{{
			PackageID: "pkg1",
			CreativeAssignments: []models.CreativeAssignmentUpdate{
				{CreativeID: "c1", Weight: &weight, PlacementIDs: []string{"A"}},
			},
		}},
	})
	require.NoError(t, err)
	require.True(t, resp.Success(), resp.Errors)

	a, err := f.store.Assignments().Find(ctx, "t1", "mb1", "pkg1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 40, a.Weight)
	assert.Equal(t, []string{"A"}, []string(a.PlacementIDs))
}

func TestFlightDays(t *testing.T) {
	end := flightStart.Add(36 * time.Hour)
	assert.Equal(t, 2.0, flightDays(&flightStart, &end))

	short := flightStart.Add(time.Minute)
	assert.Equal(t, 1.0, flightDays(&flightStart, &short))

	assert.Equal(t, 1.0, flightDays(nil, &end))
	assert.Equal(t, 1.0, flightDays(&end, &flightStart))
}

func TestUpdateDailyCapWithoutFlightDates(t *testing.T) {
	f := newUpdateFixture(t, nil)
	f.store.PutMediaBuy(models.MediaBuy{MediaBuyID: "mb_undated", TenantID: "t1", PrincipalID: "p1",
		Status: models.MediaBuyStatusActive, Budget: 500, Currency: "USD"},
		models.MediaPackage{PackageID: "pkg_u", PackageConfig: map[string]interface{}{"product_id": "prod_plain"}})

	resp, err := f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb_undated",
		Budget:     &models.Budget{Total: 1500},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeBudgetLimitExceeded, errorCode(t, resp))

	resp, err = f.svc.UpdateMediaBuy(context.Background(), f.identity, &models.UpdateMediaBuyRequest{
		MediaBuyID: "mb_undated",
		Packages:   []models.PackageUpdate{{PackageID: "pkg_u", Budget: floatPtr(1200)}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeBudgetLimitExceeded, errorCode(t, resp))
	assert.Empty(t, f.adapter.Updates())
}
