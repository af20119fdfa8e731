package ad_server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaras/salesagent-sub000/internal/config"
	"github.com/numaras/salesagent-sub000/internal/models"
)

func TestFactoryForTenant(t *testing.T) {
	f := NewFactory(&config.AdServerConfig{Timeout: time.Second})

	adapter, err := f.ForTenant(&models.Tenant{TenantID: "t1", AdServer: "mock",
		ManualApprovalRequired: true, ManualApprovalOperations: []string{"update_media_buy"}})
	require.NoError(t, err)
	assert.Equal(t, PlatformMock, adapter.Name())
	assert.True(t, RequiresApproval(adapter, OperationUpdateMediaBuy))
	assert.False(t, RequiresApproval(adapter, "create_media_buy"))

	_, err = f.ForTenant(&models.Tenant{TenantID: "t1", AdServer: PlatformGoogleAdManager})
	assert.Error(t, err)

	_, err = f.ForTenant(&models.Tenant{TenantID: "t1", AdServer: "kevel"})
	assert.EqualError(t, err, "unsupported ad server: kevel")
}

func TestRequiresApprovalNeedsFlag(t *testing.T) {
	adapter := NewMockAdapter(false, OperationUpdateMediaBuy)
	assert.False(t, RequiresApproval(adapter, OperationUpdateMediaBuy))
}

func TestMockAdapterRecordsAndFails(t *testing.T) {
	adapter := NewMockAdapter(false)
	principal := &models.Principal{PrincipalID: "p1"}

	require.NoError(t, adapter.UpdateMediaBuy(context.Background(), principal,
		&Update{MediaBuyID: "mb1", Action: ActionPauseMediaBuy}))
	require.Len(t, adapter.Updates(), 1)

	adapter.FailWith(errors.New("line item locked"))
	assert.EqualError(t, adapter.UpdateMediaBuy(context.Background(), principal,
		&Update{MediaBuyID: "mb1", Action: ActionResumeMediaBuy}), "line item locked")
	assert.Len(t, adapter.Updates(), 1)
}

func TestGAMAdapterPostsAction(t *testing.T) {
	var got gamUpdateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/media-buys/mb1/actions", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	f := NewFactory(&config.AdServerConfig{GAMGatewayURL: server.URL, GAMAPIKey: "secret", Timeout: 5 * time.Second})
	adapter, err := f.ForTenant(&models.Tenant{TenantID: "t1", AdServer: PlatformGoogleAdManager})
	require.NoError(t, err)

	budget := 2500.0
	principal := &models.Principal{
		PrincipalID:      "p1",
		PlatformMappings: map[string]interface{}{"google_ad_manager": map[string]interface{}{"advertiser_id": "4455"}},
	}
	require.NoError(t, adapter.UpdateMediaBuy(context.Background(), principal, &Update{
		MediaBuyID: "mb1",
		Action:     ActionUpdatePackageBudget,
		PackageID:  "pkg1",
		LineItemID: "li_9",
		Budget:     &budget,
	}))

	assert.Equal(t, ActionUpdatePackageBudget, got.Action)
	assert.Equal(t, "4455", got.AdvertiserID)
	assert.Equal(t, "li_9", got.LineItemID)
	require.NotNil(t, got.Budget)
	assert.Equal(t, 2500.0, *got.Budget)
}

func TestGAMAdapterSurfacesGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"line item is archived"}`))
	}))
	defer server.Close()

	adapter := NewGAMAdapter(&config.AdServerConfig{GAMGatewayURL: server.URL, Timeout: 5 * time.Second}, false)
	err := adapter.UpdateMediaBuy(context.Background(), &models.Principal{PrincipalID: "p1"},
		&Update{MediaBuyID: "mb1", Action: ActionPauseMediaBuy})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line item is archived")
}
