package ad_server

import (
	"fmt"

	"github.com/numaras/salesagent-sub000/internal/config"
	"github.com/numaras/salesagent-sub000/internal/models"
)

// Supported ad server names, as stored in tenants.ad_server
const (
	PlatformMock            = "mock"
	PlatformGoogleAdManager = "google_ad_manager"
)

// AdapterFactory builds the adapter configured for a tenant
type AdapterFactory interface {
	ForTenant(tenant *models.Tenant) (Adapter, error)
}

// Factory creates adapters from tenant settings
type Factory struct {
	cfg *config.AdServerConfig
}

// NewFactory creates a new adapter factory
func NewFactory(cfg *config.AdServerConfig) *Factory {
	return &Factory{cfg: cfg}
}

// ForTenant returns the adapter named by the tenant's ad_server column
func (f *Factory) ForTenant(tenant *models.Tenant) (Adapter, error) {
	operations := append([]string(nil), tenant.ManualApprovalOperations...)

	switch tenant.AdServer {
	case "", PlatformMock:
		return NewMockAdapter(tenant.ManualApprovalRequired, operations...), nil
	case PlatformGoogleAdManager:
		if f.cfg.GAMGatewayURL == "" {
			return nil, fmt.Errorf("tenant %s uses %s but GAM_GATEWAY_URL is not set", tenant.TenantID, PlatformGoogleAdManager)
		}
		return NewGAMAdapter(f.cfg, tenant.ManualApprovalRequired, operations...), nil
	default:
		return nil, fmt.Errorf("unsupported ad server: %s", tenant.AdServer)
	}
}

// GetSupportedPlatforms returns the ad servers ForTenant can build
func (f *Factory) GetSupportedPlatforms() []string {
	return []string{PlatformMock, PlatformGoogleAdManager}
}

type approvalSettings struct {
	required   bool
	operations []string
}

func (a approvalSettings) ManualApprovalRequired() bool {
	return a.required
}

func (a approvalSettings) ManualApprovalOperations() []string {
	return a.operations
}
