package ad_server

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/models"
)

// MockAdapter accepts every update and keeps it in memory. It is the
// default ad server for new tenants and for local development.
type MockAdapter struct {
	approvalSettings

	mu      sync.Mutex
	updates []Update
	failErr error
}

func NewMockAdapter(manualApproval bool, operations ...string) *MockAdapter {
	return &MockAdapter{approvalSettings: approvalSettings{required: manualApproval, operations: operations}}
}

func (a *MockAdapter) Name() string {
	return PlatformMock
}

// FailWith makes subsequent updates return err
func (a *MockAdapter) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failErr = err
}

func (a *MockAdapter) UpdateMediaBuy(_ context.Context, principal *models.Principal, update *Update) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failErr != nil {
		return a.failErr
	}
	a.updates = append(a.updates, *update)

	logrus.WithFields(logrus.Fields{
		"adapter":      PlatformMock,
		"principal_id": principal.PrincipalID,
		"media_buy_id": update.MediaBuyID,
		"action":       update.Action,
		"package_id":   update.PackageID,
	}).Info("Mock ad server accepted update")
	return nil
}

// Updates returns the updates accepted so far
func (a *MockAdapter) Updates() []Update {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Update(nil), a.updates...)
}
