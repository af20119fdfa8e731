package memstore

import (
	"time"

	"github.com/numaras/salesagent-sub000/internal/models"
)

// The Put helpers load rows that other parts of the system own (tenants,
// buys, products). They bypass the write counter.

func (s *Store) PutTenant(t models.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.TenantID] = cloneTenant(t)
}

func (s *Store) PutPrincipal(p models.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[key(p.TenantID, p.PrincipalID)] = clonePrincipal(p)
}

func (s *Store) PutCreative(c models.Creative) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Status == "" {
		c.Status = models.CreativeStatusPendingReview
	}
	s.creatives[creativeKey(&c)] = cloneCreative(c)
}

func (s *Store) PutMediaBuy(b models.MediaBuy, pkgs ...models.MediaPackage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	s.mediaBuys[b.MediaBuyID] = cloneMediaBuy(b)
	for _, p := range pkgs {
		p.MediaBuyID = b.MediaBuyID
		s.packages[key(p.MediaBuyID, p.PackageID)] = clonePackage(p)
	}
}

func (s *Store) PutProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[key(p.TenantID, p.ProductID)] = cloneProduct(p)
}

func (s *Store) PutCurrencyLimit(l models.CurrencyLimit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currencyLimits[key(l.TenantID, l.CurrencyCode)] = cloneCurrencyLimit(l)
}

// CountAssignments returns how many assignment rows exist
func (s *Store) CountAssignments() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assignments)
}

// AuditEntries returns all audit rows of a tenant, oldest first
func (s *Store) AuditEntries(tenantID string) []models.AuditLog {
	rows := filter(s.root, s.auditLogs, func(l models.AuditLog) bool { return l.TenantID == tenantID }, cloneAuditLog)
	return rows
}

// Steps returns every workflow step, ordered by ID
func (s *Store) Steps() []models.WorkflowStep {
	return filter(s.root, s.steps, func(models.WorkflowStep) bool { return true }, cloneStep)
}

// Mappings returns every object workflow mapping, ordered by ID
func (s *Store) Mappings() []models.ObjectWorkflowMapping {
	return filter(s.root, s.mappings, func(models.ObjectWorkflowMapping) bool { return true }, cloneMapping)
}
