package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

// Audit operation names
const (
	AuditOpSyncCreativesProtocol = "AdCP.sync_creatives"
	AuditOpSyncCreatives         = "sync_creatives"
	AuditOpUpdateMediaBuy        = "update_media_buy"
)

const maxAuditErrors = 5

// AuditService records operation audit entries. Recording never fails the
// audited operation.
type AuditService struct {
	store repository.Store
}

func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

// Log writes one entry, logging and swallowing any failure
func (s *AuditService) Log(ctx context.Context, entry *models.AuditLog) {
	if err := s.store.AuditLogs().Create(ctx, entry); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"tenant_id": entry.TenantID,
			"operation": entry.Operation,
		}).Warn("Failed to write audit log")
		utils.CaptureError(err, logrus.Fields{"tenant_id": entry.TenantID, "operation": entry.Operation})
	}
}

// LogSync records a sync batch twice: a protocol-level entry always, and a
// tool-level entry carrying the principal's name when the principal exists
func (s *AuditService) LogSync(ctx context.Context, identity *models.Identity, resp *models.SyncCreativesResponse, failures []string) {
	details := map[string]interface{}{
		"created":                 resp.Summary.Created,
		"updated":                 resp.Summary.Updated,
		"unchanged":               resp.Summary.Unchanged,
		"failed":                  resp.Summary.Failed,
		"assignment_count":        resp.AssignmentCount,
		"approval_required_count": resp.ApprovalRequiredCount,
	}
	success := len(failures) == 0
	errorSummary := summarizeErrors(failures)
	if errorSummary != "" {
		details["error_summary"] = errorSummary
	}

	s.Log(ctx, &models.AuditLog{
		TenantID:     identity.TenantID,
		PrincipalID:  identity.PrincipalID,
		Operation:    AuditOpSyncCreativesProtocol,
		Success:      success,
		ErrorMessage: errorSummary,
		Details:      details,
	})

	principal, err := s.store.Principals().GetByID(ctx, identity.TenantID, identity.PrincipalID)
	if err != nil {
		logrus.WithError(err).WithField("principal_id", identity.PrincipalID).Warn("Skipping tool-level audit entry: principal lookup failed")
		return
	}
	s.Log(ctx, &models.AuditLog{
		TenantID:      identity.TenantID,
		PrincipalID:   identity.PrincipalID,
		PrincipalName: principal.Name,
		Operation:     AuditOpSyncCreatives,
		Success:       success,
		ErrorMessage:  errorSummary,
		Details:       details,
	})
}

// LogUpdateMediaBuy records the outcome of an update_media_buy call
func (s *AuditService) LogUpdateMediaBuy(ctx context.Context, identity *models.Identity, principalName string,
	req *models.UpdateMediaBuyRequest, resp *models.UpdateMediaBuyResponse) {
	details := map[string]interface{}{
		"media_buy_id":      resp.MediaBuyID,
		"affected_packages": len(resp.AffectedPackages),
	}
	if req.Budget != nil {
		details["budget"] = req.Budget.Total
	}
	if resp.WorkflowStepID != "" {
		details["workflow_step_id"] = resp.WorkflowStepID
	}

	var messages []string
	for _, e := range resp.Errors {
		messages = append(messages, e.Code+": "+e.Message)
	}
	s.Log(ctx, &models.AuditLog{
		TenantID:      identity.TenantID,
		PrincipalID:   identity.PrincipalID,
		PrincipalName: principalName,
		Operation:     AuditOpUpdateMediaBuy,
		Success:       resp.Success(),
		ErrorMessage:  summarizeErrors(messages),
		Details:       details,
	})
}

// ListTenantLogs returns one page of a tenant's audit log, newest first
func (s *AuditService) ListTenantLogs(ctx context.Context, tenantID string, page, pageSize int) ([]*models.AuditLog, utils.PaginationResponse, error) {
	logs, total, err := s.store.AuditLogs().ListByTenant(ctx, tenantID, utils.CalculateOffset(page, pageSize), pageSize)
	if err != nil {
		return nil, utils.PaginationResponse{}, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, utils.CalculatePaginationInfo(int(total), page, pageSize), nil
}

// summarizeErrors keeps the first few messages and counts the rest
func summarizeErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) <= maxAuditErrors {
		return strings.Join(errs, "; ")
	}
	return fmt.Sprintf("%s (and %d more)", strings.Join(errs[:maxAuditErrors], "; "), len(errs)-maxAuditErrors)
}
