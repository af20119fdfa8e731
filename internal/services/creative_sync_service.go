package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/approval"
	"github.com/numaras/salesagent-sub000/internal/services/creative_agent"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

// errDryRun rolls back a dry-run batch after it has been fully evaluated
var errDryRun = errors.New("dry run")

// ReviewSubmitter queues asynchronous AI reviews
type ReviewSubmitter interface {
	Submit(ctx context.Context, tenantID, principalID, creativeID string) (string, error)
}

// CreativeSyncService runs sync_creatives: creatives are validated and
// persisted one savepoint at a time inside one batch transaction, then
// assignments, workflow steps and audit entries follow in that order
type CreativeSyncService struct {
	store       repository.Store
	validator   *creative_agent.Validator
	processor   *CreativeProcessor
	assignments *AssignmentService
	workflows   *WorkflowService
	audit       *AuditService
	reviews     ReviewSubmitter
}

func NewCreativeSyncService(
	store repository.Store,
	validator *creative_agent.Validator,
	processor *CreativeProcessor,
	assignments *AssignmentService,
	workflows *WorkflowService,
	audit *AuditService,
	reviews ReviewSubmitter,
) *CreativeSyncService {
	return &CreativeSyncService{
		store:       store,
		validator:   validator,
		processor:   processor,
		assignments: assignments,
		workflows:   workflows,
		audit:       audit,
		reviews:     reviews,
	}
}

// SyncCreatives creates or updates every creative of the request and
// reports one result per input creative, in input order
func (s *CreativeSyncService) SyncCreatives(ctx context.Context, identity *models.Identity, req *models.SyncCreativesRequest) (*models.SyncCreativesResponse, error) {
	if identity == nil || identity.PrincipalID == "" {
		return nil, ErrPrincipalRequired
	}
	tenant, err := s.store.Tenants().GetByID(ctx, identity.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, identity.TenantID)
		}
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"tenant_id":    identity.TenantID,
		"principal_id": identity.PrincipalID,
	})

	mode := approval.ParseMode(tenant.ApprovalMode)
	strict := req.ValidationMode == models.ValidationModeStrict
	dryRun := req.DryRun || identity.DryRun
	assets := filterCreatives(req.Creatives, req.CreativeIDs)
	if req.DeleteMissing {
		log.Info("delete_missing requested; creatives absent from the batch are kept")
	}

	catalog := s.validator.Registry().Prefetch(ctx, s.formatIDs(assets))

	outcomes := make([]*creativeOutcome, len(assets))
	var assignment *AssignmentOutcome
	err = s.store.InTransaction(ctx, func(uow repository.UnitOfWork) error {
		for i := range assets {
			asset := &assets[i]
			var outcome *creativeOutcome
			itemErr := uow.WithItemIsolation(ctx, func(repos repository.Repositories) error {
				var err error
				outcome, err = s.processor.Process(ctx, repos, identity.TenantID, identity.PrincipalID, asset, mode, catalog)
				if err == nil && outcome.result.Action == models.SyncActionFailed {
					err = errors.New(strings.Join(outcome.result.Errors, "; "))
				}
				return err
			})
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if itemErr != nil {
				log.WithField("creative_id", asset.CreativeID).WithError(itemErr).Warn("Creative failed to sync")
				if outcome == nil {
					outcome = failedOutcome(asset.CreativeID, retryMessage(itemErr))
				}
				outcome.creative = nil
			}
			outcomes[i] = outcome
		}

		if !dryRun {
			return nil
		}
		if len(req.Assignments) > 0 {
			var err error
			assignment, err = s.assignments.Resolve(ctx, uow, identity.TenantID, identity.PrincipalID, req.Assignments, strict)
			if err != nil {
				return err
			}
		}
		return errDryRun
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}

	results := make([]models.SyncCreativeResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.result
	}

	if !dryRun {
		s.submitReviews(ctx, identity, outcomes)

		if len(req.Assignments) > 0 {
			assignment, err = s.assignments.Assign(ctx, identity.TenantID, identity.PrincipalID, req.Assignments, strict, results)
			if err != nil {
				// the creatives are committed, so pending ones still need their steps
				s.openApprovalSteps(ctx, identity, tenant, mode, outcomes, req)
				s.auditFailure(ctx, identity, results, err)
				return nil, err
			}
		}
	} else if assignment != nil {
		assignment.Splice(results)
	}

	resp := buildSyncResponse(results, outcomes, assignment, dryRun)
	resp.Context = req.Context

	if !dryRun {
		s.openApprovalSteps(ctx, identity, tenant, mode, outcomes, req)
		s.audit.LogSync(ctx, identity, resp, failureMessages(results))
	}

	log.WithFields(logrus.Fields{
		"created":   resp.Summary.Created,
		"updated":   resp.Summary.Updated,
		"unchanged": resp.Summary.Unchanged,
		"failed":    resp.Summary.Failed,
		"dry_run":   dryRun,
	}).Info("Creative sync finished")
	return resp, nil
}

func (s *CreativeSyncService) formatIDs(assets []models.CreativeAsset) []models.FormatID {
	fids := make([]models.FormatID, 0, len(assets))
	for _, a := range assets {
		if a.FormatID != nil {
			fids = append(fids, s.validator.Qualify(*a.FormatID))
		}
	}
	return fids
}

func (s *CreativeSyncService) submitReviews(ctx context.Context, identity *models.Identity, outcomes []*creativeOutcome) {
	for _, o := range outcomes {
		if !o.submitsReview() {
			continue
		}
		taskID, err := s.reviews.Submit(ctx, identity.TenantID, identity.PrincipalID, o.creative.CreativeID)
		if err != nil {
			logrus.WithError(err).WithField("creative_id", o.creative.CreativeID).Error("Failed to submit AI review")
			utils.CaptureError(err, logrus.Fields{"creative_id": o.creative.CreativeID})
			continue
		}
		logrus.WithFields(logrus.Fields{
			"creative_id": o.creative.CreativeID,
			"task_id":     taskID,
		}).Debug("AI review submitted")
	}
}

func (s *CreativeSyncService) openApprovalSteps(ctx context.Context, identity *models.Identity, tenant *models.Tenant,
	mode approval.Mode, outcomes []*creativeOutcome, req *models.SyncCreativesRequest) {
	var pending []*models.Creative
	for _, o := range outcomes {
		if o.needsApproval() {
			pending = append(pending, o.creative)
		}
	}
	if len(pending) == 0 {
		return
	}

	batch := &ApprovalBatch{
		Tenant:    tenant,
		Mode:      mode,
		Creatives: pending,
		Push:      req.PushNotificationConfig,
		Context:   req.Context,
	}
	if principal, err := s.store.Principals().GetByID(ctx, identity.TenantID, identity.PrincipalID); err == nil {
		batch.PrincipalName = principal.Name
	} else {
		batch.PrincipalName = identity.PrincipalID
	}

	if _, err := s.workflows.CreateCreativeApprovalSteps(ctx, identity, batch); err != nil {
		logrus.WithError(err).WithField("tenant_id", identity.TenantID).Error("Failed to create creative approval workflow steps")
		utils.CaptureError(err, logrus.Fields{"tenant_id": identity.TenantID})
	}
}

func (s *CreativeSyncService) auditFailure(ctx context.Context, identity *models.Identity, results []models.SyncCreativeResult, cause error) {
	resp := buildSyncResponse(results, nil, nil, false)
	s.audit.LogSync(ctx, identity, resp, append(failureMessages(results), cause.Error()))
}

// filterCreatives keeps only the creatives named in ids, preserving input
// order. An empty filter keeps everything.
func filterCreatives(creatives []models.CreativeAsset, ids []string) []models.CreativeAsset {
	if len(ids) == 0 {
		return creatives
	}
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	out := make([]models.CreativeAsset, 0, len(creatives))
	for _, c := range creatives {
		if keep[c.CreativeID] {
			out = append(out, c)
		}
	}
	return out
}

func failureMessages(results []models.SyncCreativeResult) []string {
	var msgs []string
	for _, r := range results {
		if r.Action == models.SyncActionFailed {
			msgs = append(msgs, fmt.Sprintf("%s: %s", r.CreativeID, strings.Join(r.Errors, "; ")))
		}
	}
	return msgs
}

func buildSyncResponse(results []models.SyncCreativeResult, outcomes []*creativeOutcome, assignment *AssignmentOutcome, dryRun bool) *models.SyncCreativesResponse {
	resp := &models.SyncCreativesResponse{
		Creatives: results,
		DryRun:    dryRun,
	}
	resp.Summary.TotalProcessed = len(results)
	for _, r := range results {
		switch r.Action {
		case models.SyncActionCreated:
			resp.Summary.Created++
		case models.SyncActionUpdated:
			resp.Summary.Updated++
		case models.SyncActionUnchanged:
			resp.Summary.Unchanged++
		case models.SyncActionFailed:
			resp.Summary.Failed++
		case models.SyncActionDeleted:
			resp.Summary.Deleted++
		}
	}
	for _, o := range outcomes {
		if o.needsApproval() {
			resp.ApprovalRequiredCount++
		}
	}
	if assignment != nil {
		resp.AssignmentCount = len(assignment.Assignments)
	}
	resp.Message = syncMessage(resp)
	return resp
}

// syncMessage renders e.g. "Synced 3 creatives (2 created, 1 updated),
// 1 failed, 2 assignments created, 1 requires approval"
func syncMessage(resp *models.SyncCreativesResponse) string {
	sum := resp.Summary
	var b strings.Builder
	if resp.DryRun {
		b.WriteString("Dry run: ")
	}
	fmt.Fprintf(&b, "Synced %d creatives", sum.Created+sum.Updated)

	var parts []string
	if sum.Created > 0 {
		parts = append(parts, fmt.Sprintf("%d created", sum.Created))
	}
	if sum.Updated > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", sum.Updated))
	}
	if sum.Unchanged > 0 {
		parts = append(parts, fmt.Sprintf("%d unchanged", sum.Unchanged))
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}

	if sum.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", sum.Failed)
	}
	if resp.AssignmentCount > 0 {
		fmt.Fprintf(&b, ", %d assignments created", resp.AssignmentCount)
	}
	if n := resp.ApprovalRequiredCount; n > 0 {
		verb := "require"
		if n == 1 {
			verb = "requires"
		}
		fmt.Fprintf(&b, ", %d %s approval", n, verb)
	}
	return b.String()
}
