package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/ad_server"
	"github.com/numaras/salesagent-sub000/internal/services/notification"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

// MediaBuyUpdateService runs update_media_buy: it validates campaign and
// package changes, holds them for manual approval when the ad server asks
// for it, and otherwise pushes them to the ad server and the database
type MediaBuyUpdateService struct {
	store     repository.Store
	adapters  ad_server.AdapterFactory
	workflows *WorkflowService
	audit     *AuditService
	notifier  notification.Notifier
}

func NewMediaBuyUpdateService(
	store repository.Store,
	adapters ad_server.AdapterFactory,
	workflows *WorkflowService,
	audit *AuditService,
	notifier notification.Notifier,
) *MediaBuyUpdateService {
	return &MediaBuyUpdateService{
		store:     store,
		adapters:  adapters,
		workflows: workflows,
		audit:     audit,
		notifier:  notifier,
	}
}

// updatePlan is a validated update ready to be applied
type updatePlan struct {
	identity  *models.Identity
	tenant    *models.Tenant
	principal *models.Principal
	buy       *models.MediaBuy
	req       *models.UpdateMediaBuyRequest
	currency  string
	packages  []*models.MediaPackage
	// allPackages is loaded only for campaign budget changes
	allPackages []*models.MediaPackage
}

func errorResponse(req *models.UpdateMediaBuyRequest, mediaBuyID, code, message string) *models.UpdateMediaBuyResponse {
	return &models.UpdateMediaBuyResponse{
		Status:           models.UpdateStatusFailed,
		MediaBuyID:       mediaBuyID,
		BuyerRef:         req.BuyerRef,
		AffectedPackages: []models.AffectedPackage{},
		Errors:           []models.ErrorDetail{{Code: code, Message: message}},
		Context:          req.Context,
	}
}

// UpdateMediaBuy validates and applies req. Caller errors come back as a
// response with Errors set; the error return is reserved for a missing
// principal and storage failures.
func (s *MediaBuyUpdateService) UpdateMediaBuy(ctx context.Context, identity *models.Identity, req *models.UpdateMediaBuyRequest) (*models.UpdateMediaBuyResponse, error) {
	if identity == nil || identity.PrincipalID == "" {
		return nil, ErrPrincipalRequired
	}

	plan, resp, err := s.validate(ctx, identity, req)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		if !identity.DryRun {
			principalName := ""
			if plan != nil && plan.principal != nil {
				principalName = plan.principal.Name
			}
			s.audit.LogUpdateMediaBuy(ctx, identity, principalName, req, resp)
		}
		return resp, nil
	}

	if identity.DryRun {
		return s.dryRunResponse(plan), nil
	}

	adapter, err := s.adapters.ForTenant(plan.tenant)
	if err != nil {
		resp := errorResponse(req, plan.buy.MediaBuyID, models.ErrCodeAdapterError, err.Error())
		s.audit.LogUpdateMediaBuy(ctx, identity, plan.principal.Name, req, resp)
		return resp, nil
	}

	if ad_server.RequiresApproval(adapter, ad_server.OperationUpdateMediaBuy) {
		return s.holdForApproval(ctx, plan)
	}
	return s.apply(ctx, plan, adapter)
}

func (s *MediaBuyUpdateService) validate(ctx context.Context, identity *models.Identity, req *models.UpdateMediaBuyRequest) (*updatePlan, *models.UpdateMediaBuyResponse, error) {
	principal, err := s.store.Principals().GetByID(ctx, identity.TenantID, identity.PrincipalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errorResponse(req, req.MediaBuyID, models.ErrCodePrincipalNotFound,
			fmt.Sprintf("Principal %s not found", identity.PrincipalID)), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load principal: %w", err)
	}

	tenant, err := s.store.Tenants().GetByID(ctx, identity.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrTenantNotFound, identity.TenantID)
		}
		return nil, nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	plan := &updatePlan{identity: identity, tenant: tenant, principal: principal, req: req}

	buy, resp, err := s.resolveMediaBuy(ctx, identity, req)
	if err != nil || resp != nil {
		return plan, resp, err
	}
	plan.buy = buy

	plan.currency = buy.Currency
	if req.Budget != nil && req.Budget.Currency != "" {
		plan.currency = req.Budget.Currency
	}
	if plan.currency == "" {
		plan.currency = "USD"
	}
	limit, err := s.store.CurrencyLimits().Get(ctx, identity.TenantID, plan.currency)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to load currency limit: %w", err)
	}

	start, end := buy.StartTime, buy.EndTime
	if req.StartTime != nil {
		start = req.StartTime
	}
	if req.EndTime != nil {
		end = req.EndTime
	}
	days := flightDays(start, end)

	if req.Budget != nil {
		if code, msg := checkCampaignBudget(req.Budget, limit, days, plan.currency); code != "" {
			return plan, errorResponse(req, buy.MediaBuyID, code, msg), nil
		}
		plan.allPackages, err = s.store.MediaBuys().ListPackages(ctx, buy.MediaBuyID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list packages: %w", err)
		}
	}

	if (req.StartTime != nil || req.EndTime != nil) && start != nil && end != nil && !end.After(*start) {
		return plan, errorResponse(req, buy.MediaBuyID, models.ErrCodeInvalidDateRange,
			"Invalid date range: end_time must be after start_time"), nil
	}

	for i := range req.Packages {
		pkg, code, msg, err := s.validatePackage(ctx, plan, &req.Packages[i], limit, days)
		if err != nil {
			return nil, nil, err
		}
		if code != "" {
			return plan, errorResponse(req, buy.MediaBuyID, code, msg), nil
		}
		plan.packages = append(plan.packages, pkg)
	}

	return plan, nil, nil
}

func (s *MediaBuyUpdateService) resolveMediaBuy(ctx context.Context, identity *models.Identity, req *models.UpdateMediaBuyRequest) (*models.MediaBuy, *models.UpdateMediaBuyResponse, error) {
	var buy *models.MediaBuy
	var err error
	switch {
	case req.MediaBuyID != "":
		buy, err = s.store.MediaBuys().GetByID(ctx, identity.TenantID, req.MediaBuyID)
	case req.BuyerRef != "":
		buy, err = s.store.MediaBuys().GetByBuyerRef(ctx, identity.TenantID, identity.PrincipalID, req.BuyerRef)
	default:
		return nil, errorResponse(req, "", models.ErrCodeMediaBuyNotFound, "Either media_buy_id or buyer_ref is required"), nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		ref := req.MediaBuyID
		if ref == "" {
			ref = "with buyer_ref " + req.BuyerRef
		}
		return nil, errorResponse(req, req.MediaBuyID, models.ErrCodeMediaBuyNotFound, fmt.Sprintf("Media buy %s not found", ref)), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load media buy: %w", err)
	}

	if buy.PrincipalID != identity.PrincipalID {
		logrus.WithFields(logrus.Fields{
			"tenant_id":    identity.TenantID,
			"principal_id": identity.PrincipalID,
			"media_buy_id": buy.MediaBuyID,
		}).Warn("Principal attempted to update a media buy it does not own")
		return nil, errorResponse(req, buy.MediaBuyID, models.ErrCodeMediaBuyNotFound, fmt.Sprintf("Media buy %s not found", buy.MediaBuyID)), nil
	}
	return buy, nil, nil
}

func checkCampaignBudget(budget *models.Budget, limit *models.CurrencyLimit, days float64, currency string) (string, string) {
	if budget.Total <= 0 {
		return models.ErrCodeInvalidBudget, fmt.Sprintf("Invalid budget: %g. Budget must be positive.", budget.Total)
	}
	if limit == nil || limit.MaxDailyPackageSpend == nil {
		return "", ""
	}

	daily := budget.Total / days
	if budget.DailyCap != nil {
		daily = *budget.DailyCap
	}
	if daily > *limit.MaxDailyPackageSpend {
		return models.ErrCodeBudgetLimitExceeded, fmt.Sprintf("Daily spend %.2f %s exceeds the maximum daily package spend of %.2f %s",
			daily, currency, *limit.MaxDailyPackageSpend, currency)
	}
	return "", ""
}

func (s *MediaBuyUpdateService) validatePackage(ctx context.Context, plan *updatePlan, pu *models.PackageUpdate,
	limit *models.CurrencyLimit, days float64) (*models.MediaPackage, string, string, error) {
	pkg, err := s.store.MediaBuys().GetPackage(ctx, plan.buy.MediaBuyID, pu.PackageID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, models.ErrCodePackageNotFound,
			fmt.Sprintf("Package %s not found in media buy %s", pu.PackageID, plan.buy.MediaBuyID), nil
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to load package %s: %w", pu.PackageID, err)
	}

	if pu.Budget != nil {
		if *pu.Budget <= 0 {
			return nil, models.ErrCodeInvalidBudget, fmt.Sprintf("Invalid budget for package %s: %g. Budget must be positive.", pu.PackageID, *pu.Budget), nil
		}
		if limit != nil && limit.MinPackageBudget != nil && *pu.Budget < *limit.MinPackageBudget {
			return nil, models.ErrCodeBudgetBelowMinimum, fmt.Sprintf("Package %s budget %.2f %s is below the minimum package budget of %.2f %s",
				pu.PackageID, *pu.Budget, plan.currency, *limit.MinPackageBudget, plan.currency), nil
		}
		if limit != nil && limit.MaxDailyPackageSpend != nil && *pu.Budget/days > *limit.MaxDailyPackageSpend {
			return nil, models.ErrCodeBudgetLimitExceeded, fmt.Sprintf("Package %s daily spend %.2f %s exceeds the maximum daily package spend of %.2f %s",
				pu.PackageID, *pu.Budget/days, plan.currency, *limit.MaxDailyPackageSpend, plan.currency), nil
		}
	}

	creativeIDs := append([]string(nil), pu.CreativeIDs...)
	for _, ca := range pu.CreativeAssignments {
		creativeIDs = append(creativeIDs, ca.CreativeID)
	}
	if len(creativeIDs) > 0 {
		missing, err := s.missingCreatives(ctx, plan.identity, creativeIDs)
		if err != nil {
			return nil, "", "", err
		}
		if len(missing) > 0 {
			return nil, models.ErrCodeCreativesNotFound, fmt.Sprintf("Creatives not found: %s", strings.Join(missing, ", ")), nil
		}
	}

	for _, ca := range pu.CreativeAssignments {
		if len(ca.PlacementIDs) == 0 {
			continue
		}
		code, msg, err := s.checkPlacements(ctx, plan.identity.TenantID, pkg, ca.PlacementIDs)
		if err != nil || code != "" {
			return nil, code, msg, err
		}
	}
	return pkg, "", "", nil
}

func (s *MediaBuyUpdateService) missingCreatives(ctx context.Context, identity *models.Identity, ids []string) ([]string, error) {
	found, err := s.store.Creatives().ListByCreativeIDs(ctx, identity.TenantID, identity.PrincipalID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load creatives: %w", err)
	}
	have := make(map[string]bool, len(found))
	for _, c := range found {
		have[c.CreativeID] = true
	}

	var missing []string
	seen := map[string]bool{}
	for _, id := range ids {
		if !have[id] && !seen[id] {
			seen[id] = true
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// checkPlacements rejects placement IDs the package's product does not offer
func (s *MediaBuyUpdateService) checkPlacements(ctx context.Context, tenantID string, pkg *models.MediaPackage, requested []string) (string, string, error) {
	productID := pkg.ProductID()
	var available []models.Placement
	if productID != "" {
		product, err := s.store.Products().GetByID(ctx, tenantID, productID)
		switch {
		case err == nil:
			available = product.Placements
		case errors.Is(err, repository.ErrNotFound):
		default:
			return "", "", fmt.Errorf("failed to load product %s: %w", productID, err)
		}
	}
	if len(available) == 0 {
		return models.ErrCodePlacementTargetingNotSupported,
			fmt.Sprintf("Product %s does not support placement targeting", productID), nil
	}

	known := make(map[string]bool, len(available))
	for _, p := range available {
		known[p.PlacementID] = true
	}
	var invalid []string
	for _, id := range requested {
		if !known[id] {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return models.ErrCodeInvalidPlacementIDs,
			fmt.Sprintf("Invalid placement IDs for product %s: %s", productID, strings.Join(invalid, ", ")), nil
	}
	return "", "", nil
}

// flightDays returns the flight length in whole days, at least one. An
// unknown or empty flight counts as a single day.
func flightDays(start, end *time.Time) float64 {
	if start == nil || end == nil || !end.After(*start) {
		return 1
	}
	return math.Max(1, math.Ceil(end.Sub(*start).Hours()/24))
}

func (s *MediaBuyUpdateService) dryRunResponse(plan *updatePlan) *models.UpdateMediaBuyResponse {
	resp := &models.UpdateMediaBuyResponse{
		Status:           models.UpdateStatusCompleted,
		MediaBuyID:       plan.buy.MediaBuyID,
		BuyerRef:         plan.buy.BuyerRef,
		AffectedPackages: []models.AffectedPackage{},
		Message:          "Dry run: update validated, no changes applied",
		Context:          plan.req.Context,
	}
	for _, pkg := range plan.allPackages {
		resp.AffectedPackages = append(resp.AffectedPackages, models.AffectedPackage{
			PackageID:      pkg.PackageID,
			BuyerRef:       plan.buy.BuyerRef,
			ChangesApplied: map[string]interface{}{"dry_run": true},
		})
	}
	for _, pkg := range plan.packages {
		resp.AffectedPackages = append(resp.AffectedPackages, models.AffectedPackage{
			PackageID:      pkg.PackageID,
			BuyerRef:       plan.buy.BuyerRef,
			ChangesApplied: map[string]interface{}{"dry_run": true},
		})
	}
	return resp
}

func (s *MediaBuyUpdateService) holdForApproval(ctx context.Context, plan *updatePlan) (*models.UpdateMediaBuyResponse, error) {
	var step *models.WorkflowStep
	err := s.store.InTransaction(ctx, func(uow repository.UnitOfWork) error {
		requestData := toJSONMap(plan.req)
		if requestData == nil {
			requestData = map[string]interface{}{}
		}
		requestData["media_buy_id"] = plan.buy.MediaBuyID
		requestData["protocol"] = protocolOf(plan.identity)

		var err error
		step, err = s.workflows.OpenStep(ctx, uow, plan.identity, StepTypeMediaBuyUpdate, AuditOpUpdateMediaBuy,
			StepOwnerPublisher, models.StepStatusRequiresApproval, requestData,
			fmt.Sprintf("Manual approval required for update_media_buy on media buy %s", plan.buy.MediaBuyID))
		if err != nil {
			return err
		}
		return uow.Workflows().CreateMapping(ctx, &models.ObjectWorkflowMapping{
			ObjectType: ObjectTypeMediaBuy,
			ObjectID:   plan.buy.MediaBuyID,
			StepID:     step.StepID,
			Action:     "update",
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open approval step: %w", err)
	}

	if plan.tenant.SlackWebhookURL != "" {
		msg := notification.MediaBuyApprovalRequired(plan.buy.MediaBuyID, plan.identity.PrincipalID, step.StepID)
		if err := s.notifier.Notify(ctx, plan.tenant.SlackWebhookURL, msg); err != nil {
			logrus.WithError(err).WithField("media_buy_id", plan.buy.MediaBuyID).Warn("Failed to send approval notification")
			utils.CaptureError(err, logrus.Fields{"media_buy_id": plan.buy.MediaBuyID})
		}
	}

	resp := &models.UpdateMediaBuyResponse{
		Status:           models.UpdateStatusSubmitted,
		MediaBuyID:       plan.buy.MediaBuyID,
		BuyerRef:         plan.buy.BuyerRef,
		AffectedPackages: []models.AffectedPackage{},
		WorkflowStepID:   step.StepID,
		Message:          "Update submitted for manual approval",
		Context:          plan.req.Context,
	}
	s.audit.LogUpdateMediaBuy(ctx, plan.identity, plan.principal.Name, plan.req, resp)
	return resp, nil
}

func (s *MediaBuyUpdateService) apply(ctx context.Context, plan *updatePlan, adapter ad_server.Adapter) (*models.UpdateMediaBuyResponse, error) {
	log := logrus.WithFields(logrus.Fields{
		"tenant_id":    plan.identity.TenantID,
		"media_buy_id": plan.buy.MediaBuyID,
		"adapter":      adapter.Name(),
	})

	step, err := s.workflows.OpenStep(ctx, s.store, plan.identity, StepTypeMediaBuyUpdate, AuditOpUpdateMediaBuy,
		StepOwnerPrincipal, models.StepStatusInProgress, toJSONMap(plan.req), "")
	if err != nil {
		return nil, err
	}

	for _, u := range adapterUpdates(plan) {
		if err := adapter.UpdateMediaBuy(ctx, plan.principal, u); err != nil {
			log.WithError(err).WithField("action", u.Action).Error("Ad server rejected update")
			s.workflows.FinishStep(ctx, step, nil, err)
			resp := errorResponse(plan.req, plan.buy.MediaBuyID, models.ErrCodeAdapterError,
				fmt.Sprintf("Ad server rejected %s: %v", u.Action, err))
			resp.WorkflowStepID = step.StepID
			s.audit.LogUpdateMediaBuy(ctx, plan.identity, plan.principal.Name, plan.req, resp)
			return resp, nil
		}
	}

	var affected []models.AffectedPackage
	err = s.store.InTransaction(ctx, func(uow repository.UnitOfWork) error {
		var err error
		affected, err = s.persist(ctx, uow, plan)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to persist media buy update")
		s.workflows.FinishStep(ctx, step, nil, err)
		utils.CaptureError(err, logrus.Fields{"media_buy_id": plan.buy.MediaBuyID})
		resp := errorResponse(plan.req, plan.buy.MediaBuyID, models.ErrCodeInternalError, "Failed to save media buy update")
		resp.WorkflowStepID = step.StepID
		s.audit.LogUpdateMediaBuy(ctx, plan.identity, plan.principal.Name, plan.req, resp)
		return resp, nil
	}

	resp := &models.UpdateMediaBuyResponse{
		Status:           models.UpdateStatusCompleted,
		MediaBuyID:       plan.buy.MediaBuyID,
		BuyerRef:         plan.buy.BuyerRef,
		AffectedPackages: affected,
		WorkflowStepID:   step.StepID,
		Message:          fmt.Sprintf("Media buy %s updated", plan.buy.MediaBuyID),
		Context:          plan.req.Context,
	}
	s.workflows.FinishStep(ctx, step, toJSONMap(resp), nil)
	s.audit.LogUpdateMediaBuy(ctx, plan.identity, plan.principal.Name, plan.req, resp)
	log.WithField("affected_packages", len(affected)).Info("Media buy updated")
	return resp, nil
}

func adapterUpdates(plan *updatePlan) []*ad_server.Update {
	req := plan.req
	base := ad_server.Update{MediaBuyID: plan.buy.MediaBuyID, BuyerRef: plan.buy.BuyerRef, Currency: plan.currency}

	var updates []*ad_server.Update
	add := func(u ad_server.Update) { updates = append(updates, &u) }

	if req.Paused != nil {
		u := base
		u.Action = ad_server.ActionResumeMediaBuy
		if *req.Paused {
			u.Action = ad_server.ActionPauseMediaBuy
		}
		add(u)
	}
	if req.Budget != nil {
		u := base
		u.Action = ad_server.ActionUpdateMediaBuyBudget
		total := req.Budget.Total
		u.Budget = &total
		add(u)
	}
	if req.StartTime != nil || req.EndTime != nil {
		u := base
		u.Action = ad_server.ActionUpdateMediaBuyDates
		u.StartTime, u.EndTime = req.StartTime, req.EndTime
		add(u)
	}
	for i, pu := range req.Packages {
		pkg := plan.packages[i]
		if pu.Paused != nil {
			u := base
			u.PackageID, u.LineItemID = pkg.PackageID, pkg.LineItemID()
			u.Action = ad_server.ActionResumePackage
			if *pu.Paused {
				u.Action = ad_server.ActionPausePackage
			}
			add(u)
		}
		if pu.Budget != nil {
			u := base
			u.PackageID, u.LineItemID = pkg.PackageID, pkg.LineItemID()
			u.Action = ad_server.ActionUpdatePackageBudget
			u.Budget = pu.Budget
			add(u)
		}
	}
	return updates
}

// persist writes the update and reports the affected packages. A campaign
// budget change marks every package of the buy as affected, in addition to
// the packages the request names.
func (s *MediaBuyUpdateService) persist(ctx context.Context, repos repository.Repositories, plan *updatePlan) ([]models.AffectedPackage, error) {
	req := plan.req
	buy := plan.buy
	affected := []models.AffectedPackage{}

	buyChanged := false
	if req.Paused != nil {
		buy.Status = models.MediaBuyStatusActive
		if *req.Paused {
			buy.Status = models.MediaBuyStatusPaused
		}
		buyChanged = true
	}
	if req.Budget != nil {
		buy.Budget = req.Budget.Total
		buy.Currency = plan.currency
		buyChanged = true
	}
	if req.StartTime != nil {
		buy.StartTime = req.StartTime
		buyChanged = true
	}
	if req.EndTime != nil {
		buy.EndTime = req.EndTime
		buyChanged = true
	}
	if buyChanged {
		if err := repos.MediaBuys().Update(ctx, buy); err != nil {
			return nil, fmt.Errorf("failed to update media buy: %w", err)
		}
	}

	if req.Budget != nil {
		for _, pkg := range plan.allPackages {
			affected = append(affected, models.AffectedPackage{
				PackageID: pkg.PackageID,
				BuyerRef:  buy.BuyerRef,
				ChangesApplied: map[string]interface{}{
					"budget": map[string]interface{}{"updated": req.Budget.Total, "currency": plan.currency},
				},
			})
		}
	}

	for i := range req.Packages {
		changes, err := s.persistPackage(ctx, repos, plan, plan.packages[i], &req.Packages[i])
		if err != nil {
			return nil, err
		}
		affected = append(affected, models.AffectedPackage{
			PackageID:      plan.packages[i].PackageID,
			BuyerRef:       buy.BuyerRef,
			ChangesApplied: changes,
		})
	}
	return affected, nil
}

func (s *MediaBuyUpdateService) persistPackage(ctx context.Context, repos repository.Repositories, plan *updatePlan,
	pkg *models.MediaPackage, pu *models.PackageUpdate) (map[string]interface{}, error) {
	tenantID := plan.identity.TenantID
	changes := map[string]interface{}{}
	if pkg.PackageConfig == nil {
		pkg.PackageConfig = map[string]interface{}{}
	}

	configChanged := false
	if pu.Budget != nil {
		pkg.PackageConfig["budget"] = *pu.Budget
		changes["budget"] = map[string]interface{}{"updated": *pu.Budget, "currency": plan.currency}
		configChanged = true
	}
	if pu.Paused != nil {
		pkg.PackageConfig["paused"] = *pu.Paused
		changes["paused"] = *pu.Paused
		configChanged = true
	}
	if len(pu.TargetingOverlay) > 0 {
		pkg.PackageConfig["targeting_overlay"] = pu.TargetingOverlay
		changes["targeting_overlay"] = true
		configChanged = true
	}
	if configChanged {
		if err := repos.MediaBuys().UpdatePackage(ctx, pkg); err != nil {
			return nil, fmt.Errorf("failed to update package %s: %w", pkg.PackageID, err)
		}
	}

	if pu.CreativeIDs != nil {
		for _, id := range pu.CreativeIDs {
			if err := upsertAssignment(ctx, repos, tenantID, pkg, id, models.DefaultAssignmentWeight, nil); err != nil {
				return nil, err
			}
		}
		if err := repos.Assignments().DeleteByPackageExcept(ctx, tenantID, pkg.MediaBuyID, pkg.PackageID, pu.CreativeIDs); err != nil {
			return nil, fmt.Errorf("failed to prune assignments of package %s: %w", pkg.PackageID, err)
		}
		ids := append([]string(nil), pu.CreativeIDs...)
		sort.Strings(ids)
		changes["creative_ids"] = ids
	}

	for _, ca := range pu.CreativeAssignments {
		weight := models.DefaultAssignmentWeight
		if ca.Weight != nil {
			weight = *ca.Weight
		}
		if err := upsertAssignment(ctx, repos, tenantID, pkg, ca.CreativeID, weight, ca.PlacementIDs); err != nil {
			return nil, err
		}
	}
	if len(pu.CreativeAssignments) > 0 {
		changes["creative_assignments"] = len(pu.CreativeAssignments)
	}
	return changes, nil
}

func upsertAssignment(ctx context.Context, repos repository.Repositories, tenantID string, pkg *models.MediaPackage,
	creativeID string, weight int, placementIDs []string) error {
	existing, err := repos.Assignments().Find(ctx, tenantID, pkg.MediaBuyID, pkg.PackageID, creativeID)
	switch {
	case err == nil:
		existing.Weight = weight
		existing.PlacementIDs = placementIDs
		if err := repos.Assignments().Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}
		return nil
	case errors.Is(err, repository.ErrNotFound):
		if err := repos.Assignments().Create(ctx, &models.CreativeAssignment{
			TenantID:     tenantID,
			MediaBuyID:   pkg.MediaBuyID,
			PackageID:    pkg.PackageID,
			CreativeID:   creativeID,
			Weight:       weight,
			PlacementIDs: placementIDs,
		}); err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("failed to look up assignment: %w", err)
	}
}
