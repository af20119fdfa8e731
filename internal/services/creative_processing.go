package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/approval"
	"github.com/numaras/salesagent-sub000/internal/services/creative_agent"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

// Keys of the creative data blob written by creative agents rather than the
// buyer. They are ignored when deciding whether a resync changed anything.
const (
	dataKeyPreview         = "preview"
	dataKeyGenerativeBuild = "generative_build"
	dataKeyFilledFromAgent = "filled_from_agent"
)

// errNoRenderableOutput is the hard failure when an agent returns nothing
// and the buyer supplied no media URL
var errNoRenderableOutput = errors.New("creative agent returned no previews and no media_url was provided")

// CreativeProcessor runs one creative of a sync batch through format
// validation, the creative agent and persistence
type CreativeProcessor struct {
	validator    *creative_agent.Validator
	agent        creative_agent.AgentClient
	geminiAPIKey string
}

func NewCreativeProcessor(validator *creative_agent.Validator, geminiAPIKey string) *CreativeProcessor {
	return &CreativeProcessor{
		validator:    validator,
		agent:        validator.Registry().Client(),
		geminiAPIKey: geminiAPIKey,
	}
}

// creativeOutcome is what processing one item produced
type creativeOutcome struct {
	result   models.SyncCreativeResult
	creative *models.Creative
	// transition is nil when approval was not re-evaluated
	transition *approval.Transition
}

func (o *creativeOutcome) needsApproval() bool {
	return o.creative != nil && o.transition != nil && o.transition.NeedsApproval
}

func (o *creativeOutcome) submitsReview() bool {
	return o.creative != nil && o.transition != nil && o.transition.SubmitReview
}

func failedOutcome(creativeID string, errs ...string) *creativeOutcome {
	return &creativeOutcome{result: models.SyncCreativeResult{
		CreativeID: creativeID,
		Action:     models.SyncActionFailed,
		Errors:     errs,
	}}
}

// Process creates or updates one creative inside the caller's savepoint.
// The returned error is only set for failures the savepoint must roll back;
// the outcome always describes the item.
func (p *CreativeProcessor) Process(ctx context.Context, repos repository.Repositories, tenantID, principalID string,
	asset *models.CreativeAsset, mode approval.Mode, catalog *creative_agent.Catalog) (*creativeOutcome, error) {
	var existing *models.Creative
	if asset.CreativeID != "" {
		c, err := repos.Creatives().GetByPrincipal(ctx, tenantID, principalID, asset.CreativeID)
		switch {
		case err == nil:
			existing = c
		case errors.Is(err, repository.ErrNotFound):
		default:
			return failedOutcome(asset.CreativeID, fmt.Sprintf("Failed to load creative: %v", err)), err
		}
	}

	if existing == nil {
		return p.create(ctx, repos, tenantID, principalID, asset, mode, catalog)
	}
	return p.update(ctx, repos, existing, asset, mode, catalog)
}

func (p *CreativeProcessor) resolveFormat(catalog *creative_agent.Catalog, fid models.FormatID) (*models.Format, string) {
	format, err := catalog.Resolve(fid)
	if err == nil {
		return format, ""
	}
	if creative_agent.IsRetryable(err) {
		return nil, retryMessage(err)
	}
	return nil, fmt.Sprintf("Format validation failed: %v", err)
}

func retryMessage(err error) string {
	return fmt.Sprintf("Creative agent unreachable or validation error: %v. Retry recommended.", err)
}

func (p *CreativeProcessor) create(ctx context.Context, repos repository.Repositories, tenantID, principalID string,
	asset *models.CreativeAsset, mode approval.Mode, catalog *creative_agent.Catalog) (*creativeOutcome, error) {
	if asset.FormatID == nil || strings.TrimSpace(asset.FormatID.ID) == "" {
		return failedOutcome(asset.CreativeID, "Creative format_id is required"), nil
	}
	if strings.TrimSpace(asset.Name) == "" {
		return failedOutcome(asset.CreativeID, "Creative name is required"), nil
	}

	fid := p.validator.Qualify(*asset.FormatID)
	format, msg := p.resolveFormat(catalog, fid)
	if msg != "" {
		return failedOutcome(asset.CreativeID, msg), nil
	}

	data, err := p.renderData(ctx, asset, fid, format)
	if err != nil {
		return p.agentFailure(asset.CreativeID, err), nil
	}

	creativeID := asset.CreativeID
	if creativeID == "" {
		creativeID = utils.NewID("creative")
	}
	transition := mode.Transition()
	creative := &models.Creative{
		TenantID:         tenantID,
		PrincipalID:      principalID,
		CreativeID:       creativeID,
		Name:             asset.Name,
		AgentURL:         fid.AgentURL,
		Format:           fid.ID,
		FormatParameters: fid.Parameters(),
		Status:           transition.Status,
		Data:             data,
	}
	if err := repos.Creatives().Create(ctx, creative); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return failedOutcome(creativeID, "Creative was created concurrently by another sync. Retry recommended."), err
		}
		return failedOutcome(creativeID, fmt.Sprintf("Failed to save creative: %v", err)), err
	}

	return &creativeOutcome{
		result: models.SyncCreativeResult{
			CreativeID: creativeID,
			Action:     models.SyncActionCreated,
			Status:     creative.Status,
		},
		creative:   creative,
		transition: &transition,
	}, nil
}

func (p *CreativeProcessor) update(ctx context.Context, repos repository.Repositories, existing *models.Creative,
	asset *models.CreativeAsset, mode approval.Mode, catalog *creative_agent.Catalog) (*creativeOutcome, error) {
	fid := existing.FormatID()
	formatProvided := asset.FormatID != nil && strings.TrimSpace(asset.FormatID.ID) != ""
	if formatProvided {
		fid = p.validator.Qualify(*asset.FormatID)
	}

	format, msg := p.resolveFormat(catalog, fid)
	if msg != "" {
		return failedOutcome(existing.CreativeID, msg), nil
	}

	var changes []string
	name := existing.Name
	if asset.Name != "" && asset.Name != existing.Name {
		name = asset.Name
		changes = append(changes, "name")
	}
	if formatProvided && !jsonEqual(fid, existing.FormatID()) {
		changes = append(changes, "format")
	}
	buyerData := buildCreativeData(asset)
	changes = append(changes, changedDataKeys(buyerOwnedData(existing.Data), buyerData)...)

	if len(changes) == 0 {
		return &creativeOutcome{
			result: models.SyncCreativeResult{
				CreativeID: existing.CreativeID,
				Action:     models.SyncActionUnchanged,
				Status:     existing.Status,
			},
			creative: existing,
		}, nil
	}

	data, err := p.renderData(ctx, asset, fid, format)
	if err != nil {
		return p.agentFailure(existing.CreativeID, err), nil
	}

	existing.Name = name
	existing.AgentURL = fid.AgentURL
	existing.Format = fid.ID
	existing.FormatParameters = fid.Parameters()
	existing.Data = data

	var transition *approval.Transition
	if formatProvided {
		t := mode.Transition()
		transition = &t
		existing.Status = t.Status
	}

	if err := repos.Creatives().Update(ctx, existing); err != nil {
		return failedOutcome(existing.CreativeID, fmt.Sprintf("Failed to save creative: %v", err)), err
	}

	return &creativeOutcome{
		result: models.SyncCreativeResult{
			CreativeID: existing.CreativeID,
			Action:     models.SyncActionUpdated,
			Status:     existing.Status,
			Changes:    changes,
		},
		creative:   existing,
		transition: transition,
	}, nil
}

func (p *CreativeProcessor) agentFailure(creativeID string, err error) *creativeOutcome {
	logrus.WithError(err).WithField("creative_id", creativeID).Warn("Creative agent call failed")
	if errors.Is(err, errNoRenderableOutput) || errors.Is(err, errGenerativeKeyMissing) {
		return failedOutcome(creativeID, err.Error())
	}
	return failedOutcome(creativeID, retryMessage(err))
}

// buildCreativeData collects the buyer-supplied fields of a creative
func buildCreativeData(asset *models.CreativeAsset) map[string]interface{} {
	data := map[string]interface{}{}
	if asset.URL != "" {
		data["url"] = asset.URL
	}
	if asset.ClickURL != "" {
		data["click_url"] = asset.ClickURL
	}
	if asset.Width != nil {
		data["width"] = *asset.Width
	}
	if asset.Height != nil {
		data["height"] = *asset.Height
	}
	if asset.Duration != nil {
		data["duration"] = *asset.Duration
	}
	if asset.Snippet != "" {
		data["snippet"] = asset.Snippet
	}
	if asset.SnippetType != "" {
		data["snippet_type"] = asset.SnippetType
	}
	if len(asset.Assets) > 0 {
		data["assets"] = asset.Assets
	}
	if len(asset.Inputs) > 0 {
		data["inputs"] = asset.Inputs
	}
	if len(asset.PromotedOfferings) > 0 {
		data["promoted_offerings"] = asset.PromotedOfferings
	}
	return toJSONMap(data)
}

// buyerOwnedData strips agent-written keys from a stored data blob
func buyerOwnedData(stored map[string]interface{}) map[string]interface{} {
	skip := map[string]bool{
		dataKeyPreview:         true,
		dataKeyGenerativeBuild: true,
		dataKeyFilledFromAgent: true,
	}
	if filled, ok := stored[dataKeyFilledFromAgent].([]interface{}); ok {
		for _, k := range filled {
			if s, ok := k.(string); ok {
				skip[s] = true
			}
		}
	}

	out := make(map[string]interface{}, len(stored))
	for k, v := range stored {
		if !skip[k] {
			out[k] = v
		}
	}
	return out
}

// changedDataKeys lists the keys whose values differ between two blobs
func changedDataKeys(before, after map[string]interface{}) []string {
	keys := map[string]bool{}
	for k := range before {
		keys[k] = true
	}
	for k := range after {
		keys[k] = true
	}

	var changed []string
	for k := range keys {
		b, inBefore := before[k]
		a, inAfter := after[k]
		if inBefore != inAfter || !jsonEqual(b, a) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}
