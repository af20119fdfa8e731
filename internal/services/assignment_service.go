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
)

// AssignmentService links synced creatives to media buy packages
type AssignmentService struct {
	store repository.Store
}

func NewAssignmentService(store repository.Store) *AssignmentService {
	return &AssignmentService{store: store}
}

// AssignmentOutcome is the result of one assignment pass
type AssignmentOutcome struct {
	// Assignments holds every row created or updated
	Assignments []*models.CreativeAssignment
	assignedTo  map[string][]string
	errors      map[string]map[string]string
}

func newAssignmentOutcome() *AssignmentOutcome {
	return &AssignmentOutcome{
		assignedTo: make(map[string][]string),
		errors:     make(map[string]map[string]string),
	}
}

func (o *AssignmentOutcome) fail(creativeID, packageID, msg string) {
	if o.errors[creativeID] == nil {
		o.errors[creativeID] = make(map[string]string)
	}
	o.errors[creativeID][packageID] = msg
}

// Splice copies assignment outcomes into the matching sync results.
// Results of creatives without assignment activity are left untouched.
func (o *AssignmentOutcome) Splice(results []models.SyncCreativeResult) {
	for i := range results {
		id := results[i].CreativeID
		if pkgs, ok := o.assignedTo[id]; ok {
			results[i].AssignedTo = append([]string(nil), pkgs...)
		}
		if errs, ok := o.errors[id]; ok {
			results[i].AssignmentErrors = errs
		}
	}
}

// Assign validates and upserts assignments in their own transaction, then
// splices the outcome into results
func (s *AssignmentService) Assign(ctx context.Context, tenantID, principalID string, assignments map[string][]string,
	strict bool, results []models.SyncCreativeResult) (*AssignmentOutcome, error) {
	var outcome *AssignmentOutcome
	err := s.store.InTransaction(ctx, func(uow repository.UnitOfWork) error {
		var err error
		outcome, err = s.Resolve(ctx, uow, tenantID, principalID, assignments, strict)
		return err
	})
	if err != nil {
		return nil, err
	}
	outcome.Splice(results)
	return outcome, nil
}

// Resolve processes every (creative, package) pair against repos. Creative
// IDs are visited in sorted order and packages in request order. In strict
// mode the first failing pair aborts with an *AssignmentError; in lenient
// mode failures are recorded and the pass continues.
func (s *AssignmentService) Resolve(ctx context.Context, repos repository.Repositories, tenantID, principalID string,
	assignments map[string][]string, strict bool) (*AssignmentOutcome, error) {
	outcome := newAssignmentOutcome()

	creativeIDs := make([]string, 0, len(assignments))
	for id := range assignments {
		creativeIDs = append(creativeIDs, id)
	}
	sort.Strings(creativeIDs)

	var touched []*models.MediaBuy
	seen := map[string]bool{}

	for _, creativeID := range creativeIDs {
		for _, packageID := range assignments[creativeID] {
			buy, msg, err := s.assignOne(ctx, repos, tenantID, principalID, creativeID, packageID, outcome)
			if err != nil {
				return nil, err
			}
			if msg != "" {
				if strict {
					return nil, &AssignmentError{CreativeID: creativeID, PackageID: packageID, Message: msg}
				}
				logrus.WithFields(logrus.Fields{
					"tenant_id":   tenantID,
					"creative_id": creativeID,
					"package_id":  packageID,
				}).Warn("Skipping creative assignment: " + msg)
				outcome.fail(creativeID, packageID, msg)
				continue
			}
			if !seen[buy.MediaBuyID] {
				seen[buy.MediaBuyID] = true
				touched = append(touched, buy)
			}
		}
	}

	for _, buy := range touched {
		if buy.Status != models.MediaBuyStatusDraft || buy.ApprovedAt == nil {
			continue
		}
		if err := repos.MediaBuys().UpdateStatus(ctx, tenantID, buy.MediaBuyID, models.MediaBuyStatusPendingCreatives); err != nil {
			return nil, fmt.Errorf("failed to move media buy %s to pending_creatives: %w", buy.MediaBuyID, err)
		}
		logrus.WithFields(logrus.Fields{
			"tenant_id":    tenantID,
			"media_buy_id": buy.MediaBuyID,
		}).Info("Media buy moved from draft to pending_creatives")
	}

	return outcome, nil
}

// assignOne returns a caller-facing message for rejected pairs and an error
// only for storage failures
func (s *AssignmentService) assignOne(ctx context.Context, repos repository.Repositories, tenantID, principalID,
	creativeID, packageID string, outcome *AssignmentOutcome) (*models.MediaBuy, string, error) {
	pkg, buy, err := repos.MediaBuys().FindPackage(ctx, tenantID, packageID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Sprintf("Package not found: %s", packageID), nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load package %s: %w", packageID, err)
	}

	creative, err := repos.Creatives().GetByPrincipal(ctx, tenantID, principalID, creativeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Sprintf("Creative not found: %s", creativeID), nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load creative %s: %w", creativeID, err)
	}

	if msg, err := checkFormatSupported(ctx, repos, tenantID, pkg, creative); err != nil || msg != "" {
		return nil, msg, err
	}

	existing, err := repos.Assignments().Find(ctx, tenantID, buy.MediaBuyID, packageID, creativeID)
	switch {
	case err == nil:
		if existing.Weight != models.DefaultAssignmentWeight {
			existing.Weight = models.DefaultAssignmentWeight
			if err := repos.Assignments().Update(ctx, existing); err != nil {
				return nil, "", fmt.Errorf("failed to update assignment: %w", err)
			}
		}
		outcome.Assignments = append(outcome.Assignments, existing)
	case errors.Is(err, repository.ErrNotFound):
		a := &models.CreativeAssignment{
			TenantID:   tenantID,
			MediaBuyID: buy.MediaBuyID,
			PackageID:  packageID,
			CreativeID: creativeID,
			Weight:     models.DefaultAssignmentWeight,
		}
		if err := repos.Assignments().Create(ctx, a); err != nil {
			return nil, "", fmt.Errorf("failed to create assignment: %w", err)
		}
		outcome.Assignments = append(outcome.Assignments, a)
	default:
		return nil, "", fmt.Errorf("failed to look up assignment: %w", err)
	}

	outcome.assignedTo[creativeID] = append(outcome.assignedTo[creativeID], packageID)
	return buy, "", nil
}

// checkFormatSupported rejects a creative whose format is not among the
// formats the package's product declares. An empty declaration allows all.
func checkFormatSupported(ctx context.Context, repos repository.Repositories, tenantID string,
	pkg *models.MediaPackage, creative *models.Creative) (string, error) {
	productID := pkg.ProductID()
	if productID == "" {
		return "", nil
	}
	product, err := repos.Products().GetByID(ctx, tenantID, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load product %s: %w", productID, err)
	}
	if len(product.FormatIDs) == 0 {
		return "", nil
	}

	agent := models.NormalizeAgentURLForMatch(creative.AgentURL)
	supported := make([]string, 0, len(product.FormatIDs))
	for _, ref := range product.FormatIDs {
		if models.NormalizeAgentURLForMatch(ref.AgentURL) == agent && ref.ID == creative.Format {
			return "", nil
		}
		supported = append(supported, fmt.Sprintf("%s (%s)", ref.ID, ref.AgentURL))
	}

	return fmt.Sprintf("Creative format %s (%s) is not supported by product %s. Supported formats: %s",
		creative.Format, creative.AgentURL, productID, strings.Join(supported, ", ")), nil
}
