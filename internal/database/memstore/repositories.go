package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

type tenantRepo struct{ v *view }

func (r tenantRepo) GetByID(_ context.Context, tenantID string) (*models.Tenant, error) {
	t, ok := get(r.v, r.v.s.tenants, tenantID, cloneTenant)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

type principalRepo struct{ v *view }

func (r principalRepo) GetByID(_ context.Context, tenantID, principalID string) (*models.Principal, error) {
	p, ok := get(r.v, r.v.s.principals, key(tenantID, principalID), clonePrincipal)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

type creativeRepo struct{ v *view }

func creativeKey(c *models.Creative) string {
	return key(c.TenantID, c.PrincipalID, c.CreativeID)
}

func (r creativeRepo) GetByPrincipal(_ context.Context, tenantID, principalID, creativeID string) (*models.Creative, error) {
	c, ok := get(r.v, r.v.s.creatives, key(tenantID, principalID, creativeID), cloneCreative)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r creativeRepo) ListByCreativeIDs(_ context.Context, tenantID, principalID string, creativeIDs []string) ([]*models.Creative, error) {
	want := make(map[string]bool, len(creativeIDs))
	for _, id := range creativeIDs {
		want[id] = true
	}
	rows := filter(r.v, r.v.s.creatives, func(c models.Creative) bool {
		return c.TenantID == tenantID && c.PrincipalID == principalID && want[c.CreativeID]
	}, cloneCreative)

	out := make([]*models.Creative, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreativeID < out[j].CreativeID })
	return out, nil
}

func (r creativeRepo) Create(_ context.Context, creative *models.Creative) error {
	k := creativeKey(creative)
	if _, exists := get(r.v, r.v.s.creatives, k, cloneCreative); exists {
		return repository.ErrDuplicate
	}
	if creative.ID == "" {
		creative.ID = uuid.NewString()
	}
	if creative.Status == "" {
		creative.Status = models.CreativeStatusPendingReview
	}
	now := time.Now().UTC()
	if creative.CreatedAt.IsZero() {
		creative.CreatedAt = now
	}
	creative.UpdatedAt = now
	put(r.v, r.v.s.creatives, k, *creative, cloneCreative)
	return nil
}

func (r creativeRepo) Update(_ context.Context, creative *models.Creative) error {
	k := creativeKey(creative)
	if _, exists := get(r.v, r.v.s.creatives, k, cloneCreative); !exists {
		return repository.ErrNotFound
	}
	creative.UpdatedAt = time.Now().UTC()
	put(r.v, r.v.s.creatives, k, *creative, cloneCreative)
	return nil
}

func (r creativeRepo) UpdateStatus(ctx context.Context, tenantID, principalID, creativeID, status string) error {
	c, err := r.GetByPrincipal(ctx, tenantID, principalID, creativeID)
	if err != nil {
		return err
	}
	c.Status = status
	return r.Update(ctx, c)
}

type assignmentRepo struct{ v *view }

func (r assignmentRepo) Find(_ context.Context, tenantID, mediaBuyID, packageID, creativeID string) (*models.CreativeAssignment, error) {
	rows := filter(r.v, r.v.s.assignments, func(a models.CreativeAssignment) bool {
		return a.TenantID == tenantID && a.MediaBuyID == mediaBuyID && a.PackageID == packageID && a.CreativeID == creativeID
	}, cloneAssignment)
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[0], nil
}

func (r assignmentRepo) Create(ctx context.Context, a *models.CreativeAssignment) error {
	if _, err := r.Find(ctx, a.TenantID, a.MediaBuyID, a.PackageID, a.CreativeID); err == nil {
		return repository.ErrDuplicate
	}
	if a.AssignmentID == "" {
		a.AssignmentID = utils.NewID("assign")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	put(r.v, r.v.s.assignments, a.AssignmentID, *a, cloneAssignment)
	return nil
}

func (r assignmentRepo) Update(_ context.Context, a *models.CreativeAssignment) error {
	if _, exists := get(r.v, r.v.s.assignments, a.AssignmentID, cloneAssignment); !exists {
		return repository.ErrNotFound
	}
	put(r.v, r.v.s.assignments, a.AssignmentID, *a, cloneAssignment)
	return nil
}

func (r assignmentRepo) ListByMediaBuy(_ context.Context, tenantID, mediaBuyID string) ([]*models.CreativeAssignment, error) {
	rows := filter(r.v, r.v.s.assignments, func(a models.CreativeAssignment) bool {
		return a.TenantID == tenantID && a.MediaBuyID == mediaBuyID
	}, cloneAssignment)

	out := make([]*models.CreativeAssignment, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PackageID != out[j].PackageID {
			return out[i].PackageID < out[j].PackageID
		}
		return out[i].CreativeID < out[j].CreativeID
	})
	return out, nil
}

func (r assignmentRepo) DeleteByPackageExcept(_ context.Context, tenantID, mediaBuyID, packageID string, keep []string) error {
	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}
	rows := filter(r.v, r.v.s.assignments, func(a models.CreativeAssignment) bool {
		return a.TenantID == tenantID && a.MediaBuyID == mediaBuyID && a.PackageID == packageID && !kept[a.CreativeID]
	}, cloneAssignment)
	for _, a := range rows {
		remove(r.v, r.v.s.assignments, a.AssignmentID)
	}
	return nil
}

type mediaBuyRepo struct{ v *view }

func (r mediaBuyRepo) GetByID(_ context.Context, tenantID, mediaBuyID string) (*models.MediaBuy, error) {
	b, ok := get(r.v, r.v.s.mediaBuys, mediaBuyID, cloneMediaBuy)
	if !ok || b.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r mediaBuyRepo) GetByBuyerRef(_ context.Context, tenantID, principalID, buyerRef string) (*models.MediaBuy, error) {
	rows := filter(r.v, r.v.s.mediaBuys, func(b models.MediaBuy) bool {
		return b.TenantID == tenantID && b.PrincipalID == principalID && b.BuyerRef == buyerRef
	}, cloneMediaBuy)
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[0], nil
}

func (r mediaBuyRepo) Update(ctx context.Context, buy *models.MediaBuy) error {
	if _, err := r.GetByID(ctx, buy.TenantID, buy.MediaBuyID); err != nil {
		return err
	}
	buy.UpdatedAt = time.Now().UTC()
	put(r.v, r.v.s.mediaBuys, buy.MediaBuyID, *buy, cloneMediaBuy)
	return nil
}

func (r mediaBuyRepo) UpdateStatus(ctx context.Context, tenantID, mediaBuyID, status string) error {
	b, err := r.GetByID(ctx, tenantID, mediaBuyID)
	if err != nil {
		return err
	}
	b.Status = status
	return r.Update(ctx, b)
}

func (r mediaBuyRepo) FindPackage(ctx context.Context, tenantID, packageID string) (*models.MediaPackage, *models.MediaBuy, error) {
	candidates := filter(r.v, r.v.s.packages, func(p models.MediaPackage) bool {
		return p.PackageID == packageID
	}, clonePackage)
	for i := range candidates {
		buy, err := r.GetByID(ctx, tenantID, candidates[i].MediaBuyID)
		if err != nil {
			continue
		}
		return &candidates[i], buy, nil
	}
	return nil, nil, repository.ErrNotFound
}

func (r mediaBuyRepo) GetPackage(_ context.Context, mediaBuyID, packageID string) (*models.MediaPackage, error) {
	p, ok := get(r.v, r.v.s.packages, key(mediaBuyID, packageID), clonePackage)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r mediaBuyRepo) ListPackages(_ context.Context, mediaBuyID string) ([]*models.MediaPackage, error) {
	rows := filter(r.v, r.v.s.packages, func(p models.MediaPackage) bool {
		return p.MediaBuyID == mediaBuyID
	}, clonePackage)
	out := make([]*models.MediaPackage, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func (r mediaBuyRepo) UpdatePackage(ctx context.Context, pkg *models.MediaPackage) error {
	if _, err := r.GetPackage(ctx, pkg.MediaBuyID, pkg.PackageID); err != nil {
		return err
	}
	pkg.UpdatedAt = time.Now().UTC()
	put(r.v, r.v.s.packages, key(pkg.MediaBuyID, pkg.PackageID), *pkg, clonePackage)
	return nil
}

type productRepo struct{ v *view }

func (r productRepo) GetByID(_ context.Context, tenantID, productID string) (*models.Product, error) {
	p, ok := get(r.v, r.v.s.products, key(tenantID, productID), cloneProduct)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

type currencyLimitRepo struct{ v *view }

func (r currencyLimitRepo) Get(_ context.Context, tenantID, currencyCode string) (*models.CurrencyLimit, error) {
	l, ok := get(r.v, r.v.s.currencyLimits, key(tenantID, currencyCode), cloneCurrencyLimit)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

type workflowRepo struct{ v *view }

func (r workflowRepo) GetOrCreateContext(_ context.Context, tenantID, principalID string) (*models.WorkflowContext, error) {
	rows := filter(r.v, r.v.s.contexts, func(c models.WorkflowContext) bool {
		return c.TenantID == tenantID && c.PrincipalID == principalID
	}, cloneContext)
	if len(rows) > 0 {
		return &rows[0], nil
	}

	now := time.Now().UTC()
	wc := models.WorkflowContext{
		ContextID:   utils.NewID("ctx"),
		TenantID:    tenantID,
		PrincipalID: principalID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	put(r.v, r.v.s.contexts, wc.ContextID, wc, cloneContext)
	return &wc, nil
}

func (r workflowRepo) CreateStep(_ context.Context, step *models.WorkflowStep) error {
	if _, exists := get(r.v, r.v.s.steps, step.StepID, cloneStep); exists {
		return repository.ErrDuplicate
	}
	if step.CreatedAt.IsZero() {
		step.CreatedAt = time.Now().UTC()
	}
	put(r.v, r.v.s.steps, step.StepID, *step, cloneStep)
	return nil
}

func (r workflowRepo) GetStep(_ context.Context, stepID string) (*models.WorkflowStep, error) {
	s, ok := get(r.v, r.v.s.steps, stepID, cloneStep)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r workflowRepo) UpdateStep(_ context.Context, step *models.WorkflowStep) error {
	if _, exists := get(r.v, r.v.s.steps, step.StepID, cloneStep); !exists {
		return repository.ErrNotFound
	}
	put(r.v, r.v.s.steps, step.StepID, *step, cloneStep)
	return nil
}

func (r workflowRepo) ListSteps(_ context.Context, contextID string) ([]*models.WorkflowStep, error) {
	rows := filter(r.v, r.v.s.steps, func(s models.WorkflowStep) bool {
		return s.ContextID == contextID
	}, cloneStep)
	out := make([]*models.WorkflowStep, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r workflowRepo) CreateMapping(_ context.Context, m *models.ObjectWorkflowMapping) error {
	if m.ID == "" {
		m.ID = utils.NewID("owm")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	put(r.v, r.v.s.mappings, m.ID, *m, cloneMapping)
	return nil
}

func (r workflowRepo) ListMappings(_ context.Context, objectType, objectID string) ([]*models.ObjectWorkflowMapping, error) {
	rows := filter(r.v, r.v.s.mappings, func(m models.ObjectWorkflowMapping) bool {
		return m.ObjectType == objectType && m.ObjectID == objectID
	}, cloneMapping)
	out := make([]*models.ObjectWorkflowMapping, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

type auditLogRepo struct{ v *view }

func (r auditLogRepo) Create(_ context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = utils.NewID("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	put(r.v, r.v.s.auditLogs, entry.ID, *entry, cloneAuditLog)
	return nil
}

func (r auditLogRepo) ListByTenant(_ context.Context, tenantID string, offset, limit int) ([]*models.AuditLog, int64, error) {
	rows := filter(r.v, r.v.s.auditLogs, func(l models.AuditLog) bool {
		return l.TenantID == tenantID
	}, cloneAuditLog)
	// IDs are time-ordered, so key order is creation order
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })

	total := int64(len(rows))
	if offset > len(rows) {
		offset = len(rows)
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := rows[offset:end]

	out := make([]*models.AuditLog, len(page))
	for i := range page {
		out[i] = &page[i]
	}
	return out, total, nil
}

type syncJobRepo struct{ v *view }

func (r syncJobRepo) Create(_ context.Context, job *models.SyncJob) error {
	if _, exists := get(r.v, r.v.s.syncJobs, job.SyncID, cloneSyncJob); exists {
		return repository.ErrDuplicate
	}
	put(r.v, r.v.s.syncJobs, job.SyncID, *job, cloneSyncJob)
	return nil
}

func (r syncJobRepo) Update(_ context.Context, job *models.SyncJob) error {
	if _, exists := get(r.v, r.v.s.syncJobs, job.SyncID, cloneSyncJob); !exists {
		return repository.ErrNotFound
	}
	put(r.v, r.v.s.syncJobs, job.SyncID, *job, cloneSyncJob)
	return nil
}

func (r syncJobRepo) GetByID(_ context.Context, tenantID, syncID string) (*models.SyncJob, error) {
	j, ok := get(r.v, r.v.s.syncJobs, syncID, cloneSyncJob)
	if !ok || j.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &j, nil
}

type reviewTaskRepo struct{ v *view }

func (r reviewTaskRepo) Create(_ context.Context, task *models.ReviewTask) error {
	if _, exists := get(r.v, r.v.s.reviewTasks, task.TaskID, cloneReviewTask); exists {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	put(r.v, r.v.s.reviewTasks, task.TaskID, *task, cloneReviewTask)
	return nil
}

func (r reviewTaskRepo) Update(_ context.Context, task *models.ReviewTask) error {
	if _, exists := get(r.v, r.v.s.reviewTasks, task.TaskID, cloneReviewTask); !exists {
		return repository.ErrNotFound
	}
	task.UpdatedAt = time.Now().UTC()
	put(r.v, r.v.s.reviewTasks, task.TaskID, *task, cloneReviewTask)
	return nil
}

func (r reviewTaskRepo) GetByID(_ context.Context, taskID string) (*models.ReviewTask, error) {
	t, ok := get(r.v, r.v.s.reviewTasks, taskID, cloneReviewTask)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}
