package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/numaras/salesagent-sub000/internal/models"
)

var (
	// ErrNotFound is returned when a scoped lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert hits a unique constraint
	ErrDuplicate = errors.New("duplicate record")
)

type TenantStore interface {
	GetByID(ctx context.Context, tenantID string) (*models.Tenant, error)
}

type PrincipalStore interface {
	GetByID(ctx context.Context, tenantID, principalID string) (*models.Principal, error)
}

// CreativeStore persists creatives. Every lookup is scoped by tenant and,
// where a principal acts on its own rows, by principal.
type CreativeStore interface {
	GetByPrincipal(ctx context.Context, tenantID, principalID, creativeID string) (*models.Creative, error)
	ListByCreativeIDs(ctx context.Context, tenantID, principalID string, creativeIDs []string) ([]*models.Creative, error)
	Create(ctx context.Context, creative *models.Creative) error
	Update(ctx context.Context, creative *models.Creative) error
	UpdateStatus(ctx context.Context, tenantID, principalID, creativeID, status string) error
}

type AssignmentStore interface {
	Find(ctx context.Context, tenantID, mediaBuyID, packageID, creativeID string) (*models.CreativeAssignment, error)
	Create(ctx context.Context, assignment *models.CreativeAssignment) error
	Update(ctx context.Context, assignment *models.CreativeAssignment) error
	ListByMediaBuy(ctx context.Context, tenantID, mediaBuyID string) ([]*models.CreativeAssignment, error)
	DeleteByPackageExcept(ctx context.Context, tenantID, mediaBuyID, packageID string, keep []string) error
}

type MediaBuyStore interface {
	GetByID(ctx context.Context, tenantID, mediaBuyID string) (*models.MediaBuy, error)
	GetByBuyerRef(ctx context.Context, tenantID, principalID, buyerRef string) (*models.MediaBuy, error)
	Update(ctx context.Context, buy *models.MediaBuy) error
	UpdateStatus(ctx context.Context, tenantID, mediaBuyID, status string) error
	// FindPackage resolves a package by ID through its owning media buy so
	// packages of other tenants are never visible.
	FindPackage(ctx context.Context, tenantID, packageID string) (*models.MediaPackage, *models.MediaBuy, error)
	GetPackage(ctx context.Context, mediaBuyID, packageID string) (*models.MediaPackage, error)
	ListPackages(ctx context.Context, mediaBuyID string) ([]*models.MediaPackage, error)
	UpdatePackage(ctx context.Context, pkg *models.MediaPackage) error
}

type ProductStore interface {
	GetByID(ctx context.Context, tenantID, productID string) (*models.Product, error)
}

type CurrencyLimitStore interface {
	Get(ctx context.Context, tenantID, currencyCode string) (*models.CurrencyLimit, error)
}

type WorkflowStore interface {
	GetOrCreateContext(ctx context.Context, tenantID, principalID string) (*models.WorkflowContext, error)
	CreateStep(ctx context.Context, step *models.WorkflowStep) error
	GetStep(ctx context.Context, stepID string) (*models.WorkflowStep, error)
	UpdateStep(ctx context.Context, step *models.WorkflowStep) error
	ListSteps(ctx context.Context, contextID string) ([]*models.WorkflowStep, error)
	CreateMapping(ctx context.Context, mapping *models.ObjectWorkflowMapping) error
	ListMappings(ctx context.Context, objectType, objectID string) ([]*models.ObjectWorkflowMapping, error)
}

type AuditLogStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByTenant(ctx context.Context, tenantID string, offset, limit int) ([]*models.AuditLog, int64, error)
}

type SyncJobStore interface {
	Create(ctx context.Context, job *models.SyncJob) error
	Update(ctx context.Context, job *models.SyncJob) error
	GetByID(ctx context.Context, tenantID, syncID string) (*models.SyncJob, error)
}

type ReviewTaskStore interface {
	Create(ctx context.Context, task *models.ReviewTask) error
	Update(ctx context.Context, task *models.ReviewTask) error
	GetByID(ctx context.Context, taskID string) (*models.ReviewTask, error)
}

// Repositories groups the per-table stores bound to one connection or
// transaction.
type Repositories interface {
	Tenants() TenantStore
	Principals() PrincipalStore
	Creatives() CreativeStore
	Assignments() AssignmentStore
	MediaBuys() MediaBuyStore
	Products() ProductStore
	CurrencyLimits() CurrencyLimitStore
	Workflows() WorkflowStore
	AuditLogs() AuditLogStore
	SyncJobs() SyncJobStore
	ReviewTasks() ReviewTaskStore
}

// UnitOfWork is an open outer transaction. WithItemIsolation runs fn inside
// a savepoint: an error from fn rolls back only fn's writes and the outer
// transaction stays usable.
type UnitOfWork interface {
	Repositories
	WithItemIsolation(ctx context.Context, fn func(Repositories) error) error
}

// Store is the root persistence handle. InTransaction commits when fn
// returns nil and rolls everything back otherwise.
type Store interface {
	Repositories
	InTransaction(ctx context.Context, fn func(UnitOfWork) error) error
}

// GormStore implements Store on top of gorm
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Tenants() TenantStore               { return NewTenantRepository(s.db) }
func (s *GormStore) Principals() PrincipalStore         { return NewPrincipalRepository(s.db) }
func (s *GormStore) Creatives() CreativeStore           { return NewCreativeRepository(s.db) }
func (s *GormStore) Assignments() AssignmentStore       { return NewAssignmentRepository(s.db) }
func (s *GormStore) MediaBuys() MediaBuyStore           { return NewMediaBuyRepository(s.db) }
func (s *GormStore) Products() ProductStore             { return NewProductRepository(s.db) }
func (s *GormStore) CurrencyLimits() CurrencyLimitStore { return NewCurrencyLimitRepository(s.db) }
func (s *GormStore) Workflows() WorkflowStore           { return NewWorkflowRepository(s.db) }
func (s *GormStore) AuditLogs() AuditLogStore           { return NewAuditLogRepository(s.db) }
func (s *GormStore) SyncJobs() SyncJobStore             { return NewSyncJobRepository(s.db) }
func (s *GormStore) ReviewTasks() ReviewTaskStore       { return NewReviewTaskRepository(s.db) }

// InTransaction opens the outer transaction for a batch
func (s *GormStore) InTransaction(ctx context.Context, fn func(UnitOfWork) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormUnitOfWork{GormStore{db: tx}})
	})
}

type gormUnitOfWork struct {
	GormStore
}

// WithItemIsolation uses gorm's nested transaction, which is a SAVEPOINT /
// ROLLBACK TO SAVEPOINT pair on the outer transaction.
func (u *gormUnitOfWork) WithItemIsolation(ctx context.Context, fn func(Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
