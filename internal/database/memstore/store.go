// Package memstore is an in-memory repository.Store. It backs DB_DRIVER=memory
// and the service tests.
//
// Transactions are serialized. Every write made through a unit of work is
// journaled with an undo entry, so rolling back a savepoint or the outer
// transaction restores exactly the rows that unit touched.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	writes atomic.Int64

	tenants        map[string]models.Tenant
	principals     map[string]models.Principal
	creatives      map[string]models.Creative
	assignments    map[string]models.CreativeAssignment
	mediaBuys      map[string]models.MediaBuy
	packages       map[string]models.MediaPackage
	products       map[string]models.Product
	currencyLimits map[string]models.CurrencyLimit
	contexts       map[string]models.WorkflowContext
	steps          map[string]models.WorkflowStep
	mappings       map[string]models.ObjectWorkflowMapping
	auditLogs      map[string]models.AuditLog
	syncJobs       map[string]models.SyncJob
	reviewTasks    map[string]models.ReviewTask

	root *view
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	s := &Store{
		tenants:        make(map[string]models.Tenant),
		principals:     make(map[string]models.Principal),
		creatives:      make(map[string]models.Creative),
		assignments:    make(map[string]models.CreativeAssignment),
		mediaBuys:      make(map[string]models.MediaBuy),
		packages:       make(map[string]models.MediaPackage),
		products:       make(map[string]models.Product),
		currencyLimits: make(map[string]models.CurrencyLimit),
		contexts:       make(map[string]models.WorkflowContext),
		steps:          make(map[string]models.WorkflowStep),
		mappings:       make(map[string]models.ObjectWorkflowMapping),
		auditLogs:      make(map[string]models.AuditLog),
		syncJobs:       make(map[string]models.SyncJob),
		reviewTasks:    make(map[string]models.ReviewTask),
	}
	s.root = &view{s: s}
	return s
}

// Writes returns how many row mutations the store has performed, including
// ones later rolled back
func (s *Store) Writes() int64 {
	return s.writes.Load()
}

func (s *Store) Tenants() repository.TenantStore               { return s.root.Tenants() }
func (s *Store) Principals() repository.PrincipalStore         { return s.root.Principals() }
func (s *Store) Creatives() repository.CreativeStore           { return s.root.Creatives() }
func (s *Store) Assignments() repository.AssignmentStore       { return s.root.Assignments() }
func (s *Store) MediaBuys() repository.MediaBuyStore           { return s.root.MediaBuys() }
func (s *Store) Products() repository.ProductStore             { return s.root.Products() }
func (s *Store) CurrencyLimits() repository.CurrencyLimitStore { return s.root.CurrencyLimits() }
func (s *Store) Workflows() repository.WorkflowStore           { return s.root.Workflows() }
func (s *Store) AuditLogs() repository.AuditLogStore           { return s.root.AuditLogs() }
func (s *Store) SyncJobs() repository.SyncJobStore             { return s.root.SyncJobs() }
func (s *Store) ReviewTasks() repository.ReviewTaskStore       { return s.root.ReviewTasks() }

// InTransaction runs fn as one unit of work, undoing all of its writes when
// fn fails
func (s *Store) InTransaction(ctx context.Context, fn func(repository.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	uow := &unitOfWork{view: &view{s: s, journal: &journal{}}}
	if err := fn(uow); err != nil {
		uow.journal.rollbackTo(s, 0)
		return err
	}
	return nil
}

type unitOfWork struct {
	*view
}

// WithItemIsolation undoes only the writes fn made when fn fails
func (u *unitOfWork) WithItemIsolation(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mark := u.journal.len()
	if err := fn(u.view); err != nil {
		u.journal.rollbackTo(u.s, mark)
		return err
	}
	return nil
}

type journal struct {
	undo []func()
}

func (j *journal) len() int {
	return len(j.undo)
}

func (j *journal) record(fn func()) {
	j.undo = append(j.undo, fn)
}

func (j *journal) rollbackTo(s *Store, mark int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(j.undo) - 1; i >= mark; i-- {
		j.undo[i]()
	}
	j.undo = j.undo[:mark]
}

// view binds the tables to either the root store or an open unit of work
type view struct {
	s       *Store
	journal *journal
}

func (v *view) Tenants() repository.TenantStore               { return tenantRepo{v} }
func (v *view) Principals() repository.PrincipalStore         { return principalRepo{v} }
func (v *view) Creatives() repository.CreativeStore           { return creativeRepo{v} }
func (v *view) Assignments() repository.AssignmentStore       { return assignmentRepo{v} }
func (v *view) MediaBuys() repository.MediaBuyStore           { return mediaBuyRepo{v} }
func (v *view) Products() repository.ProductStore             { return productRepo{v} }
func (v *view) CurrencyLimits() repository.CurrencyLimitStore { return currencyLimitRepo{v} }
func (v *view) Workflows() repository.WorkflowStore           { return workflowRepo{v} }
func (v *view) AuditLogs() repository.AuditLogStore           { return auditLogRepo{v} }
func (v *view) SyncJobs() repository.SyncJobStore             { return syncJobRepo{v} }
func (v *view) ReviewTasks() repository.ReviewTaskStore       { return reviewTaskRepo{v} }

func put[T any](v *view, rows map[string]T, key string, row T, clone func(T) T) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	prev, existed := rows[key]
	rows[key] = clone(row)
	v.s.writes.Add(1)
	if v.journal != nil {
		v.journal.record(func() {
			if existed {
				rows[key] = prev
			} else {
				delete(rows, key)
			}
		})
	}
}

func remove[T any](v *view, rows map[string]T, key string) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	prev, existed := rows[key]
	if !existed {
		return
	}
	delete(rows, key)
	v.s.writes.Add(1)
	if v.journal != nil {
		v.journal.record(func() { rows[key] = prev })
	}
}

func get[T any](v *view, rows map[string]T, key string, clone func(T) T) (T, bool) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	row, ok := rows[key]
	if !ok {
		var zero T
		return zero, false
	}
	return clone(row), true
}

// filter returns clones of the rows matching keep, ordered by key
func filter[T any](v *view, rows map[string]T, keep func(T) bool, clone func(T) T) []T {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0)
	for _, k := range keys {
		if keep(rows[k]) {
			out = append(out, clone(rows[k]))
		}
	}
	return out
}

func key(parts ...string) string {
	return strings.Join(parts, "\x00")
}
