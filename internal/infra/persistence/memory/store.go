// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"spacecore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the
// domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type memoryState struct {
	spaces map[string]domain.SpaceDocument
	audit  map[string]domain.AuditEntry
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Spaces map[string]domain.SpaceDocument `json:"spaces"`
	Audit  map[string]domain.AuditEntry    `json:"audit"`
}

func newMemoryState() memoryState {
	return memoryState{
		spaces: make(map[string]domain.SpaceDocument),
		audit:  make(map[string]domain.AuditEntry),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.spaces {
		cloned.spaces[k] = domain.CloneSpaceDocument(v)
	}
	for k, v := range s.audit {
		cloned.audit[k] = cloneAuditEntry(v)
	}
	return cloned
}

func cloneAuditEntry(e domain.AuditEntry) domain.AuditEntry {
	cp := e
	cp.Fields = append([]string(nil), e.Fields...)
	return cp
}

// Store provides an in-memory transactional document store for spaces.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// RulesEngine returns the engine evaluated at commit time.
func (s *Store) RulesEngine() *domain.RulesEngine { return s.engine }

// NowFunc returns the store clock.
func (s *Store) NowFunc() func() time.Time { return s.nowFn }

// SetNowFunc overrides the store clock, for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// transaction is a mutation set applied to a cloned copy of the state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []domain.Change
	events  []domain.Event
	now     time.Time
}

var _ domain.Transaction = (*transaction)(nil)

type transactionView struct {
	state *memoryState
}

var _ domain.TransactionView = transactionView{}

// ListSpaces returns all space documents in the snapshot.
func (v transactionView) ListSpaces() []domain.SpaceDocument {
	out := make([]domain.SpaceDocument, 0, len(v.state.spaces))
	for _, doc := range v.state.spaces {
		out = append(out, domain.CloneSpaceDocument(doc))
	}
	return out
}

// FindSpace retrieves a space document by id from the snapshot.
func (v transactionView) FindSpace(id string) (domain.SpaceDocument, bool) {
	doc, ok := v.state.spaces[id]
	if !ok {
		return domain.SpaceDocument{}, false
	}
	return domain.CloneSpaceDocument(doc), true
}

// ListAuditEntries returns audit records for a space, or all when empty.
func (v transactionView) ListAuditEntries(spaceID string) []domain.AuditEntry {
	var out []domain.AuditEntry
	for _, e := range v.state.audit {
		if spaceID == "" || e.SpaceID == spaceID {
			out = append(out, cloneAuditEntry(e))
		}
	}
	return out
}

// RunInTransaction executes fn within a transactional copy of the store
// state. Rules are evaluated against the pending state before commit;
// blocking violations abort. Events drained from mutated aggregates are
// returned in the result only on commit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		view := transactionView{state: &tx.state}
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	result.Events = append(result.Events, tx.events...)
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(transactionView{state: &snapshot})
}

// Snapshot exposes the read-only view of the pending transaction state.
func (tx *transaction) Snapshot() domain.TransactionView {
	return transactionView{state: &tx.state}
}

func (tx *transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// CreateSpace stores a new space document within the transaction.
func (tx *transaction) CreateSpace(doc domain.SpaceDocument) (domain.SpaceDocument, error) {
	if doc.SpaceID == "" {
		return domain.SpaceDocument{}, domain.NewStoreError(domain.CodeInvalidArgument, fmt.Errorf("space id required"))
	}
	if _, exists := tx.state.spaces[doc.SpaceID]; exists {
		return domain.SpaceDocument{}, domain.NewStoreError(domain.CodeAlreadyExists, fmt.Errorf("space %q already exists", doc.SpaceID))
	}
	doc.CreatedAt = tx.now
	doc.UpdatedAt = tx.now
	doc.Version = 1
	stored := domain.CloneSpaceDocument(doc)
	tx.state.spaces[doc.SpaceID] = stored
	after := domain.CloneSpaceDocument(stored)
	tx.recordChange(domain.Change{Entity: domain.EntitySpace, Action: domain.ActionCreate, After: &after})
	return domain.CloneSpaceDocument(stored), nil
}

// UpdateSpace hydrates the stored document into an aggregate, applies the
// mutator, and stores the result with a bumped version. Domain events
// emitted by the mutation are collected for the commit result.
func (tx *transaction) UpdateSpace(id string, mutator func(*domain.Space) error) (domain.SpaceDocument, error) {
	current, ok := tx.state.spaces[id]
	if !ok {
		return domain.SpaceDocument{}, domain.NewStoreError(domain.CodeNotFound, domain.ErrNotFound{Entity: domain.EntitySpace, ID: id})
	}
	before := domain.CloneSpaceDocument(current)
	space := domain.HydrateSpace(current).WithNow(func() time.Time { return tx.now })
	if err := mutator(space); err != nil {
		return domain.SpaceDocument{}, err
	}
	next := space.ToData()
	next.SpaceID = id
	next.UpdatedAt = tx.now
	next.Version = current.Version + 1
	tx.state.spaces[id] = domain.CloneSpaceDocument(next)
	after := domain.CloneSpaceDocument(next)
	tx.recordChange(domain.Change{Entity: domain.EntitySpace, Action: domain.ActionUpdate, Before: &before, After: &after})
	tx.events = append(tx.events, space.DrainEvents()...)
	return domain.CloneSpaceDocument(next), nil
}

// DeleteSpace removes a space document from the transaction state.
func (tx *transaction) DeleteSpace(id string) error {
	current, ok := tx.state.spaces[id]
	if !ok {
		return domain.NewStoreError(domain.CodeNotFound, domain.ErrNotFound{Entity: domain.EntitySpace, ID: id})
	}
	before := domain.CloneSpaceDocument(current)
	delete(tx.state.spaces, id)
	tx.recordChange(domain.Change{Entity: domain.EntitySpace, Action: domain.ActionDelete, Before: &before})
	return nil
}

// FindSpace retrieves a space document from the pending state.
func (tx *transaction) FindSpace(id string) (domain.SpaceDocument, bool) {
	doc, ok := tx.state.spaces[id]
	if !ok {
		return domain.SpaceDocument{}, false
	}
	return domain.CloneSpaceDocument(doc), true
}

// AppendAuditEntry stores an audit record within the transaction.
func (tx *transaction) AppendAuditEntry(entry domain.AuditEntry) (domain.AuditEntry, error) {
	if entry.ID == "" {
		return domain.AuditEntry{}, domain.NewStoreError(domain.CodeInvalidArgument, fmt.Errorf("audit entry id required"))
	}
	if _, exists := tx.state.audit[entry.ID]; exists {
		return domain.AuditEntry{}, domain.NewStoreError(domain.CodeAlreadyExists, fmt.Errorf("audit entry %q already exists", entry.ID))
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = tx.now
	}
	tx.state.audit[entry.ID] = cloneAuditEntry(entry)
	return cloneAuditEntry(entry), nil
}

// DeleteAuditEntry removes an audit record.
func (tx *transaction) DeleteAuditEntry(id string) error {
	if _, ok := tx.state.audit[id]; !ok {
		return domain.NewStoreError(domain.CodeNotFound, domain.ErrNotFound{Entity: domain.EntityAuditEntry, ID: id})
	}
	delete(tx.state.audit, id)
	return nil
}

// Read helpers ---------------------------------------------------------------

// GetSpace retrieves a space document by id from committed state.
func (s *Store) GetSpace(id string) (domain.SpaceDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.state.spaces[id]
	if !ok {
		return domain.SpaceDocument{}, false
	}
	return domain.CloneSpaceDocument(doc), true
}

// ListSpaces returns all space documents from committed state.
func (s *Store) ListSpaces() []domain.SpaceDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SpaceDocument, 0, len(s.state.spaces))
	for _, doc := range s.state.spaces {
		out = append(out, domain.CloneSpaceDocument(doc))
	}
	return out
}

// ListAuditEntries returns committed audit records for a space, or all when
// spaceID is empty.
func (s *Store) ListAuditEntries(spaceID string) []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditEntry
	for _, e := range s.state.audit {
		if spaceID == "" || e.SpaceID == spaceID {
			out = append(out, cloneAuditEntry(e))
		}
	}
	return out
}

// ExportState returns a deep-copied snapshot of committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := Snapshot{
		Spaces: make(map[string]domain.SpaceDocument, len(s.state.spaces)),
		Audit:  make(map[string]domain.AuditEntry, len(s.state.audit)),
	}
	for k, v := range s.state.spaces {
		snapshot.Spaces[k] = domain.CloneSpaceDocument(v)
	}
	for k, v := range s.state.audit {
		snapshot.Audit[k] = cloneAuditEntry(v)
	}
	return snapshot
}

// ImportState replaces committed state with the snapshot contents.
func (s *Store) ImportState(snapshot Snapshot) {
	snapshot = migrateSnapshot(snapshot)
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for k, v := range snapshot.Spaces {
		state.spaces[k] = domain.CloneSpaceDocument(v)
	}
	for k, v := range snapshot.Audit {
		state.audit[k] = cloneAuditEntry(v)
	}
	s.state = state
}

// migrateSnapshot normalizes snapshots written by earlier layouts.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Spaces == nil {
		snapshot.Spaces = map[string]domain.SpaceDocument{}
	}
	if snapshot.Audit == nil {
		snapshot.Audit = map[string]domain.AuditEntry{}
	}
	return snapshot
}
