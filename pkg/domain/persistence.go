package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. UpdateSpace hydrates the stored
// document into a Space aggregate so mutators cannot bypass invariants.
type Transaction interface {
	Snapshot() TransactionView
	CreateSpace(SpaceDocument) (SpaceDocument, error)
	UpdateSpace(id string, mutator func(*Space) error) (SpaceDocument, error)
	DeleteSpace(id string) error
	FindSpace(id string) (SpaceDocument, bool)
	AppendAuditEntry(AuditEntry) (AuditEntry, error)
	DeleteAuditEntry(id string) error
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListSpaces() []SpaceDocument
	FindSpace(id string) (SpaceDocument, bool)
	ListAuditEntries(spaceID string) []AuditEntry
}

// PersistentStore is a minimal abstraction over durable backends. The result
// carries rule violations plus the events drained from committed mutations.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetSpace(id string) (SpaceDocument, bool)
	ListSpaces() []SpaceDocument
	ListAuditEntries(spaceID string) []AuditEntry
}
