package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"spacecore/pkg/domain"
)

// SpaceService is the use-case front door for the space aggregate. Every
// mutation goes through the coordinator so it gets retries, rule evaluation,
// audit recording, and event fan-out uniformly.
type SpaceService struct {
	store       domain.PersistentStore
	coordinator *Coordinator
	registry    *SystemToolRegistry
	sink        domain.EventSink
	archiver    *EventArchiver
	logger      zerolog.Logger
	metrics     MetricsRecorder
	tracer      Tracer
	newID       func() string
	nowFn       func() time.Time
}

// ServiceOption configures a SpaceService.
type ServiceOption func(*SpaceService)

// WithServiceLogger attaches a structured logger.
func WithServiceLogger(logger zerolog.Logger) ServiceOption {
	return func(s *SpaceService) { s.logger = logger }
}

// WithEventSink attaches a committed-event subscriber.
func WithEventSink(sink domain.EventSink) ServiceOption {
	return func(s *SpaceService) { s.sink = sink }
}

// WithEventArchiver attaches a blob-backed event archive.
func WithEventArchiver(a *EventArchiver) ServiceOption {
	return func(s *SpaceService) { s.archiver = a }
}

// WithSystemToolRegistry overrides the auto-deploy registry.
func WithSystemToolRegistry(r *SystemToolRegistry) ServiceOption {
	return func(s *SpaceService) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithServiceMetrics attaches a metrics recorder.
func WithServiceMetrics(rec MetricsRecorder) ServiceOption {
	return func(s *SpaceService) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithServiceTracer attaches a tracer.
func WithServiceTracer(t Tracer) ServiceOption {
	return func(s *SpaceService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithIDGenerator overrides id generation, for tests.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *SpaceService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithServiceNow overrides the service clock, for tests.
func WithServiceNow(fn func() time.Time) ServiceOption {
	return func(s *SpaceService) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// NewSpaceService constructs a service over the given store.
func NewSpaceService(store domain.PersistentStore, coordinator *Coordinator, opts ...ServiceOption) *SpaceService {
	s := &SpaceService{
		store:       store,
		coordinator: coordinator,
		registry:    DefaultSystemToolRegistry(),
		logger:      zerolog.Nop(),
		metrics:     NoopMetrics{},
		tracer:      NoopTracer{},
		newID:       func() string { return uuid.NewString() },
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSpace seeds a new space, auto-deploys its system tools, and records
// the creation events. A missing SpaceID is generated.
func (s *SpaceService) CreateSpace(ctx context.Context, input domain.CreateSpaceInput) (domain.SpaceDocument, error) {
	if input.SpaceID == "" {
		input.SpaceID = s.newID()
	}
	space, err := domain.NewSpace(input)
	if err != nil {
		return domain.SpaceDocument{}, err
	}
	s.deploySystemTools(space)
	events := space.DrainEvents()
	doc := space.ToData()

	var created domain.SpaceDocument
	res := s.coordinator.ExecuteTransaction(ctx, []Operation{{
		ID: "create-space",
		Apply: func(tx domain.Transaction) error {
			var txErr error
			created, txErr = tx.CreateSpace(doc)
			if txErr != nil {
				return txErr
			}
			return s.appendAudit(tx, events)
		},
	}})
	if !res.Success {
		return domain.SpaceDocument{}, res.Err
	}
	s.fanOut(ctx, events)
	s.logger.Info().Str("space_id", created.SpaceID).Str("name", created.Name).Msg("space created")
	return created, nil
}

// Mutate runs one named aggregate mutation inside a coordinated transaction
// and fans out the resulting events.
func (s *SpaceService) Mutate(ctx context.Context, spaceID, operation string, fn func(*domain.Space) error) (domain.SpaceDocument, error) {
	started := s.nowFn()
	var (
		updated domain.SpaceDocument
		events  []domain.Event
	)
	res := s.coordinator.ExecuteTransaction(ctx, []Operation{{
		ID: operation,
		Apply: func(tx domain.Transaction) error {
			events = nil
			doc, txErr := tx.UpdateSpace(spaceID, func(space *domain.Space) error {
				if err := fn(space); err != nil {
					return err
				}
				events = space.Events()
				return nil
			})
			if txErr != nil {
				return txErr
			}
			updated = doc
			return s.appendAudit(tx, events)
		},
	}})
	s.tracer.Span(ctx, operation, map[string]any{
		"space_id": spaceID,
		"success":  res.Success,
		"attempts": res.Attempts,
	})
	s.metrics.Observe(ctx, operation, res.Success, time.Since(started))
	if !res.Success {
		return domain.SpaceDocument{}, res.Err
	}
	s.fanOut(ctx, events)
	return updated, nil
}

// GetSpace fetches one space document.
func (s *SpaceService) GetSpace(_ context.Context, spaceID string) (domain.SpaceDocument, error) {
	doc, ok := s.store.GetSpace(spaceID)
	if !ok {
		return domain.SpaceDocument{}, domain.ErrNotFound{Entity: domain.EntitySpace, ID: spaceID}
	}
	return doc, nil
}

// ListSpaces returns all space documents.
func (s *SpaceService) ListSpaces(_ context.Context) []domain.SpaceDocument {
	return s.store.ListSpaces()
}

// AuditTrail returns the recorded events for a space.
func (s *SpaceService) AuditTrail(_ context.Context, spaceID string) []domain.AuditEntry {
	return s.store.ListAuditEntries(spaceID)
}

// DeleteSpace removes a space and its audit trail. Audit entries are purged
// first in non-transactional chunks; the space document itself is removed
// last so a partial failure leaves the space intact and the purge re-runnable.
func (s *SpaceService) DeleteSpace(ctx context.Context, spaceID string) error {
	if _, ok := s.store.GetSpace(spaceID); !ok {
		return domain.ErrNotFound{Entity: domain.EntitySpace, ID: spaceID}
	}
	entries := s.store.ListAuditEntries(spaceID)
	for start := 0; start < len(entries); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		ops := make([]BatchOperation, 0, end-start)
		for _, entry := range entries[start:end] {
			entryID := entry.ID
			ops = append(ops, BatchOperation{
				ID: "delete-audit-" + entryID,
				Apply: func(ctx context.Context) error {
					_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
						return tx.DeleteAuditEntry(entryID)
					})
					return err
				},
			})
		}
		if batch := s.coordinator.ExecuteBatch(ctx, ops); !batch.Success {
			return fmt.Errorf("purge audit trail for %s: %w", spaceID, batch.Err)
		}
	}
	res := s.coordinator.ExecuteTransaction(ctx, []Operation{{
		ID:    "delete-space",
		Apply: func(tx domain.Transaction) error { return tx.DeleteSpace(spaceID) },
	}})
	if !res.Success {
		return res.Err
	}
	s.logger.Info().Str("space_id", spaceID).Int("audit_entries_purged", len(entries)).Msg("space deleted")
	return nil
}

// Claim takes immediate verified ownership of an unclaimed space.
func (s *SpaceService) Claim(ctx context.Context, spaceID, profileID string) (domain.SpaceDocument, error) {
	return s.Mutate(ctx, spaceID, "claim-space", func(space *domain.Space) error {
		return space.Claim(profileID)
	})
}

// SubmitClaimRequest records a claim with provisional ownership pending review.
func (s *SpaceService) SubmitClaimRequest(ctx context.Context, spaceID, profileID, role, proofType, proofURL string) (domain.SpaceDocument, error) {
	return s.Mutate(ctx, spaceID, "submit-claim-request", func(space *domain.Space) error {
		return space.SubmitClaimRequest(profileID, role, proofType, proofURL)
	})
}

// VerifyClaimRequest approves a pending claim.
func (s *SpaceService) VerifyClaimRequest(ctx context.Context, spaceID, profileID, reviewerID string) (domain.SpaceDocument, error) {
	return s.Mutate(ctx, spaceID, "verify-claim-request", func(space *domain.Space) error {
		return space.VerifyClaimRequest(profileID, reviewerID)
	})
}

// GoLive publishes a stealth space.
func (s *SpaceService) GoLive(ctx context.Context, spaceID string) (domain.SpaceDocument, error) {
	return s.Mutate(ctx, spaceID, "go-live", func(space *domain.Space) error {
		return space.GoLive()
	})
}

// AddMember joins a profile to the space.
func (s *SpaceService) AddMember(ctx context.Context, spaceID, profileID string, role domain.MemberRole) (domain.SpaceDocument, error) {
	return s.Mutate(ctx, spaceID, "add-member", func(space *domain.Space) error {
		return space.AddMember(profileID, role)
	})
}

// RemoveMember removes a profile from the space.
func (s *SpaceService) RemoveMember(ctx context.Context, spaceID, profileID string) (domain.SpaceDocument, error) {
	return s.Mutate(ctx, spaceID, "remove-member", func(space *domain.Space) error {
		return space.RemoveMember(profileID)
	})
}

// TransferOwnership moves the owner role to another member.
func (s *SpaceService) TransferOwnership(ctx context.Context, spaceID, newOwnerID string) (domain.SpaceDocument, error) {
	return s.Mutate(ctx, spaceID, "transfer-ownership", func(space *domain.Space) error {
		return space.TransferOwnership(newOwnerID)
	})
}

// AutoDeploySystemTools places every registry tool for the space's type that
// is not already deployed. Used to bootstrap pre-seeded spaces.
func (s *SpaceService) AutoDeploySystemTools(ctx context.Context, spaceID string) (domain.SpaceDocument, error) {
	return s.Mutate(ctx, spaceID, "auto-deploy-system-tools", func(space *domain.Space) error {
		s.deploySystemTools(space)
		return nil
	})
}

// deploySystemTools walks the registry for the space's type, skipping tools
// already placed. A placement that fails is logged and skipped so one bad
// registry entry cannot block bootstrap.
func (s *SpaceService) deploySystemTools(space *domain.Space) {
	placed := make(map[string]bool)
	for _, pt := range space.PlacedTools() {
		placed[pt.ToolID] = true
	}
	for _, tool := range s.registry.ToolsFor(space.SpaceType()) {
		if placed[tool.ToolID] {
			continue
		}
		if _, err := space.PlaceSystemTool(domain.PlacementInput{
			ID:       s.newID(),
			ToolID:   tool.ToolID,
			Location: tool.Location,
			Order:    tool.Order,
		}); err != nil {
			s.logger.Warn().Err(err).Str("space_id", space.ID()).Str("tool_id", tool.ToolID).Msg("system tool deploy skipped")
			continue
		}
		placed[tool.ToolID] = true
	}
}

// PlaceTool deploys a catalog tool, generating the placement id.
func (s *SpaceService) PlaceTool(ctx context.Context, spaceID string, input domain.PlacementInput) (domain.SpaceDocument, error) {
	if input.ID == "" {
		input.ID = s.newID()
	}
	return s.Mutate(ctx, spaceID, "place-tool", func(space *domain.Space) error {
		_, err := space.PlaceTool(input)
		return err
	})
}

// appendAudit persists one audit entry per drained event, inside the same
// transaction that produced them.
func (s *SpaceService) appendAudit(tx domain.Transaction, events []domain.Event) error {
	for _, ev := range events {
		if _, err := tx.AppendAuditEntry(domain.AuditEntry{
			ID:         s.newID(),
			SpaceID:    ev.SpaceID,
			EventType:  string(ev.Type),
			Fields:     ev.Fields,
			OccurredAt: ev.OccurredAt,
		}); err != nil {
			return err
		}
	}
	return nil
}

// fanOut delivers committed events to the sink and archive. Failures are
// logged, never surfaced; the commit already happened.
func (s *SpaceService) fanOut(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}
	if s.sink != nil {
		s.sink.Publish(events)
	}
	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, events); err != nil {
			s.logger.Warn().Err(err).Int("events", len(events)).Msg("event archive write failed")
		}
	}
}
