package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-tracker/internal/domain"
	"github.com/spec-kit/helpdesk-tracker/internal/events"
	"github.com/spec-kit/helpdesk-tracker/internal/observability"
	"github.com/spec-kit/helpdesk-tracker/internal/persistence"
	apperrors "github.com/spec-kit/helpdesk-tracker/pkg/util"
)

// ticketsKey is the session-store key holding the full collection document.
const ticketsKey = "tickets"

// collectionDocument is the single persisted blob: the entire collection is
// rewritten on every mutation.
type collectionDocument struct {
	Tickets []domain.Ticket `json:"tickets"`
}

// TicketDraft describes ticket creation input.
type TicketDraft struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
	Status      domain.TicketStatus
	Author      string
	Assignee    *string
}

// CommentDraft describes comment creation input.
type CommentDraft struct {
	Author   string
	Body     string
	Internal bool
}

// TicketPatch carries a partial update; nil fields are left untouched.
// Setting Status here is the trusted bulk-edit path: it bypasses the
// workflow graph but stamps ResolvedAt like the guarded path. Status-only
// changes should go through ChangeStatus.
type TicketPatch struct {
	Title       *string
	Description *string
	Category    *domain.TicketCategory
	Priority    *domain.TicketPriority
	Status      *domain.TicketStatus
	Author      *string
	Assignee    *string
}

// TicketStore is the sole writer of ticket state. Operations are serialized
// under one mutex, so a mutation is atomic with respect to observers: the
// persistence sync and the notification pass both see the fully applied
// state.
type TicketStore struct {
	mu       sync.Mutex
	tickets  map[string]*domain.Ticket
	session  persistence.SessionStore
	notifier events.Notifier
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// Dependencies bundles collaborators for the store.
type Dependencies struct {
	Session  persistence.SessionStore
	Notifier events.Notifier
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	// Clock overrides the timestamp source; defaults to time.Now.
	Clock func() time.Time
}

// New constructs an empty store.
func New(deps Dependencies) *TicketStore {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketStore{
		tickets:  make(map[string]*domain.Ticket),
		session:  deps.Session,
		notifier: deps.Notifier,
		logger:   logger,
		metrics:  deps.Metrics,
		now:      clock,
	}
}

// Restore seeds the store from the persisted collection document. A missing
// or unreadable document leaves the store empty. Returns the number of
// tickets loaded. No notifications are emitted.
func (s *TicketStore) Restore(ctx context.Context) int {
	if s.session == nil {
		return 0
	}
	var doc collectionDocument
	if !s.session.Load(ctx, ticketsKey, &doc) {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = make(map[string]*domain.Ticket, len(doc.Tickets))
	for i := range doc.Tickets {
		ticket := doc.Tickets[i]
		if ticket.Comments == nil {
			ticket.Comments = []domain.Comment{}
		}
		s.tickets[ticket.ID] = &ticket
	}
	s.logger.Info("restored persisted tickets", zap.Int("count", len(s.tickets)))
	return len(s.tickets)
}

// ListAll returns every ticket ordered by UpdatedAt descending.
func (s *TicketStore) ListAll() []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedByUpdatedLocked()
}

// GetByID returns the ticket or a not-found error.
func (s *TicketStore) GetByID(id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	clone := cloneTicket(ticket)
	return &clone, nil
}

// Create validates the draft, assigns identity and timestamps, and appends
// the ticket to the collection.
func (s *TicketStore) Create(ctx context.Context, draft TicketDraft) (*domain.Ticket, error) {
	title := strings.TrimSpace(draft.Title)
	description := strings.TrimSpace(draft.Description)
	author := strings.TrimSpace(draft.Author)
	if title == "" || description == "" || author == "" {
		return nil, apperrors.NewValidationError("title, description, author required", nil)
	}
	if !draft.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": draft.Category})
	}
	priority := draft.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": draft.Priority})
	}
	status := draft.Status
	if status == "" {
		status = domain.TicketStatusOpen
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": draft.Status})
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Category:    draft.Category,
		Priority:    priority,
		Status:      status,
		Author:      author,
		Assignee:    draft.Assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
		Comments:    []domain.Comment{},
	}
	if status == domain.TicketStatusResolved {
		resolved := now
		ticket.ResolvedAt = &resolved
	}

	s.mu.Lock()
	s.tickets[ticket.ID] = ticket
	clone := cloneTicket(ticket)
	s.syncLocked(ctx)
	s.mu.Unlock()

	s.afterMutation(ctx, "create", events.Event{
		Type:     events.EventTicketCreated,
		TicketID: clone.ID,
		Payload: events.TicketCreatedPayload{
			Title:    clone.Title,
			Category: clone.Category,
			Priority: clone.Priority,
			Status:   clone.Status,
			Author:   clone.Author,
		},
	})
	return &clone, nil
}

// Update merges the patch into the ticket and stamps UpdatedAt. An empty
// patch is a no-op and emits no notification.
func (s *TicketStore) Update(ctx context.Context, id string, patch TicketPatch) (*domain.Ticket, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	ticket, ok := s.tickets[id]
	if !ok {
		s.mu.Unlock()
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}

	fields := applyPatch(ticket, patch)
	if len(fields) == 0 {
		clone := cloneTicket(ticket)
		s.mu.Unlock()
		return &clone, nil
	}
	now := s.now()
	ticket.UpdatedAt = now
	if ticket.Status == domain.TicketStatusResolved && ticket.ResolvedAt == nil {
		resolved := now
		ticket.ResolvedAt = &resolved
	}
	clone := cloneTicket(ticket)
	s.syncLocked(ctx)
	s.mu.Unlock()

	s.afterMutation(ctx, "update", events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: clone.ID,
		Payload:  events.TicketUpdatedPayload{Fields: fields},
	})
	return &clone, nil
}

// Delete removes the ticket and its comments. Returns false when the id is
// absent; that is not an error.
func (s *TicketStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	ticket, ok := s.tickets[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	title := ticket.Title
	comments := len(ticket.Comments)
	delete(s.tickets, id)
	s.syncLocked(ctx)
	s.mu.Unlock()

	s.afterMutation(ctx, "delete", events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Payload:  events.TicketDeletedPayload{Title: title, Comments: comments},
	})
	return true
}

// Search matches the term case-insensitively against title, description and
// id. Results follow the ListAll ordering.
func (s *TicketStore) Search(term string) []domain.Ticket {
	needle := strings.ToLower(strings.TrimSpace(term))
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sortedByUpdatedLocked()
	if needle == "" {
		return all
	}
	matched := make([]domain.Ticket, 0, len(all))
	for _, ticket := range all {
		if strings.Contains(strings.ToLower(ticket.Title), needle) ||
			strings.Contains(strings.ToLower(ticket.Description), needle) ||
			strings.Contains(strings.ToLower(ticket.ID), needle) {
			matched = append(matched, ticket)
		}
	}
	return matched
}

// FilterByCategory returns tickets with the exact category.
func (s *TicketStore) FilterByCategory(category domain.TicketCategory) []domain.Ticket {
	return s.filter(func(t *domain.Ticket) bool { return t.Category == category })
}

// FilterByPriority returns tickets with the exact priority.
func (s *TicketStore) FilterByPriority(priority domain.TicketPriority) []domain.Ticket {
	return s.filter(func(t *domain.Ticket) bool { return t.Priority == priority })
}

// FilterByStatus returns tickets with the exact status.
func (s *TicketStore) FilterByStatus(status domain.TicketStatus) []domain.Ticket {
	return s.filter(func(t *domain.Ticket) bool { return t.Status == status })
}

// AddComment appends a comment to the ticket thread and touches the
// ticket's UpdatedAt.
func (s *TicketStore) AddComment(ctx context.Context, ticketID string, draft CommentDraft) (*domain.Comment, error) {
	author := strings.TrimSpace(draft.Author)
	body := strings.TrimSpace(draft.Body)
	if author == "" || body == "" {
		return nil, apperrors.NewValidationError("author, body required", nil)
	}

	s.mu.Lock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		s.mu.Unlock()
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	now := s.now()
	comment := domain.Comment{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		Author:    author,
		Body:      body,
		Internal:  draft.Internal,
		CreatedAt: now,
	}
	ticket.Comments = append(ticket.Comments, comment)
	ticket.UpdatedAt = now
	s.syncLocked(ctx)
	s.mu.Unlock()

	s.afterMutation(ctx, "add_comment", events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticketID,
		Payload: events.TicketCommentAddedPayload{
			CommentID: comment.ID,
			Author:    comment.Author,
			Internal:  comment.Internal,
		},
	})
	return &comment, nil
}

// Comments returns the ticket's thread ordered oldest first. An absent
// ticket yields an empty slice.
func (s *TicketStore) Comments(ticketID string) []domain.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return []domain.Comment{}
	}
	comments := make([]domain.Comment, len(ticket.Comments))
	copy(comments, ticket.Comments)
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments
}

// ChangeStatus is the guarded transition path. The returned bool reports
// whether the edge was legal; an illegal edge performs no mutation and is a
// normal negative result, not an error. The error is reserved for an
// unknown ticket id.
func (s *TicketStore) ChangeStatus(ctx context.Context, ticketID string, next domain.TicketStatus) (*domain.Ticket, bool, error) {
	s.mu.Lock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		s.mu.Unlock()
		return nil, false, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	if !domain.CanTransition(ticket.Status, next) {
		s.mu.Unlock()
		return nil, false, nil
	}
	old := ticket.Status
	now := s.now()
	ticket.Status = next
	ticket.UpdatedAt = now
	if next == domain.TicketStatusResolved && ticket.ResolvedAt == nil {
		resolved := now
		ticket.ResolvedAt = &resolved
	}
	clone := cloneTicket(ticket)
	s.syncLocked(ctx)
	s.mu.Unlock()

	s.afterMutation(ctx, "change_status", events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticketID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: old,
			NewStatus: next,
		},
	})
	return &clone, true, nil
}

// UrgentOpen returns urgent tickets that are still being worked (open or in
// progress), oldest first so the longest-waiting surface at the top.
func (s *TicketStore) UrgentOpen() []domain.Ticket {
	tickets := s.filter(func(t *domain.Ticket) bool {
		if t.Priority != domain.TicketPriorityUrgent {
			return false
		}
		return t.Status == domain.TicketStatusOpen || t.Status == domain.TicketStatusInProgress
	})
	sort.SliceStable(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].ID < tickets[j].ID
		}
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	return tickets
}

func (s *TicketStore) filter(keep func(*domain.Ticket) bool) []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]domain.Ticket, 0)
	for _, ticket := range s.sortedByUpdatedLocked() {
		t := ticket
		if keep(&t) {
			matched = append(matched, t)
		}
	}
	return matched
}

// sortedByUpdatedLocked clones the collection ordered by UpdatedAt
// descending, ties broken by id for determinism. Caller holds the mutex.
func (s *TicketStore) sortedByUpdatedLocked() []domain.Ticket {
	out := make([]domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		out = append(out, cloneTicket(ticket))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// syncLocked rewrites the full collection document. Best-effort: the
// adapter logs and swallows failures, in-memory state stays authoritative.
// Caller holds the mutex.
func (s *TicketStore) syncLocked(ctx context.Context) {
	if s.session == nil {
		return
	}
	doc := collectionDocument{Tickets: make([]domain.Ticket, 0, len(s.tickets))}
	for _, ticket := range s.tickets {
		doc.Tickets = append(doc.Tickets, cloneTicket(ticket))
	}
	sort.SliceStable(doc.Tickets, func(i, j int) bool {
		if doc.Tickets[i].CreatedAt.Equal(doc.Tickets[j].CreatedAt) {
			return doc.Tickets[i].ID < doc.Tickets[j].ID
		}
		return doc.Tickets[i].CreatedAt.Before(doc.Tickets[j].CreatedAt)
	})
	s.session.Save(ctx, ticketsKey, doc)
}

// afterMutation records the mutation and notifies subscribers. Runs outside
// the mutex so a handler can issue store calls without deadlocking.
func (s *TicketStore) afterMutation(ctx context.Context, op string, event events.Event) {
	s.metrics.RecordMutation(op)
	if s.notifier == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.notifier.Publish(ctx, event)
}

func validatePatch(patch TicketPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return apperrors.NewValidationError("title must not be empty", nil)
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return apperrors.NewValidationError("description must not be empty", nil)
	}
	if patch.Author != nil && strings.TrimSpace(*patch.Author) == "" {
		return apperrors.NewValidationError("author must not be empty", nil)
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return apperrors.NewValidationError("unknown category", map[string]any{"category": *patch.Category})
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": *patch.Priority})
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": *patch.Status})
	}
	return nil
}

// applyPatch mutates the ticket in place and returns the names of fields
// that actually changed.
func applyPatch(ticket *domain.Ticket, patch TicketPatch) []string {
	fields := make([]string, 0, 7)
	if patch.Title != nil {
		if title := strings.TrimSpace(*patch.Title); title != ticket.Title {
			ticket.Title = title
			fields = append(fields, "title")
		}
	}
	if patch.Description != nil {
		if description := strings.TrimSpace(*patch.Description); description != ticket.Description {
			ticket.Description = description
			fields = append(fields, "description")
		}
	}
	if patch.Category != nil && *patch.Category != ticket.Category {
		ticket.Category = *patch.Category
		fields = append(fields, "category")
	}
	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		ticket.Priority = *patch.Priority
		fields = append(fields, "priority")
	}
	if patch.Status != nil && *patch.Status != ticket.Status {
		ticket.Status = *patch.Status
		fields = append(fields, "status")
	}
	if patch.Author != nil {
		if author := strings.TrimSpace(*patch.Author); author != ticket.Author {
			ticket.Author = author
			fields = append(fields, "author")
		}
	}
	if patch.Assignee != nil && (ticket.Assignee == nil || *ticket.Assignee != *patch.Assignee) {
		assignee := *patch.Assignee
		ticket.Assignee = &assignee
		fields = append(fields, "assignee")
	}
	return fields
}

func cloneTicket(src *domain.Ticket) domain.Ticket {
	clone := *src
	if src.Assignee != nil {
		assignee := *src.Assignee
		clone.Assignee = &assignee
	}
	if src.ResolvedAt != nil {
		resolved := *src.ResolvedAt
		clone.ResolvedAt = &resolved
	}
	clone.Comments = make([]domain.Comment, len(src.Comments))
	copy(clone.Comments, src.Comments)
	return clone
}
