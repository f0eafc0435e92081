package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-tracker/internal/domain"
	"github.com/spec-kit/helpdesk-tracker/internal/events"
	"github.com/spec-kit/helpdesk-tracker/internal/persistence"
	apperrors "github.com/spec-kit/helpdesk-tracker/pkg/util"
)

// stepClock hands out a fixed time that tests advance explicitly, so
// ordering assertions do not depend on wall-clock resolution.
type stepClock struct {
	current time.Time
}

func newStepClock() *stepClock {
	return &stepClock{current: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time { return c.current }

func (c *stepClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

type fixture struct {
	store    *TicketStore
	clock    *stepClock
	session  *persistence.MemorySessionStore
	notifier events.Notifier
}

func newFixture() *fixture {
	clock := newStepClock()
	session := persistence.NewMemorySessionStore()
	notifier := events.NewNotifier()
	s := New(Dependencies{
		Session:  session,
		Notifier: notifier,
		Clock:    clock.Now,
	})
	return &fixture{store: s, clock: clock, session: session, notifier: notifier}
}

func (f *fixture) draft() TicketDraft {
	return TicketDraft{
		Title:       "Printer on fire",
		Description: "Smoke coming out of the office printer",
		Category:    domain.CategoryTechnical,
		Priority:    domain.TicketPriorityHigh,
		Status:      domain.TicketStatusOpen,
		Author:      "alice",
	}
}

func (f *fixture) create(t *testing.T, mutate func(*TicketDraft)) *domain.Ticket {
	t.Helper()
	draft := f.draft()
	if mutate != nil {
		mutate(&draft)
	}
	ticket, err := f.store.Create(context.Background(), draft)
	require.NoError(t, err)
	return ticket
}

func TestCreate_AssignsIdentityAndTimestamps(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)

	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, ticket.CreatedAt, ticket.UpdatedAt)
	assert.Nil(t, ticket.ResolvedAt)
	assert.NotNil(t, ticket.Comments)
	assert.Empty(t, ticket.Comments)
}

func TestCreate_Defaults(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, func(d *TicketDraft) {
		d.Priority = ""
		d.Status = ""
	})
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	cases := []struct {
		name   string
		mutate func(*TicketDraft)
	}{
		{"empty title", func(d *TicketDraft) { d.Title = "  " }},
		{"empty description", func(d *TicketDraft) { d.Description = "" }},
		{"empty author", func(d *TicketDraft) { d.Author = "" }},
		{"bad category", func(d *TicketDraft) { d.Category = "NOPE" }},
		{"bad priority", func(d *TicketDraft) { d.Priority = "NOPE" }},
		{"bad status", func(d *TicketDraft) { d.Status = "NOPE" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := f.draft()
			tc.mutate(&draft)
			_, err := f.store.Create(context.Background(), draft)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
	assert.Empty(t, f.store.ListAll(), "rejected drafts must not be stored")
}

func TestGetByID(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)

	got, err := f.store.GetByID(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)

	_, err = f.store.GetByID("missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListAll_OrderedByUpdatedAtDescending(t *testing.T) {
	f := newFixture()
	first := f.create(t, func(d *TicketDraft) { d.Title = "first" })
	f.clock.Advance(time.Minute)
	second := f.create(t, func(d *TicketDraft) { d.Title = "second" })
	f.clock.Advance(time.Minute)

	// touching the older ticket moves it to the front
	title := "first updated"
	_, err := f.store.Update(context.Background(), first.ID, TicketPatch{Title: &title})
	require.NoError(t, err)

	all := f.store.ListAll()
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
}

func TestUpdate_StampsUpdatedAt(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)
	f.clock.Advance(time.Hour)

	description := "New description"
	updated, err := f.store.Update(context.Background(), ticket.ID, TicketPatch{Description: &description})
	require.NoError(t, err)
	assert.Equal(t, "New description", updated.Description)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestUpdate_Validation(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)
	empty := ""
	_, err := f.store.Update(context.Background(), ticket.ID, TicketPatch{Title: &empty})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	bad := domain.TicketStatus("NOPE")
	_, err = f.store.Update(context.Background(), ticket.ID, TicketPatch{Status: &bad})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture()
	title := "anything"
	_, err := f.store.Update(context.Background(), "missing", TicketPatch{Title: &title})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdate_DirectStatusStampsResolvedAt(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)
	f.clock.Advance(time.Hour)

	// the trusted path skips the workflow graph: open -> resolved directly
	resolved := domain.TicketStatusResolved
	updated, err := f.store.Update(context.Background(), ticket.ID, TicketPatch{Status: &resolved})
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
	assert.Equal(t, f.clock.Now(), *updated.ResolvedAt)
}

func TestResolvedAt_StampedOnceNeverRestamped(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)
	ctx := context.Background()

	mustTransition := func(next domain.TicketStatus) *domain.Ticket {
		t.Helper()
		got, allowed, err := f.store.ChangeStatus(ctx, ticket.ID, next)
		require.NoError(t, err)
		require.True(t, allowed, "transition to %s", next)
		return got
	}

	mustTransition(domain.TicketStatusInProgress)
	f.clock.Advance(time.Hour)
	first := mustTransition(domain.TicketStatusResolved)
	require.NotNil(t, first.ResolvedAt)
	firstStamp := *first.ResolvedAt

	// full cycle back to resolved must keep the original stamp
	f.clock.Advance(time.Hour)
	mustTransition(domain.TicketStatusClosed)
	mustTransition(domain.TicketStatusOpen)
	mustTransition(domain.TicketStatusInProgress)
	f.clock.Advance(time.Hour)
	second := mustTransition(domain.TicketStatusResolved)
	require.NotNil(t, second.ResolvedAt)
	assert.Equal(t, firstStamp, *second.ResolvedAt)
}

func TestChangeStatus_LegalEdgesOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, from := range domain.AllStatuses() {
		for _, to := range domain.AllStatuses() {
			ticket := f.create(t, func(d *TicketDraft) { d.Status = from })
			before, err := f.store.GetByID(ticket.ID)
			require.NoError(t, err)

			f.clock.Advance(time.Minute)
			_, allowed, err := f.store.ChangeStatus(ctx, ticket.ID, to)
			require.NoError(t, err)
			assert.Equal(t, domain.CanTransition(from, to), allowed, "%s -> %s", from, to)

			after, err := f.store.GetByID(ticket.ID)
			require.NoError(t, err)
			if allowed {
				assert.Equal(t, to, after.Status)
				assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
			} else {
				assert.Equal(t, from, after.Status, "rejected edge must not mutate")
				assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "rejected edge must not touch UpdatedAt")
			}
		}
	}
}

func TestChangeStatus_NotFound(t *testing.T) {
	f := newFixture()
	_, allowed, err := f.store.ChangeStatus(context.Background(), "missing", domain.TicketStatusClosed)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, allowed)
}

func TestDelete(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)
	_, err := f.store.AddComment(context.Background(), ticket.ID, CommentDraft{Author: "bob", Body: "looking"})
	require.NoError(t, err)

	assert.True(t, f.store.Delete(context.Background(), ticket.ID))
	assert.Empty(t, f.store.ListAll())
	assert.Empty(t, f.store.Comments(ticket.ID), "comments cascade with the ticket")

	assert.False(t, f.store.Delete(context.Background(), ticket.ID), "second delete is a no-op")
}

func TestSearch(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, func(d *TicketDraft) {
		d.Title = "VPN drops hourly"
		d.Description = "Connection resets on the corporate VPN"
	})
	f.create(t, func(d *TicketDraft) {
		d.Title = "Invoice duplicated"
		d.Description = "Billed twice in August"
	})

	assert.Len(t, f.store.Search("vpn"), 1)
	assert.Len(t, f.store.Search("BILLED"), 1)
	assert.Len(t, f.store.Search(ticket.ID[:8]), 1, "id substring matches")
	assert.Len(t, f.store.Search("nothing-here"), 0)
	assert.Len(t, f.store.Search(""), 2, "empty term returns everything")
}

func TestFilters(t *testing.T) {
	f := newFixture()
	f.create(t, func(d *TicketDraft) {
		d.Category = domain.CategoryBilling
		d.Priority = domain.TicketPriorityLow
		d.Status = domain.TicketStatusWaiting
	})
	f.create(t, nil)

	assert.Len(t, f.store.FilterByCategory(domain.CategoryBilling), 1)
	assert.Len(t, f.store.FilterByCategory(domain.CategoryBug), 0)
	assert.Len(t, f.store.FilterByPriority(domain.TicketPriorityLow), 1)
	assert.Len(t, f.store.FilterByStatus(domain.TicketStatusWaiting), 1)
	assert.Len(t, f.store.FilterByStatus(domain.TicketStatusOpen), 1)
}

func TestAddComment(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)
	f.clock.Advance(time.Minute)

	comment, err := f.store.AddComment(context.Background(), ticket.ID, CommentDraft{
		Author:   "bob",
		Body:     "Restarted the spooler",
		Internal: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, ticket.ID, comment.TicketID)
	assert.True(t, comment.Internal)

	after, err := f.store.GetByID(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, comment.CreatedAt, after.UpdatedAt, "comment touches the ticket")
}

func TestAddComment_Validation(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)
	_, err := f.store.AddComment(context.Background(), ticket.ID, CommentDraft{Author: "bob"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAddComment_UnknownTicketCreatesNoOrphan(t *testing.T) {
	f := newFixture()
	_, err := f.store.AddComment(context.Background(), "missing", CommentDraft{Author: "bob", Body: "hi"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, f.store.Comments("missing"))
}

func TestComments_OrderedOldestFirst(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)
	ctx := context.Background()

	for _, body := range []string{"one", "two", "three"} {
		f.clock.Advance(time.Minute)
		_, err := f.store.AddComment(ctx, ticket.ID, CommentDraft{Author: "bob", Body: body})
		require.NoError(t, err)
	}

	comments := f.store.Comments(ticket.ID)
	require.Len(t, comments, 3)
	assert.Equal(t, "one", comments[0].Body)
	assert.Equal(t, "three", comments[2].Body)
}

func TestUrgentOpen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	oldest := f.create(t, func(d *TicketDraft) { d.Priority = domain.TicketPriorityUrgent })
	f.clock.Advance(time.Hour)
	inProgress := f.create(t, func(d *TicketDraft) { d.Priority = domain.TicketPriorityUrgent })
	_, allowed, err := f.store.ChangeStatus(ctx, inProgress.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	require.True(t, allowed)
	f.clock.Advance(time.Hour)
	closed := f.create(t, func(d *TicketDraft) { d.Priority = domain.TicketPriorityUrgent })
	_, allowed, err = f.store.ChangeStatus(ctx, closed.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	require.True(t, allowed)
	f.create(t, func(d *TicketDraft) { d.Priority = domain.TicketPriorityLow })

	urgent := f.store.UrgentOpen()
	require.Len(t, urgent, 2)
	assert.Equal(t, oldest.ID, urgent[0].ID, "longest-waiting first")
	assert.Equal(t, inProgress.ID, urgent[1].ID)
}

func TestStatistics(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.create(t, nil)
	resolved := f.create(t, func(d *TicketDraft) { d.Category = domain.CategoryBug })
	_, _, err := f.store.ChangeStatus(ctx, resolved.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)
	_, allowed, err := f.store.ChangeStatus(ctx, resolved.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	require.True(t, allowed)

	stats := f.store.Statistics()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, len(f.store.ListAll()), stats.Total)

	assert.Len(t, stats.ByStatus, 5)
	assert.Len(t, stats.ByPriority, 4)
	assert.Len(t, stats.ByCategory, 6)

	sumStatuses, sumPriorities, sumCategories := 0, 0, 0
	for _, n := range stats.ByStatus {
		sumStatuses += n
	}
	for _, n := range stats.ByPriority {
		sumPriorities += n
	}
	for _, n := range stats.ByCategory {
		sumCategories += n
	}
	assert.Equal(t, stats.Total, sumStatuses)
	assert.Equal(t, stats.Total, sumPriorities)
	assert.Equal(t, stats.Total, sumCategories)

	assert.Equal(t, 1, stats.ByStatus[domain.TicketStatusResolved])
	assert.Equal(t, 2*time.Hour, stats.AverageResolutionTime)
}

func TestStatistics_ResolvedAtCountsAfterReopen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ticket := f.create(t, nil)
	_, _, err := f.store.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, _, err = f.store.ChangeStatus(ctx, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	_, _, err = f.store.ChangeStatus(ctx, ticket.ID, domain.TicketStatusOpen)
	require.NoError(t, err)

	stats := f.store.Statistics()
	assert.Equal(t, 0, stats.ByStatus[domain.TicketStatusResolved])
	assert.Equal(t, time.Hour, stats.AverageResolutionTime, "reopened ticket keeps counting via its stamp")
}

func TestStatistics_EmptyStore(t *testing.T) {
	f := newFixture()
	stats := f.store.Statistics()
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, time.Duration(0), stats.AverageResolutionTime)
	assert.Len(t, stats.ByStatus, 5)
}

func TestUpdatedAtNeverBeforeCreatedAt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ticket := f.create(t, nil)

	f.clock.Advance(time.Minute)
	_, _, err := f.store.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.store.AddComment(ctx, ticket.ID, CommentDraft{Author: "bob", Body: "note"})
	require.NoError(t, err)

	for _, t2 := range f.store.ListAll() {
		assert.False(t, t2.UpdatedAt.Before(t2.CreatedAt))
	}
}

func TestNotifications_ExactlyOncePerMutatingCall(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var received []events.EventType
	f.notifier.Subscribe(func(ctx context.Context, e events.Event) error {
		received = append(received, e.Type)
		return nil
	})

	ticket, err := f.store.Create(ctx, f.draft())
	require.NoError(t, err)

	title := "Retitled"
	_, err = f.store.Update(ctx, ticket.ID, TicketPatch{Title: &title})
	require.NoError(t, err)

	_, allowed, err := f.store.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	require.True(t, allowed)

	// rejected transition and read-only calls must not notify
	_, allowed, err = f.store.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	require.False(t, allowed)
	f.store.ListAll()
	f.store.Statistics()
	f.store.Search("retitled")

	_, err = f.store.AddComment(ctx, ticket.ID, CommentDraft{Author: "bob", Body: "done"})
	require.NoError(t, err)

	require.True(t, f.store.Delete(ctx, ticket.ID))
	assert.False(t, f.store.Delete(ctx, ticket.ID), "failed delete must not notify")

	assert.Equal(t, []events.EventType{
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketStatusChanged,
		events.EventTicketCommentAdded,
		events.EventTicketDeleted,
	}, received)
}

func TestNotification_SubscriberSeesAppliedState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var observedStatus domain.TicketStatus
	f.notifier.Subscribe(func(ctx context.Context, e events.Event) error {
		if e.Type == events.EventTicketStatusChanged {
			ticket, err := f.store.GetByID(e.TicketID)
			require.NoError(t, err)
			observedStatus = ticket.Status
		}
		return nil
	})

	ticket := f.create(t, nil)
	_, _, err := f.store.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, observedStatus)
}

func TestEmptyPatchIsNoOp(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	notifications := 0
	f.notifier.Subscribe(func(ctx context.Context, e events.Event) error {
		notifications++
		return nil
	})

	ticket := f.create(t, nil)
	f.clock.Advance(time.Hour)
	updated, err := f.store.Update(ctx, ticket.ID, TicketPatch{})
	require.NoError(t, err)
	assert.Equal(t, ticket.UpdatedAt, updated.UpdatedAt, "no-op must not stamp UpdatedAt")
	assert.Equal(t, 1, notifications, "only the create notified")
}

func TestReturnedTicketsAreCopies(t *testing.T) {
	f := newFixture()
	ticket := f.create(t, nil)

	got, err := f.store.GetByID(ticket.ID)
	require.NoError(t, err)
	got.Title = "mutated by caller"
	got.Comments = append(got.Comments, domain.Comment{ID: "rogue"})

	fresh, err := f.store.GetByID(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Printer on fire", fresh.Title)
	assert.Empty(t, fresh.Comments)
}

func TestPersistence_RoundTripThroughRestore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ticket := f.create(t, nil)
	_, _, err := f.store.ChangeStatus(ctx, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, _, err = f.store.ChangeStatus(ctx, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	_, err = f.store.AddComment(ctx, ticket.ID, CommentDraft{Author: "bob", Body: "fixed", Internal: true})
	require.NoError(t, err)

	// a second store seeded from the same session must be equal
	reloaded := New(Dependencies{Session: f.session, Clock: f.clock.Now})
	require.Equal(t, 1, reloaded.Restore(ctx))

	want, err := f.store.GetByID(ticket.ID)
	require.NoError(t, err)
	got, err := reloaded.GetByID(ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPersistenceFailure_NeverSurfacesToCaller(t *testing.T) {
	clock := newStepClock()
	s := New(Dependencies{
		Session: failingSessionStore{},
		Clock:   clock.Now,
	})
	ticket, err := s.Create(context.Background(), TicketDraft{
		Title:       "still works",
		Description: "in-memory state stays authoritative",
		Category:    domain.CategoryOther,
		Author:      "alice",
	})
	require.NoError(t, err)
	assert.Len(t, s.ListAll(), 1)
	assert.True(t, s.Delete(context.Background(), ticket.ID))
}

// failingSessionStore drops every write and never finds a key.
type failingSessionStore struct{}

func (failingSessionStore) Save(ctx context.Context, key string, value any)    {}
func (failingSessionStore) Load(ctx context.Context, key string, out any) bool { return false }
func (failingSessionStore) Clear(ctx context.Context)                          {}
