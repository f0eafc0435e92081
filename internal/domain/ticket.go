package domain

import "time"

// TicketStatus enumerates workflow states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusWaiting    TicketStatus = "WAITING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency, ordered low to urgent.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// TicketCategory enumerates the fixed request categories.
type TicketCategory string

const (
	CategoryTechnical TicketCategory = "TECHNICAL"
	CategoryBilling   TicketCategory = "BILLING"
	CategoryAccount   TicketCategory = "ACCOUNT"
	CategoryFeature   TicketCategory = "FEATURE"
	CategoryBug       TicketCategory = "BUG"
	CategoryOther     TicketCategory = "OTHER"
)

// Ticket is the aggregate for support requests. Comments are owned by the
// ticket and are removed with it.
type Ticket struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    TicketCategory `json:"category"`
	Priority    TicketPriority `json:"priority"`
	Status      TicketStatus   `json:"status"`
	Author      string         `json:"author"`
	Assignee    *string        `json:"assignee,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	Comments    []Comment      `json:"comments"`
}

// AllStatuses lists every status in workflow order.
func AllStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusOpen,
		TicketStatusInProgress,
		TicketStatusWaiting,
		TicketStatusResolved,
		TicketStatusClosed,
	}
}

// AllPriorities lists every priority ordered by severity.
func AllPriorities() []TicketPriority {
	return []TicketPriority{
		TicketPriorityLow,
		TicketPriorityMedium,
		TicketPriorityHigh,
		TicketPriorityUrgent,
	}
}

// AllCategories lists every category.
func AllCategories() []TicketCategory {
	return []TicketCategory{
		CategoryTechnical,
		CategoryBilling,
		CategoryAccount,
		CategoryFeature,
		CategoryBug,
		CategoryOther,
	}
}

// SeverityRank maps a priority to its position in the severity order,
// starting at 0 for LOW. Unknown priorities rank below LOW.
func (p TicketPriority) SeverityRank() int {
	switch p {
	case TicketPriorityLow:
		return 0
	case TicketPriorityMedium:
		return 1
	case TicketPriorityHigh:
		return 2
	case TicketPriorityUrgent:
		return 3
	default:
		return -1
	}
}

// Valid reports whether the status is a member of the closed set.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusWaiting,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Valid reports whether the priority is a member of the closed set.
func (p TicketPriority) Valid() bool {
	return p.SeverityRank() >= 0
}

// Valid reports whether the category is a member of the closed set.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryBilling, CategoryAccount,
		CategoryFeature, CategoryBug, CategoryOther:
		return true
	}
	return false
}

// allowedTransitions defines the directed workflow graph. Self-transitions
// and any pair not listed here are illegal.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusWaiting, TicketStatusResolved, TicketStatusClosed},
	TicketStatusWaiting:    {TicketStatusInProgress, TicketStatusClosed},
	TicketStatusResolved:   {TicketStatusClosed, TicketStatusOpen},
	TicketStatusClosed:     {TicketStatusOpen},
}

// CanTransition reports whether moving a ticket from current to next is a
// legal workflow edge.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TransitionsFrom returns the legal target statuses from the given status.
func TransitionsFrom(current TicketStatus) []TicketStatus {
	targets := allowedTransitions[current]
	out := make([]TicketStatus, len(targets))
	copy(out, targets)
	return out
}
