package store

import (
	"time"

	"github.com/spec-kit/helpdesk-tracker/internal/domain"
)

// Statistics is an aggregation snapshot over the current collection. The
// per-enum maps always carry every key, zero-filled.
type Statistics struct {
	Total                 int                           `json:"total"`
	ByStatus              map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority            map[domain.TicketPriority]int `json:"by_priority"`
	ByCategory            map[domain.TicketCategory]int `json:"by_category"`
	AverageResolutionTime time.Duration                 `json:"average_resolution_time"`
}

// Statistics recomputes the snapshot on demand; nothing is cached. A ticket
// counts toward the resolution average whenever it carries a ResolvedAt
// stamp, regardless of its current status.
func (s *TicketStore) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{
		ByStatus:   make(map[domain.TicketStatus]int, 5),
		ByPriority: make(map[domain.TicketPriority]int, 4),
		ByCategory: make(map[domain.TicketCategory]int, 6),
	}
	for _, status := range domain.AllStatuses() {
		stats.ByStatus[status] = 0
	}
	for _, priority := range domain.AllPriorities() {
		stats.ByPriority[priority] = 0
	}
	for _, category := range domain.AllCategories() {
		stats.ByCategory[category] = 0
	}

	var resolvedTotal time.Duration
	var resolvedCount int
	for _, ticket := range s.tickets {
		stats.Total++
		stats.ByStatus[ticket.Status]++
		stats.ByPriority[ticket.Priority]++
		stats.ByCategory[ticket.Category]++
		if ticket.ResolvedAt != nil {
			resolvedTotal += ticket.ResolvedAt.Sub(ticket.CreatedAt)
			resolvedCount++
		}
	}
	if resolvedCount > 0 {
		stats.AverageResolutionTime = resolvedTotal / time.Duration(resolvedCount)
	}
	return stats
}
