package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-tracker/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	Author      string                `json:"author"`
	Assignee    *string               `json:"assignee"`
}

// UpdateTicketRequest carries the partial edit form; absent fields are left
// untouched.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Category    *domain.TicketCategory `json:"category"`
	Priority    *domain.TicketPriority `json:"priority"`
	Status      *domain.TicketStatus   `json:"status"`
	Author      *string                `json:"author"`
	Assignee    *string                `json:"assignee"`
}

// ChangeStatusRequest payload for the guarded transition path.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Author   string `json:"author"`
	Body     string `json:"body"`
	Internal bool   `json:"internal"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Category      domain.TicketCategory `json:"category"`
	CategoryLabel string                `json:"category_label"`
	CategoryColor string                `json:"category_color"`
	Priority      domain.TicketPriority `json:"priority"`
	Status        domain.TicketStatus   `json:"status"`
	Author        string                `json:"author"`
	Assignee      *string               `json:"assignee"`
	CommentCount  int                   `json:"comment_count"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Category      domain.TicketCategory `json:"category"`
	CategoryLabel string                `json:"category_label"`
	CategoryColor string                `json:"category_color"`
	Priority      domain.TicketPriority `json:"priority"`
	Status        domain.TicketStatus   `json:"status"`
	Transitions   []domain.TicketStatus `json:"transitions"`
	Author        string                `json:"author"`
	Assignee      *string               `json:"assignee"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ResolvedAt    *time.Time            `json:"resolved_at"`
	Comments      []CommentResponse     `json:"comments"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// StatisticsResponse is the dashboard aggregation snapshot.
type StatisticsResponse struct {
	Total               int                           `json:"total"`
	ByStatus            map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority          map[domain.TicketPriority]int `json:"by_priority"`
	ByCategory          map[domain.TicketCategory]int `json:"by_category"`
	AverageResolutionMS int64                         `json:"average_resolution_ms"`
}

// ThemeResponse carries the dark-mode preference.
type ThemeResponse struct {
	DarkMode bool `json:"dark_mode"`
}

// ThemeRequest payload.
type ThemeRequest struct {
	DarkMode bool `json:"dark_mode"`
}
