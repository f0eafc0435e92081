package domain

// Display metadata for the fixed enumerations. The labels and colors are
// domain data consumed by any presentation surface; the set is closed.

var categoryLabels = map[TicketCategory]string{
	CategoryTechnical: "Technical",
	CategoryBilling:   "Billing",
	CategoryAccount:   "Account",
	CategoryFeature:   "Feature Request",
	CategoryBug:       "Bug Report",
	CategoryOther:     "Other",
}

var categoryColors = map[TicketCategory]string{
	CategoryTechnical: "#3b82f6",
	CategoryBilling:   "#f59e0b",
	CategoryAccount:   "#8b5cf6",
	CategoryFeature:   "#10b981",
	CategoryBug:       "#ef4444",
	CategoryOther:     "#6b7280",
}

var priorityLabels = map[TicketPriority]string{
	TicketPriorityLow:    "Low",
	TicketPriorityMedium: "Medium",
	TicketPriorityHigh:   "High",
	TicketPriorityUrgent: "Urgent",
}

var statusLabels = map[TicketStatus]string{
	TicketStatusOpen:       "Open",
	TicketStatusInProgress: "In Progress",
	TicketStatusWaiting:    "Waiting",
	TicketStatusResolved:   "Resolved",
	TicketStatusClosed:     "Closed",
}

// Label returns the display label for the category.
func (c TicketCategory) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Color returns the presentation color for the category.
func (c TicketCategory) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryOther]
}

// Label returns the display label for the priority.
func (p TicketPriority) Label() string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return string(p)
}

// Label returns the display label for the status.
func (s TicketStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}
