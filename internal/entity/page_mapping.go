package entity

import "time"

// PageMapping ties spoken navigation phrases to a dashboard route. The set of
// legal pages differs per operating context.
type PageMapping struct {
	PageID      string           `json:"page_id"`
	Path        string           `json:"path"`
	DisplayName string           `json:"display_name"`
	Keywords    []string         `json:"keywords"`
	Context     OperatingContext `json:"context"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
