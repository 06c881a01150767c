package models

import "time"

// Stats is a derived summary of the node collection. It is recomputed on
// every request and never stored.
type Stats struct {
	TotalNodes              int       `json:"totalNodes"`
	CompletedCount          int       `json:"completedCount"`
	InProgressCount         int       `json:"inProgressCount"`
	PendingCount            int       `json:"pendingCount"`
	CompletionPercentage    int       `json:"completionPercentage"`
	TotalEstimatedHours     float64   `json:"totalEstimatedHours"`
	CompletedEstimatedHours float64   `json:"completedEstimatedHours"`
	LastUpdatedAt           time.Time `json:"lastUpdatedAt,omitzero"`
	LastVisitedNodes        []Node    `json:"lastVisitedNodes"`
	CompletedToday          int       `json:"completedToday"`
}
