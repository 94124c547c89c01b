// Package messages defines Bubbletea message types for the progress view.
package messages

import (
	"github.com/campusgpt/harvester/internal/core/domain"
	"github.com/campusgpt/harvester/internal/core/ports/driving"
)

// StatusesPolled carries a fresh snapshot of every job's progress.
type StatusesPolled struct {
	Statuses []driving.JobStatus
}

// HarvestDone is sent when the harvest call returns.
type HarvestDone struct {
	Summary *domain.RunSummary
	Err     error
}
