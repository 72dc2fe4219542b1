package types

import "time"

// HarvestStatus is the state of a harvest session
type HarvestStatus string

const (
	HarvestStatusIdle    HarvestStatus = "idle"
	HarvestStatusLoading HarvestStatus = "loading"
	HarvestStatusSuccess HarvestStatus = "success"
	HarvestStatusError   HarvestStatus = "error"
)

// CanTransition reports whether the state machine allows moving from s to next
func (s HarvestStatus) CanTransition(next HarvestStatus) bool {
	switch s {
	case HarvestStatusIdle:
		return next == HarvestStatusLoading
	case HarvestStatusLoading:
		return next == HarvestStatusSuccess || next == HarvestStatusError
	case HarvestStatusSuccess, HarvestStatusError:
		return next == HarvestStatusIdle
	}
	return false
}

// Packaging is how a finished harvest is offered to the user
type Packaging string

const (
	PackagingList    Packaging = "list"
	PackagingArchive Packaging = "archive"
)

// HarvestSession tracks one harvest from submission to reset
type HarvestSession struct {
	ID           string           `json:"id"`
	Status       HarvestStatus    `json:"status"`
	Criteria     SearchCriteria   `json:"criteria"`
	Result       *HarvesterResult `json:"result,omitempty"`
	TotalSize    float64          `json:"totalSize"` // estimated decoded bytes
	Packaging    Packaging        `json:"packaging,omitempty"`
	Progress     int              `json:"progress"`
	ProgressText string           `json:"progressText"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	StartedAt    *time.Time       `json:"startedAt,omitempty"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
}
