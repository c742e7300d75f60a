// bulkops/item.go
package bulkops

import (
	"errors"

	"github.com/google/uuid"
)

// ItemStatus is the lifecycle position of a batch item. It only moves forward:
// Pending -> InProgress -> Completed | Failed.
type ItemStatus int

const (
	StatusPending ItemStatus = iota
	StatusInProgress
	StatusCompleted
	StatusFailed
)

func (s ItemStatus) String() string {
	switch s {
	case StatusInProgress:
		return "in progress"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// DeviceBatchItem is one device to act on in a bulk run.
type DeviceBatchItem struct {
	ID           int
	SerialNumber string
	DisplayName  string
	Notes        string

	Status         ItemStatus
	JamfComputerID *int
	ErrorMessage   string
	// StatusCode is the HTTP status of the failing call, 0 when none was received.
	StatusCode int
	// Err is the typed failure reason.
	Err error
}

// NewItem creates a pending item.
func NewItem(id int, serialNumber string) *DeviceBatchItem {
	return &DeviceBatchItem{ID: id, SerialNumber: serialNumber}
}

var errInvalidTransition = errors.New("invalid item status transition")

func (i *DeviceBatchItem) markInProgress() error {
	if i.Status != StatusPending {
		return errInvalidTransition
	}
	i.Status = StatusInProgress
	return nil
}

func (i *DeviceBatchItem) complete(computerID int) {
	if i.Status != StatusInProgress {
		return
	}
	i.Status = StatusCompleted
	i.JamfComputerID = &computerID
	i.ErrorMessage = ""
	i.StatusCode = 0
	i.Err = nil
}

func (i *DeviceBatchItem) fail(err error, statusCode int) {
	if i.Status != StatusInProgress {
		return
	}
	i.Status = StatusFailed
	i.Err = err
	i.ErrorMessage = err.Error()
	i.StatusCode = statusCode
}

// BatchRunSummary counts the outcome of a run.
type BatchRunSummary struct {
	RunID          uuid.UUID
	TotalProcessed int
	SuccessCount   int
	ErrorCount     int
	// Cancelled is set when the run context was cancelled before the run returned.
	Cancelled bool
}

// Summarize computes a summary from the final item statuses. Pending and in progress
// items are not counted as processed.
func Summarize(items []*DeviceBatchItem) BatchRunSummary {
	var s BatchRunSummary
	for _, item := range items {
		switch item.Status {
		case StatusCompleted:
			s.SuccessCount++
		case StatusFailed:
			s.ErrorCount++
		}
	}
	s.TotalProcessed = s.SuccessCount + s.ErrorCount
	return s
}
