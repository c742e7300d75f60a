package bulkops

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemStatusOnlyMovesForward(t *testing.T) {
	item := NewItem(1, "AAA")

	item.complete(5)
	assert.Equal(t, StatusPending, item.Status, "pending items cannot complete directly")

	require.NoError(t, item.markInProgress())
	item.complete(5)
	assert.Equal(t, StatusCompleted, item.Status)

	item.fail(errors.New("late"), 500)
	assert.Equal(t, StatusCompleted, item.Status, "completed items cannot fail")
	assert.Error(t, item.markInProgress())
}

func TestSummarize(t *testing.T) {
	items := newItems("A", "B", "C", "D")
	items[0].Status = StatusCompleted
	items[1].Status = StatusFailed
	items[2].Status = StatusCompleted

	summary := Summarize(items)

	assert.Equal(t, 3, summary.TotalProcessed)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 1, summary.ErrorCount)
}

func TestItemStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "failed", StatusFailed.String())
}
