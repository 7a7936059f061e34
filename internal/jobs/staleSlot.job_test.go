package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetops/internal/events"
	"fleetops/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSlotCounter implements only the read side of the schedule repository;
// the sweep must never need anything else.
type fakeSlotCounter struct {
	repositories.ScheduleRepository

	count int64
	err   error
}

func (r *fakeSlotCounter) CountFreeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.count, r.err
}

type stubNotifier struct {
	broadcasts []events.MessageType
	data       []map[string]any
}

func (n *stubNotifier) NotifyUser(userID uuid.UUID, msgType events.MessageType, data map[string]any) error {
	return nil
}

func (n *stubNotifier) NotifyAll(msgType events.MessageType, data map[string]any) error {
	n.broadcasts = append(n.broadcasts, msgType)
	n.data = append(n.data, data)
	return nil
}

func TestStaleSlotJob(t *testing.T) {
	t.Run("stale slots trigger one broadcast with the count", func(t *testing.T) {
		notifier := &stubNotifier{}
		job := NewStaleSlotJob(&fakeSlotCounter{count: 4}, notifier)

		err := job.Execute(context.Background())
		require.NoError(t, err)

		require.Len(t, notifier.broadcasts, 1)
		assert.Equal(t, events.SLOTS_RECLAIMABLE, notifier.broadcasts[0])
		assert.Equal(t, int64(4), notifier.data[0]["count"])
	})

	t.Run("nothing stale stays silent", func(t *testing.T) {
		notifier := &stubNotifier{}
		job := NewStaleSlotJob(&fakeSlotCounter{count: 0}, notifier)

		err := job.Execute(context.Background())
		require.NoError(t, err)
		assert.Empty(t, notifier.broadcasts)
	})

	t.Run("count failure surfaces", func(t *testing.T) {
		notifier := &stubNotifier{}
		countErr := errors.New("connection reset")
		job := NewStaleSlotJob(&fakeSlotCounter{err: countErr}, notifier)

		err := job.Execute(context.Background())
		require.Error(t, err)
		assert.Empty(t, notifier.broadcasts)
	})
}
