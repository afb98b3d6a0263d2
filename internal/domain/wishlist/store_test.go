package wishlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	snapshots [][]string
}

func (w *recordingWriter) Schedule(productIDs []string) {
	w.snapshots = append(w.snapshots, productIDs)
}

func TestStore_AddRemove(t *testing.T) {
	s := NewStore()

	s.Add("p1")
	s.Add("p2")
	s.Add("p1")

	assert.Equal(t, []string{"p1", "p2"}, s.Items())
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Contains("p1"))
	assert.False(t, s.Contains("p9"))

	s.Remove("p1")
	assert.Equal(t, []string{"p2"}, s.Items())
	assert.False(t, s.Contains("p1"))

	// Removing an absent product changes nothing.
	s.Remove("p1")
	assert.Equal(t, 1, s.Count())
}

func TestStore_DuplicateAddSchedulesNoWrite(t *testing.T) {
	w := &recordingWriter{}
	s := NewStore(WithSnapshotWriter(w))

	s.Add("p1")
	s.Add("p1")

	require.Len(t, w.snapshots, 1)
	assert.Equal(t, []string{"p1"}, w.snapshots[0])
}

func TestStore_Replace(t *testing.T) {
	w := &recordingWriter{}
	s := NewStore(WithSnapshotWriter(w))
	s.Add("old")

	s.Replace([]string{"p1", "p2", "p1", "p3"})

	assert.Equal(t, []string{"p1", "p2", "p3"}, s.Items())
	assert.False(t, s.Contains("old"))

	// Only the initial Add wrote; restore must not re-persist.
	assert.Len(t, w.snapshots, 1)
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()

	calls := 0
	cancel := s.Subscribe(func() { calls++ })

	s.Add("p1")
	s.Add("p1") // no-op, no notification
	s.Remove("p1")
	assert.Equal(t, 2, calls)

	cancel()
	s.Add("p2")
	assert.Equal(t, 2, calls)
}
