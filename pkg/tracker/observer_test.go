package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecordingObserver(band Band) (*LineObserver, chan []Entry) {
	batches := make(chan []Entry, 16)
	obs := NewLineObserver(band, func(entries []Entry) {
		batches <- entries
	})
	return obs, batches
}

func nextBatch(t *testing.T, batches chan []Entry) []Entry {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for observer delivery")
		return nil
	}
}

func assertNoBatch(t *testing.T, batches chan []Entry) {
	t.Helper()
	select {
	case b := <-batches:
		t.Fatalf("unexpected delivery: %+v", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLineObserver_InitialBatchInDocumentOrder(t *testing.T) {
	obs, batches := newRecordingObserver(Band{})
	defer obs.Disconnect()

	obs.Observe("c", 50)
	obs.Observe("a", 5)
	obs.Observe("b", 10)
	assertNoBatch(t, batches) // nothing is delivered before a viewport exists

	obs.Update(Viewport{Offset: 0, Height: 40})

	assert.Equal(t, []Entry{
		{ID: "a", Line: 5, Intersecting: true},
		{ID: "b", Line: 10, Intersecting: true},
		{ID: "c", Line: 50, Intersecting: false},
	}, nextBatch(t, batches))
}

func TestLineObserver_DeliversOnlyChanges(t *testing.T) {
	obs, batches := newRecordingObserver(Band{})
	defer obs.Disconnect()

	obs.Observe("a", 5)
	obs.Observe("b", 60)
	obs.Update(Viewport{Offset: 0, Height: 40})
	nextBatch(t, batches)

	obs.Update(Viewport{Offset: 1, Height: 40})
	assertNoBatch(t, batches)

	obs.Update(Viewport{Offset: 30, Height: 40})
	assert.Equal(t, []Entry{
		{ID: "a", Line: 5, Intersecting: false},
		{ID: "b", Line: 60, Intersecting: true},
	}, nextBatch(t, batches))
}

func TestLineObserver_ObserveAfterViewportDeliversInitialEntry(t *testing.T) {
	obs, batches := newRecordingObserver(Band{})
	defer obs.Disconnect()

	obs.Update(Viewport{Offset: 0, Height: 10})
	obs.Observe("late", 3)

	assert.Equal(t, []Entry{{ID: "late", Line: 3, Intersecting: true}}, nextBatch(t, batches))
}

func TestLineObserver_DuplicateObserveIsNoop(t *testing.T) {
	obs, batches := newRecordingObserver(Band{})
	defer obs.Disconnect()

	obs.Observe("a", 1)
	obs.Observe("a", 100)
	obs.Update(Viewport{Height: 10})

	assert.Equal(t, []Entry{{ID: "a", Line: 1, Intersecting: true}}, nextBatch(t, batches))
}

func TestLineObserver_Unobserve(t *testing.T) {
	obs, batches := newRecordingObserver(Band{})
	defer obs.Disconnect()

	obs.Observe("a", 1)
	obs.Observe("b", 2)
	obs.Unobserve("a")
	obs.Update(Viewport{Height: 10})

	assert.Equal(t, []Entry{{ID: "b", Line: 2, Intersecting: true}}, nextBatch(t, batches))
}

func TestLineObserver_DisconnectStopsDelivery(t *testing.T) {
	obs, batches := newRecordingObserver(Band{})
	obs.Observe("a", 1)

	obs.Disconnect()
	obs.Update(Viewport{Height: 10})
	obs.Observe("b", 2)
	assertNoBatch(t, batches)

	require.NotPanics(t, obs.Disconnect)
}
