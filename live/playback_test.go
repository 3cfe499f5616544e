package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

func monoBuffer(frames int) pcm.Buffer {
	return pcm.Buffer{SampleRate: 24000, Channels: [][]float32{make([]float32, frames)}}
}

func TestScheduleBackToBackIsGapless(t *testing.T) {
	t.Parallel()

	w := newWorld()
	out := &fakeOutput{w: w, rate: 24000}
	q := NewPlaybackQueue()

	var starts []time.Duration
	for _, frames := range []int{2400, 1200, 4800} {
		start, err := q.Schedule(out, monoBuffer(frames))
		require.NoError(t, err)
		starts = append(starts, start)
	}

	assert.Equal(t, []time.Duration{0, 100 * time.Millisecond, 150 * time.Millisecond}, starts)
	assert.Equal(t, 350*time.Millisecond, q.Cursor())
	assert.Equal(t, 3, q.Len())
}

func TestScheduleDelayedChunkStartsNow(t *testing.T) {
	t.Parallel()

	w := newWorld()
	out := &fakeOutput{w: w, rate: 24000}
	q := NewPlaybackQueue()

	_, err := q.Schedule(out, monoBuffer(2400))
	require.NoError(t, err)

	w.setClock(750 * time.Millisecond)
	start, err := q.Schedule(out, monoBuffer(2400))
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, start)
	assert.Equal(t, 850*time.Millisecond, q.Cursor())
}

func TestCompletionRemovesVoice(t *testing.T) {
	t.Parallel()

	w := newWorld()
	out := &fakeOutput{w: w, rate: 24000}
	q := NewPlaybackQueue()

	_, err := q.Schedule(out, monoBuffer(240))
	require.NoError(t, err)
	_, err = q.Schedule(out, monoBuffer(240))
	require.NoError(t, err)

	w.voices[0].finish()
	assert.Equal(t, 1, q.Len())
	w.voices[0].finish()
	assert.Equal(t, 1, q.Len(), "completion fires once")
}

func TestDrainStopsSnapshotWithSynchronousCallbacks(t *testing.T) {
	t.Parallel()

	w := newWorld()
	out := &fakeOutput{w: w, rate: 24000}
	q := NewPlaybackQueue()
	for range 5 {
		_, err := q.Schedule(out, monoBuffer(240))
		require.NoError(t, err)
	}

	done := make(chan int, 1)
	go func() { done <- q.DrainAndStopAll() }()
	select {
	case n := <-done:
		assert.Equal(t, 5, n)
	case <-time.After(time.Second):
		t.Fatal("drain deadlocked")
	}

	assert.Zero(t, q.Len())
	for _, v := range w.voices {
		assert.True(t, v.stopped)
	}
	assert.Zero(t, q.DrainAndStopAll())
}

func TestAddAndRemoveByHandle(t *testing.T) {
	t.Parallel()

	q := NewPlaybackQueue()
	v := &fakeVoice{onEnded: func() {}}
	q.Add(Handle(42), v)
	q.Add(Handle(42), v)
	assert.Equal(t, 1, q.Len())

	q.RemoveByHandle(Handle(7))
	assert.Equal(t, 1, q.Len())
	q.RemoveByHandle(Handle(42))
	assert.Zero(t, q.Len())
}

func TestFlushRewindsCursor(t *testing.T) {
	t.Parallel()

	w := newWorld()
	out := &fakeOutput{w: w, rate: 24000}
	q := NewPlaybackQueue()
	_, err := q.Schedule(out, monoBuffer(24000))
	require.NoError(t, err)

	assert.Equal(t, 1, q.Flush())
	assert.Zero(t, q.Cursor())

	w.setClock(300 * time.Millisecond)
	start, err := q.Schedule(out, monoBuffer(240))
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, start)
}
