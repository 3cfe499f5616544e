package live

import (
	"fmt"
	"sync"
	"time"

	"github.com/MariyaAnjum937/AI-travel-itenarary/metrics"
	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

// Handle identifies a voice in a PlaybackQueue.
type Handle uint64

// PlaybackQueue schedules decoded chunks back to back on an output context
// and tracks the voices that have not finished yet.
//
// Each chunk starts at max(cursor, now) and the cursor advances by the
// chunk's duration as soon as it is scheduled, so chunks arriving faster than
// real time play gaplessly and a late chunk starts immediately.
type PlaybackQueue struct {
	mu     sync.Mutex
	cursor time.Duration
	active map[Handle]Voice
	next   Handle
}

func NewPlaybackQueue() *PlaybackQueue {
	return &PlaybackQueue{active: make(map[Handle]Voice)}
}

// Schedule plays buf on out and returns its start time.
func (q *PlaybackQueue) Schedule(out OutputContext, buf pcm.Buffer) (time.Duration, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	start := max(q.cursor, out.Now())
	q.next++
	h := q.next
	voice, err := out.Play(buf, start, func() { q.RemoveByHandle(h) })
	if err != nil {
		return 0, fmt.Errorf("schedule playback: %w", err)
	}
	q.addLocked(h, voice)
	q.cursor = start + buf.Duration()
	metrics.ChunksScheduledTotal.Inc()
	return start, nil
}

// Add tracks v under h.
func (q *PlaybackQueue) Add(h Handle, v Voice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.addLocked(h, v)
}

func (q *PlaybackQueue) addLocked(h Handle, v Voice) {
	if _, ok := q.active[h]; !ok {
		metrics.ActivePlaybackVoices.Inc()
	}
	q.active[h] = v
}

// RemoveByHandle forgets the voice for h. Unknown handles are ignored.
func (q *PlaybackQueue) RemoveByHandle(h Handle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.active[h]; ok {
		delete(q.active, h)
		metrics.ActivePlaybackVoices.Dec()
	}
}

// DrainAndStopAll stops every tracked voice and empties the set. Voices are
// stopped from a snapshot after the lock is released, so completion
// callbacks that fire synchronously from Stop are safe. It returns the number
// of voices stopped.
func (q *PlaybackQueue) DrainAndStopAll() int {
	q.mu.Lock()
	snapshot := make([]Voice, 0, len(q.active))
	for _, v := range q.active {
		snapshot = append(snapshot, v)
	}
	clear(q.active)
	metrics.ActivePlaybackVoices.Sub(float64(len(snapshot)))
	q.mu.Unlock()

	for _, v := range snapshot {
		v.Stop()
	}
	return len(snapshot)
}

// Flush stops everything and rewinds the cursor so the next chunk starts at
// the current clock time.
func (q *PlaybackQueue) Flush() int {
	n := q.DrainAndStopAll()
	q.mu.Lock()
	q.cursor = 0
	q.mu.Unlock()
	return n
}

// Len is the number of voices still tracked.
func (q *PlaybackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.active)
}

// Cursor is the earliest time the next chunk may start.
func (q *PlaybackQueue) Cursor() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cursor
}
