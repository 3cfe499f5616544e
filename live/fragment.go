package live

import (
	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/metrics"
	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

// onMessage applies one inbound fragment: barge-in, transcript deltas,
// audio playback, then the turn boundary.
func (c *Controller) onMessage(a *attempt, f Fragment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != a {
		return
	}

	if f.Interrupted {
		if n := a.res.playback.Flush(); n > 0 {
			c.logger.Debug("playback interrupted", zap.Uint64("attempt", a.id), zap.Int("voices", n))
		}
		metrics.InterruptionsTotal.Inc()
	}

	if f.InputText != "" {
		c.observer.TurnUpdated(c.transcript.AppendUser(f.InputText))
	}
	if f.OutputText != "" {
		c.observer.TurnUpdated(c.transcript.AppendModel(f.OutputText))
	}

	for _, payload := range f.Audio {
		c.play(a, payload)
	}

	if f.TurnComplete {
		turn := c.transcript.CompleteTurn()
		metrics.TurnsCompletedTotal.Inc()
		c.observer.TurnCompleted(turn)
	}
}

// play decodes one payload and schedules it. A payload that fails to decode
// is dropped; the session continues.
func (c *Controller) play(a *attempt, payload []byte) {
	out := a.res.outputContext()
	if out == nil {
		return
	}
	buf, err := pcm.Decode(payload, c.cfg.PlaybackRate, c.cfg.PlaybackChannels)
	if err != nil {
		metrics.DecodeErrorsTotal.Inc()
		c.logger.Warn("dropping undecodable audio",
			zap.Uint64("attempt", a.id),
			zap.Int("bytes", len(payload)),
			zap.Error(classify(ErrDecode, err)),
		)
		return
	}
	if _, err := a.res.playback.Schedule(out, buf); err != nil {
		c.logger.Warn("playback not scheduled", zap.Uint64("attempt", a.id), zap.Error(err))
	}
}
