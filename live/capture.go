package live

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/metrics"
	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

// wireCapture connects the microphone stream to a block processor feeding
// the channel. Called with c.mu held once the channel is open.
func (c *Controller) wireCapture(a *attempt) error {
	stream, input, ok := a.res.captureInputs()
	if !ok {
		return fmt.Errorf("%w: capture resources released", ErrConnection)
	}

	source, err := input.NewSource(stream)
	if err != nil {
		return fmt.Errorf("connect microphone: %w", err)
	}
	processor, err := input.NewProcessor(source, c.cfg.BlockSize, func(block []float32) {
		c.captureBlock(a, block)
	})
	if err != nil {
		source.Disconnect()
		return fmt.Errorf("install capture processor: %w", err)
	}
	if !a.res.holdCapture(source, processor) {
		return ErrStopped
	}
	return nil
}

// sendHandle returns the channel to send capture frames on, or nil when the
// attempt is not connected.
func (c *Controller) sendHandle(a *attempt) Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != a || c.status != StatusConnected {
		return nil
	}
	return a.res.sendHandle()
}

// captureBlock converts one block to PCM16 and sends it. Frames produced
// while the channel is not ready are dropped. Send failures are only
// logged; a broken channel reports itself through its error callback.
func (c *Controller) captureBlock(a *attempt, block []float32) {
	ch := c.sendHandle(a)
	if ch == nil {
		metrics.FramesDroppedTotal.Inc()
		return
	}
	if err := ch.Send(pcm.EncodeFloat32(block)); err != nil {
		c.logger.Debug("capture frame not sent", zap.Uint64("attempt", a.id), zap.Error(err))
		return
	}
	metrics.FramesSentTotal.Inc()
}
