package device

import (
	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
)

// Factory creates device contexts whose output renders into one sink.
type Factory struct {
	sink Sink
	opts []OutputOption
}

var _ live.Devices = (*Factory)(nil)

func NewFactory(sink Sink, opts ...OutputOption) *Factory {
	return &Factory{sink: sink, opts: opts}
}

func (f *Factory) CreateInputContext(sampleRate int) (live.InputContext, error) {
	return NewInput(sampleRate), nil
}

// CreateOutputContext returns a running output context.
func (f *Factory) CreateOutputContext(sampleRate int) (live.OutputContext, error) {
	o := NewOutput(sampleRate, f.sink, f.opts...)
	o.Start()
	return o, nil
}
