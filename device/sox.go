package device

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
	"github.com/MariyaAnjum937/AI-travel-itenarary/pcm"
)

const soxBinary = "sox"

func rawArgs(rate int) []string {
	return []string{"-t", "raw", "-r", strconv.Itoa(rate), "-b", "16", "-c", "1", "-e", "signed-integer", "-L"}
}

// SoxMicrophone captures the default sound card through sox.
type SoxMicrophone struct {
	Rate   int
	Logger *zap.Logger
}

var _ live.Microphone = (*SoxMicrophone)(nil)

// RequestAudioInput starts a sox recorder. Failing to start it is reported
// as a permission error since the device cannot be opened.
func (m *SoxMicrophone) RequestAudioInput(_ context.Context) (live.AudioStream, error) {
	rate := m.Rate
	if rate <= 0 {
		rate = live.DefaultCaptureRate
	}
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	args := append([]string{"-q", "-d"}, rawArgs(rate)...)
	cmd := exec.Command(soxBinary, append(args, "-")...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", live.ErrPermission, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start sox: %w", live.ErrPermission, err)
	}

	var once sync.Once
	stream := NewStream(rate, func() {
		once.Do(func() {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
		})
	})

	go func() {
		buf := make([]byte, 2048)
		for {
			n, err := io.ReadFull(stdout, buf)
			if n > 1 {
				samples, decodeErr := pcm.DecodeFloat32(buf[:n&^1])
				if decodeErr == nil {
					stream.Push(samples)
				}
			}
			if err != nil {
				if !stream.Stopped() {
					logger.Warn("microphone stream ended", zap.Error(err))
				}
				return
			}
		}
	}()
	return stream, nil
}

// SoxSpeaker plays PCM on the default sound card through sox.
type SoxSpeaker struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	mu     sync.Mutex
	closed bool
}

// NewSoxSpeaker starts a sox player for mono audio at rate.
func NewSoxSpeaker(rate int) (*SoxSpeaker, error) {
	args := append([]string{"-q"}, rawArgs(rate)...)
	cmd := exec.Command(soxBinary, append(args, "-", "-d")...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("sox stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start sox: %w", err)
	}
	return &SoxSpeaker{cmd: cmd, stdin: stdin}, nil
}

// Sink writes a rendered frame. Use it with WithSilence so the sound card
// receives a continuous signal.
func (p *SoxSpeaker) Sink(frame []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	_, _ = p.stdin.Write(pcm.EncodeFloat32(frame))
}

func (p *SoxSpeaker) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	_ = p.stdin.Close()
	return p.cmd.Wait()
}
