// Package pcm converts between the float sample domain used by audio devices
// and the 16-bit little-endian PCM carried on the wire.
package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// MaxSample is the saturation bound applied when scaling float samples.
const MaxSample = 32767

var (
	ErrEmpty       = errors.New("pcm: empty payload")
	ErrOddLength   = errors.New("pcm: odd byte count")
	ErrFrameLength = errors.New("pcm: sample count not divisible by channel count")
)

// Buffer is a decoded, playable block of audio. Channels holds one slice of
// samples per channel; all channels have the same length.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the number of sample frames in the buffer.
func (b Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration is the playback length of the buffer at its sample rate.
func (b Buffer) Duration() time.Duration {
	return FramesToDuration(b.Frames(), b.SampleRate)
}

// FramesToDuration converts a frame count at rate into a duration.
func FramesToDuration(frames, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(rate)
}

// DurationToFrames converts d into a frame position at rate, rounding to the
// nearest frame.
func DurationToFrames(d time.Duration, rate int) int64 {
	if rate <= 0 {
		return 0
	}
	return (int64(d)*int64(rate) + int64(time.Second)/2) / int64(time.Second)
}

// FloatToInt16 scales a float sample into the int16 domain, saturating at
// ±MaxSample.
func FloatToInt16(s float32) int16 {
	if s != s { // NaN
		return 0
	}
	v := float64(s) * 32768
	if v > MaxSample {
		return MaxSample
	}
	if v < -MaxSample {
		return -MaxSample
	}
	return int16(v)
}

// Int16ToFloat maps an int16 sample onto [-1, 1).
func Int16ToFloat(s int16) float32 {
	return float32(s) / 32768.0
}

// EncodeFloat32 scales samples to int16 and packs them little-endian.
func EncodeFloat32(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(FloatToInt16(s)))
	}
	return out
}

// EncodeInt16 packs samples little-endian.
func EncodeInt16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// DecodeInt16 unpacks little-endian int16 samples. A trailing odd byte is
// reported as ErrOddLength.
func DecodeInt16(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddLength, len(data))
	}
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out, nil
}

// DecodeFloat32 unpacks little-endian PCM16 into float samples.
func DecodeFloat32(data []byte) ([]float32, error) {
	samples, err := DecodeInt16(data)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = Int16ToFloat(s)
	}
	return out, nil
}

// Decode turns an interleaved PCM16 payload into a Buffer at rate with the
// given channel count. Sample i belongs to channel i%channels.
func Decode(data []byte, rate, channels int) (Buffer, error) {
	if len(data) == 0 {
		return Buffer{}, ErrEmpty
	}
	if channels < 1 {
		channels = 1
	}
	samples, err := DecodeInt16(data)
	if err != nil {
		return Buffer{}, err
	}
	if len(samples)%channels != 0 {
		return Buffer{}, fmt.Errorf("%w: %d samples, %d channels", ErrFrameLength, len(samples), channels)
	}

	frames := len(samples) / channels
	buf := Buffer{SampleRate: rate, Channels: make([][]float32, channels)}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float32, frames)
	}
	for i, s := range samples {
		buf.Channels[i%channels][i/channels] = Int16ToFloat(s)
	}
	return buf, nil
}

// Mono mixes the buffer down to a single channel by averaging.
func (b Buffer) Mono() []float32 {
	switch len(b.Channels) {
	case 0:
		return nil
	case 1:
		return b.Channels[0]
	}
	out := make([]float32, b.Frames())
	scale := 1 / float32(len(b.Channels))
	for _, ch := range b.Channels {
		for i, s := range ch {
			out[i] += s * scale
		}
	}
	return out
}

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float32 {
	var peak float64
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	return float32(peak)
}
