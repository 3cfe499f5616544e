package messages

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MariyaAnjum937/AI-travel-itenarary/live"
)

func TestDecodeClientMessage(t *testing.T) {
	t.Parallel()

	msg, err := DecodeClientMessage([]byte(`{"type":"control","payload":{"action":"start"}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeControl, msg.Type)

	var ctl ControlPayload
	require.NoError(t, msg.DecodePayload(&ctl))
	assert.Equal(t, ActionStart, ctl.Action)

	msg, err = DecodeClientMessage([]byte(`{"type":"audio","payload":{"data":"AAE="}}`))
	require.NoError(t, err)
	var audio AudioPayload
	require.NoError(t, msg.DecodePayload(&audio))
	assert.Equal(t, "AAE=", audio.Data)
}

func TestDecodeClientMessageErrors(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`not json`, `{"payload":{}}`} {
		_, err := DecodeClientMessage([]byte(raw))
		assert.Error(t, err, raw)
	}

	msg, err := DecodeClientMessage([]byte(`{"type":"control"}`))
	require.NoError(t, err)
	assert.Error(t, msg.DecodePayload(&ControlPayload{}))
}

func TestDecodeTwilioEvent(t *testing.T) {
	t.Parallel()

	ev, err := DecodeTwilioEvent([]byte(`{"event":"start","sequenceNumber":"1","start":{"streamSid":"MZ123","callSid":"CA9","mediaFormat":{"encoding":"audio/x-mulaw","sampleRate":8000,"channels":1}},"streamSid":"MZ123"}`))
	require.NoError(t, err)
	assert.Equal(t, TwilioStart, ev.Event)
	require.NotNil(t, ev.Start)
	assert.Equal(t, "MZ123", ev.Start.StreamSid)
	assert.Equal(t, 8000, ev.Start.MediaFormat.SampleRate)

	ev, err = DecodeTwilioEvent([]byte(`{"event":"media","media":{"track":"inbound","payload":"//8="}}`))
	require.NoError(t, err)
	require.NotNil(t, ev.Media)
	assert.Equal(t, "//8=", ev.Media.Payload)

	_, err = DecodeTwilioEvent([]byte(`{"streamSid":"MZ123"}`))
	assert.ErrorContains(t, err, "event")
}

func TestEncodeServerMessages(t *testing.T) {
	t.Parallel()

	out, err := Encode(NewTranscriptMessage("s1", live.Turn{User: "hi", Model: "hello"}, true))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"transcript","sessionId":"s1","payload":{"user":"hi","model":"hello","final":true}}`, string(out))

	out, err = Encode(NewAudioMessage("s1", "AAA="))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"audio","sessionId":"s1","payload":{"data":"AAA=","mimeType":"audio/pcm;rate=24000"}}`, string(out))

	out, err = Encode(NewTwilioMessageBack("MZ1", "fw=="))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"media","streamSid":"MZ1","media":{"payload":"fw=="}}`, string(out))
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: mic blocked", live.ErrPermission), ErrCodePermission},
		{live.ErrConfig, ErrCodeConfig},
		{fmt.Errorf("dial: %w", live.ErrConnection), ErrCodeConnection},
		{live.ErrDecode, ErrCodeDecode},
		{live.ErrSessionActive, ErrCodeSessionFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), tt.err.Error())
	}
}
