package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEventStatus(t *testing.T) {
	ev, err := DecodeEvent(`{"type":"status","content":"分析中"}`)
	require.NoError(t, err)
	require.Equal(t, Event{Kind: EventStatus, Content: "分析中"}, ev)
}

func TestDecodeEventStep(t *testing.T) {
	ev, err := DecodeEvent(`{"type":"step","thinking":"需要点击快门","message":"打开相机","finished":true}`)
	require.NoError(t, err)
	require.Equal(t, EventStep, ev.Kind)
	require.Equal(t, "需要点击快门", ev.Thinking)
	require.Equal(t, "打开相机", ev.Message)
	require.True(t, ev.Finished)
}

func TestDecodeEventStepStringAction(t *testing.T) {
	ev, err := DecodeEvent(`{"type":"step","action":"swipe up"}`)
	require.NoError(t, err)
	require.Equal(t, "swipe up", ev.Action)
}

func TestDecodeEventStepStructuredAction(t *testing.T) {
	ev, err := DecodeEvent(`{"type":"step","action": {"tap": [100, 200]}}`)
	require.NoError(t, err)
	require.Equal(t, `{"tap":[100,200]}`, ev.Action)
}

func TestDecodeEventStepNullAction(t *testing.T) {
	ev, err := DecodeEvent(`{"type":"step","action":null,"message":"ok","finished":false}`)
	require.NoError(t, err)
	require.Empty(t, ev.Action)
	require.False(t, ev.Finished)
}

func TestDecodeEventDone(t *testing.T) {
	ev, err := DecodeEvent(`{"type":"done","content":"已打开相机","time":"12:00:01","duration":"1.2s"}`)
	require.NoError(t, err)
	require.Equal(t, Event{
		Kind:     EventDone,
		Content:  "已打开相机",
		Time:     "12:00:01",
		Duration: "1.2s",
	}, ev)
}

func TestDecodeEventError(t *testing.T) {
	ev, err := DecodeEvent(`{"type":"error","content":"device offline"}`)
	require.NoError(t, err)
	require.Equal(t, Event{Kind: EventError, Content: "device offline"}, ev)
}

func TestDecodeEventMalformed(t *testing.T) {
	_, err := DecodeEvent(`{"type":"done",`)
	require.Error(t, err)
}

func TestDecodeEventUnknownType(t *testing.T) {
	_, err := DecodeEvent(`{"type":"heartbeat"}`)
	require.ErrorContains(t, err, "unknown type")
}
