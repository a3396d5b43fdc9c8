package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(f *LineFramer, chunks ...[]byte) []string {
	var records []string
	for _, c := range chunks {
		records = append(records, f.Feed(c)...)
	}
	records = append(records, f.Flush()...)
	return records
}

func TestLineFramerSingleChunk(t *testing.T) {
	f := NewLineFramer()
	records := f.Feed([]byte("{\"type\":\"status\"}\n{\"type\":\"done\"}\n"))
	require.Equal(t, []string{`{"type":"status"}`, `{"type":"done"}`}, records)
	require.Empty(t, f.Flush())
}

func TestLineFramerSplitAtEveryByteOffset(t *testing.T) {
	payload := []byte("{\"type\":\"status\",\"content\":\"分析中\"}\n" +
		"{\"type\":\"step\",\"message\":\"打开相机\",\"finished\":true}\n" +
		"{\"type\":\"done\",\"content\":\"已打开相机\"}\n")
	want := collect(NewLineFramer(), payload)
	require.Len(t, want, 3)

	// Any split point must reproduce the same records, including splits
	// that land inside a multi-byte rune.
	for i := 0; i <= len(payload); i++ {
		got := collect(NewLineFramer(), payload[:i], payload[i:])
		require.Equalf(t, want, got, "split at byte %d", i)
	}
}

func TestLineFramerByteAtATime(t *testing.T) {
	payload := []byte("{\"a\":1}\n{\"b\":\"正在执行\"}\n")
	f := NewLineFramer()
	var records []string
	for i := range payload {
		records = append(records, f.Feed(payload[i:i+1])...)
	}
	records = append(records, f.Flush()...)
	require.Equal(t, []string{`{"a":1}`, `{"b":"正在执行"}`}, records)
}

func TestLineFramerDropsBlankRecords(t *testing.T) {
	f := NewLineFramer()
	records := f.Feed([]byte("\n  \n{\"a\":1}\n\t\n"))
	require.Equal(t, []string{`{"a":1}`}, records)
}

func TestLineFramerFlushEmitsResidual(t *testing.T) {
	f := NewLineFramer()
	require.Empty(t, f.Feed([]byte(`{"type":"done","content":"完`)))
	require.Empty(t, f.Feed([]byte(`成"}`)))
	require.Equal(t, []string{`{"type":"done","content":"完成"}`}, f.Flush())
	// Flush resets: a second call yields nothing.
	require.Empty(t, f.Flush())
}

func TestLineFramerFlushDropsBlankResidual(t *testing.T) {
	f := NewLineFramer()
	f.Feed([]byte("{\"a\":1}\n   "))
	require.Empty(t, f.Flush())
}
