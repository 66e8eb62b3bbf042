package repl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunksCountAndOrder(t *testing.T) {
	tests := []struct {
		name       string
		payloadLen int
		size       int
		wantChunks int
	}{
		{name: "empty", payloadLen: 0, size: 64, wantChunks: 0},
		{name: "single byte", payloadLen: 1, size: 64, wantChunks: 1},
		{name: "exact chunk", payloadLen: 64, size: 64, wantChunks: 1},
		{name: "one over", payloadLen: 65, size: 64, wantChunks: 2},
		{name: "several", payloadLen: 1000, size: 64, wantChunks: 16},
		{name: "exact multiple", payloadLen: 192, size: 64, wantChunks: 3},
		{name: "small chunks", payloadLen: 10, size: 3, wantChunks: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := make([]byte, tt.payloadLen)
			for i := range payload {
				payload[i] = byte(i)
			}

			chunks := Chunks(payload, tt.size)
			require.Len(t, chunks, tt.wantChunks)

			// No chunk exceeds the bound, and concatenating the chunks in
			// order must reproduce the payload exactly.
			var rejoined []byte
			for _, c := range chunks {
				require.LessOrEqual(t, len(c), tt.size)
				require.NotEmpty(t, c)
				rejoined = append(rejoined, c...)
			}
			require.True(t, bytes.Equal(payload, rejoined))
		})
	}
}

func TestChunksDefaultSize(t *testing.T) {
	payload := make([]byte, DefaultChunkSize+1)

	// A non-positive size falls back to the protocol default.
	chunks := Chunks(payload, 0)
	require.Len(t, chunks, 2)
	require.Len(t, chunks[0], DefaultChunkSize)
	require.Len(t, chunks[1], 1)
}
