package repl

// Chunks splits payload into ordered slices of at most size bytes.
// The returned slices alias the payload; concatenated in order they
// reproduce it exactly. A nil or empty payload yields no chunks.
//
// This is the unit of flow control for paste-mode uploads: the device has no
// acknowledgement for received text, so the sender bounds each write and
// paces them with a fixed delay instead.
func Chunks(payload []byte, size int) [][]byte {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(payload) == 0 {
		return nil
	}

	chunks := make([][]byte, 0, (len(payload)+size-1)/size)
	for len(payload) > size {
		chunks = append(chunks, payload[:size])
		payload = payload[size:]
	}
	return append(chunks, payload)
}
