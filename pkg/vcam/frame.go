package vcam

// VideoFrame owns a byte buffer tagged with the format it was captured
// in. An empty frame (len(Data) == 0) is the "no frame yet" sentinel;
// it is distinct from a frame with a zero-sized but valid format, which
// can never occur since VideoFormat.Valid() requires positive
// dimensions.
type VideoFrame struct {
	Format VideoFormat
	Data   []byte
}

// NewVideoFrame allocates a frame sized for format and zero-fills it.
func NewVideoFrame(format VideoFormat) VideoFrame {
	return VideoFrame{
		Format: format,
		Data:   make([]byte, format.ByteSize()),
	}
}

// Empty reports whether the frame carries no data yet.
func (f VideoFrame) Empty() bool {
	return len(f.Data) == 0
}

// Fill broadcasts value across the whole frame buffer, a convenience
// used by tests and the demo producer to synthesize solid-color frames.
func (f VideoFrame) Fill(value byte) {
	for i := range f.Data {
		f.Data[i] = value
	}
}

// Clone returns a deep copy so that producers are free to mutate their
// own buffer after handing a frame to the bridge.
func (f VideoFrame) Clone() VideoFrame {
	if f.Data == nil {
		return VideoFrame{Format: f.Format}
	}
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	return VideoFrame{Format: f.Format, Data: data}
}
