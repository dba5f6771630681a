package uploader

// ChunkDescriptor is one byte-range window into the source file.
type ChunkDescriptor struct {
	Offset  int64
	Length  int64
	IsFinal bool
}

// nextChunk computes the window starting at offset. Windows advance by
// exactly the previous window's length, so the emitted sequence is contiguous
// with no gaps or overlaps; the final window ends exactly at total.
func nextChunk(offset, total, chunkSize int64) ChunkDescriptor {
	length := total - offset
	if length > chunkSize {
		length = chunkSize
	}
	return ChunkDescriptor{
		Offset:  offset,
		Length:  length,
		IsFinal: offset+length == total,
	}
}
