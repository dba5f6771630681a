package constant

const (
	SessionStateInit      = uint32(1)
	SessionStateUploading = uint32(2)
	SessionStateCompleted = uint32(3)
)
