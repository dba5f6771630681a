package uploader

// TaskState tracks one upload run. Failed is terminal for the run itself, a
// later run may still resume the same server-side session through the
// persisted record.
type TaskState int32

const (
	TaskStateNotStarted TaskState = iota
	TaskStateSessionInitiated
	TaskStateUploading
	TaskStateCompleted
	TaskStateFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskStateNotStarted:
		return "not_started"
	case TaskStateSessionInitiated:
		return "session_initiated"
	case TaskStateUploading:
		return "uploading"
	case TaskStateCompleted:
		return "completed"
	case TaskStateFailed:
		return "failed"
	}
	return "unknown"
}
