package entity

type CreateSessionRequest struct {
	Fingerprint string
	TaskId      string
	Bucket      string
	ObjectName  string
	SessionId   string
	Location    string
	TotalSize   int64
	ChunkSize   int64
	ContentType string
}

type CreateSessionResponse struct {
	Id uint64
}

type GetSessionRequest struct {
	Fingerprint string
}

type UploadSessionItem struct {
	Id           uint64 `json:"id"`
	Fingerprint  string `json:"fingerprint"`
	TaskId       string `json:"task_id"`
	Bucket       string `json:"bucket"`
	ObjectName   string `json:"object_name"`
	SessionId    string `json:"session_id"`
	Location     string `json:"location"`
	TotalSize    int64  `json:"total_size"`
	ChunkSize    int64  `json:"chunk_size"`
	ContentType  string `json:"content_type"`
	BytesSent    int64  `json:"bytes_sent"`
	SessionState uint32 `json:"session_state"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}

type GetSessionResponse struct {
	Item *UploadSessionItem
}

type SaveSessionProgressRequest struct {
	Fingerprint  string
	BytesSent    int64
	SessionState uint32
}

type SaveSessionProgressResponse struct {
}

type DeleteSessionRequest struct {
	Fingerprint []string
}

type DeleteSessionResponse struct {
}
