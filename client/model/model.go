package model

// ObjectMeta is the object metadata body returned by the emulator on
// completed uploads and on the stat/list surface.
type ObjectMeta struct {
	Name           string `json:"name"`
	Bucket         string `json:"bucket"`
	Size           int64  `json:"size"`
	Generation     int64  `json:"generation"`
	Metageneration int64  `json:"metageneration"`
	ContentType    string `json:"contentType,omitempty"`
	Updated        string `json:"updated,omitempty"`
}

type InitiateUploadRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

type InitiateUploadResponse struct {
	SessionId string `json:"sessionId"`
	Location  string `json:"location"`
}

// UploadSession identifies an in-progress resumable transfer. Immutable once
// issued by the server.
type UploadSession struct {
	SessionId   string
	Location    string
	TotalSize   int64
	ContentType string
}

type ListObjectsResponse struct {
	Items         []*ObjectMeta `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

type ErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
