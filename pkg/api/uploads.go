package api

// UploadChunkResponse acknowledges a single stored chunk.
type UploadChunkResponse struct {
	UploadID       string `json:"upload_id"`       // Client-generated upload identifier
	ChunkIndex     int    `json:"chunk_index"`     // 0-based index of the stored chunk
	ReceivedChunks int    `json:"received_chunks"` // Number of chunks stored so far
	TotalChunks    int    `json:"total_chunks"`    // Number of chunks declared by the client
	Progress       int    `json:"progress"`        // Integer percent of chunks received
}

type FinalizeUploadRequest struct {
	UploadID string `json:"upload_id" validate:"required"` // Upload identifier to finalize
	FileKind string `json:"file_kind"`                     // Storage namespace, e.g. images, pdfs, labels-pdfs
}

type FinalizeUploadResponse struct {
	UploadID string `json:"upload_id"` // Upload identifier that was finalized
	URL      string `json:"url"`       // Durable public URL of the assembled file
	FileName string `json:"file_name"` // Object key the file was stored under
	Size     int64  `json:"size"`      // Final byte size after any size reduction
}

// IncompleteUploadResponse is returned when finalize is attempted before
// every chunk has arrived, so the client can re-send only what is missing.
type IncompleteUploadResponse struct {
	Error         string `json:"error"`
	MissingChunks []int  `json:"missing_chunks"`
}
