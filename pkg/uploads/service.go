package uploads

import (
	"context"
	"fmt"
	"math"
	"mime"
	"path/filepath"
	"time"

	"github.com/cannacore/compliance-backend/pkg/api"
	ce "github.com/cannacore/compliance-backend/pkg/errors"
	"github.com/cannacore/compliance-backend/pkg/instrumentation"
	"github.com/cannacore/compliance-backend/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultFileKind = "files"

// Uploader receives chunks into the store and finalizes completed sessions
// into durable storage.
type Uploader struct {
	Store           *ChunkStore
	Objects         storage.ObjectStorage
	Reducer         storage.Reducer
	ReduceThreshold int
	Metrics         *instrumentation.Metrics
}

func NewUploader(store *ChunkStore, objects storage.ObjectStorage, reducer storage.Reducer, reduceThreshold int) *Uploader {
	if reducer == nil {
		reducer = storage.NopReducer{}
	}
	return &Uploader{
		Store:           store,
		Objects:         objects,
		Reducer:         reducer,
		ReduceThreshold: reduceThreshold,
	}
}

// ReceiveChunk stores one chunk and reports progress. No durable write
// happens here; chunks stay in session memory until finalize.
func (u *Uploader) ReceiveChunk(meta ChunkMeta, data []byte) (api.UploadChunkResponse, error) {
	received, total, err := u.Store.AddChunk(meta, data)
	if err != nil {
		return api.UploadChunkResponse{}, err
	}
	u.Metrics.RecordChunkReceived()
	return api.UploadChunkResponse{
		UploadID:       meta.UploadID,
		ChunkIndex:     meta.ChunkIndex,
		ReceivedChunks: received,
		TotalChunks:    total,
		Progress:       int(math.Round(float64(received) * 100 / float64(total))),
	}, nil
}

// Finalize assembles a completed session, optionally shrinks the buffer,
// and uploads it under a collision-free key namespaced by file kind. The
// session is gone afterwards whether the storage call succeeded or not;
// retrying a failed upload is the client's job, a stuck session is not.
func (u *Uploader) Finalize(ctx context.Context, uploadID string, fileKind string) (api.FinalizeUploadResponse, error) {
	assembled, err := u.Store.Take(uploadID)
	if err != nil {
		return api.FinalizeUploadResponse{}, err
	}

	if fileKind == "" {
		fileKind = assembled.FileKind
	}
	if fileKind == "" {
		fileKind = DefaultFileKind
	}

	data := assembled.Data
	if u.ReduceThreshold > 0 && len(data) > u.ReduceThreshold {
		reduced, err := u.Reducer.Reduce(ctx, data, contentTypeFor(assembled.FileName))
		if err != nil {
			log.Warn().Err(err).Str("upload_id", uploadID).Msg("size reduction failed, uploading original buffer")
		} else {
			data = reduced
		}
	}

	key := fmt.Sprintf("%s/%d-%s-%s", fileKind, time.Now().Unix(), uuid.NewString()[:8], assembled.FileName)
	url, err := u.Objects.Put(ctx, key, data, contentTypeFor(assembled.FileName))
	if err != nil {
		u.Metrics.RecordFinalization(false)
		return api.FinalizeUploadResponse{}, &ce.UploadError{
			Message:  "failed to upload assembled file",
			Err:      err,
			Upstream: true,
		}
	}

	u.Metrics.RecordFinalization(true)
	return api.FinalizeUploadResponse{
		UploadID: uploadID,
		URL:      url,
		FileName: key,
		Size:     int64(len(data)),
	}, nil
}

func contentTypeFor(fileName string) string {
	if ct := mime.TypeByExtension(filepath.Ext(fileName)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
