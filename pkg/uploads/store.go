// Package uploads implements the chunked large-file intake: an in-memory
// chunk store keyed by client upload id, plus the receive/finalize service
// on top of it. Chunks live only in memory until finalize uploads the
// assembled file to durable storage.
package uploads

import (
	"fmt"
	"sync"
	"time"

	ce "github.com/cannacore/compliance-backend/pkg/errors"
)

type SessionState string

const (
	StateOpen     SessionState = "open"
	StateComplete SessionState = "complete"
)

// UploadSession accumulates the chunk set of one file transfer. Slot index
// is the chunk identity; arrival order is irrelevant.
type UploadSession struct {
	TotalChunks   int
	FileName      string
	FileKind      string
	ReceivedCount int
	CreatedAt     time.Time
	State         SessionState

	slots [][]byte
}

// ChunkMeta carries the out-of-band fields of one chunk request.
type ChunkMeta struct {
	UploadID    string
	ChunkIndex  int
	TotalChunks int
	FileName    string
	FileKind    string
}

// Assembled is a completed upload taken out of the store, ready for the
// durable-storage write.
type Assembled struct {
	UploadID string
	FileName string
	FileKind string
	Data     []byte
}

// ChunkStore is the process-wide registry of open upload sessions. It is
// an injectable service object so tests can construct isolated instances
// and control the clock.
type ChunkStore struct {
	mu       sync.Mutex
	sessions map[string]*UploadSession
	timeout  time.Duration
	nowFunc  func() time.Time
}

func NewChunkStore(timeout time.Duration) *ChunkStore {
	return &ChunkStore{
		sessions: make(map[string]*UploadSession),
		timeout:  timeout,
		nowFunc:  time.Now,
	}
}

// AddChunk validates and stores one chunk, creating the session on first
// sight of the upload id. A slot, once filled, is immutable: a duplicate
// index is rejected and the first bytes are retained.
func (s *ChunkStore) AddChunk(meta ChunkMeta, data []byte) (received int, total int, err error) {
	if meta.UploadID == "" || meta.FileName == "" {
		return 0, 0, &ce.UploadError{Message: "missing required upload parameters", BadValidation: true}
	}
	if meta.TotalChunks < 1 {
		return 0, 0, &ce.UploadError{Message: "total chunk count must be positive", BadValidation: true}
	}
	if len(data) == 0 {
		return 0, 0, &ce.UploadError{Message: "no chunk data provided", BadValidation: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[meta.UploadID]
	if !ok {
		session = &UploadSession{
			TotalChunks: meta.TotalChunks,
			FileName:    meta.FileName,
			FileKind:    meta.FileKind,
			CreatedAt:   s.nowFunc(),
			State:       StateOpen,
			slots:       make([][]byte, meta.TotalChunks),
		}
		s.sessions[meta.UploadID] = session
	}

	// totalChunks is fixed at first arrival; the index is validated against
	// the session, not the request, so a drifting client cannot resize it.
	if meta.ChunkIndex < 0 || meta.ChunkIndex >= session.TotalChunks {
		return session.ReceivedCount, session.TotalChunks, &ce.UploadError{
			Message:       fmt.Sprintf("chunk index %d out of range [0, %d)", meta.ChunkIndex, session.TotalChunks),
			BadValidation: true,
		}
	}
	if session.slots[meta.ChunkIndex] != nil {
		return session.ReceivedCount, session.TotalChunks, &ce.UploadError{
			Message:   fmt.Sprintf("chunk %d already uploaded", meta.ChunkIndex),
			Duplicate: true,
		}
	}

	session.slots[meta.ChunkIndex] = data
	session.ReceivedCount++
	if session.ReceivedCount == session.TotalChunks {
		session.State = StateComplete
	}
	return session.ReceivedCount, session.TotalChunks, nil
}

// Take verifies completeness and removes the session, returning the chunks
// concatenated in ascending index order. The session is claimed under the
// lock before any caller I/O, so a concurrent finalize for the same id
// observes not-found. Incomplete sessions are left in place and the error
// reports exactly which indices are missing.
func (s *ChunkStore) Take(uploadID string) (*Assembled, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[uploadID]
	if !ok {
		return nil, &ce.UploadError{Message: "upload not found", NotFound: true}
	}

	if session.ReceivedCount != session.TotalChunks {
		missing := []int{}
		for i := range session.slots {
			if session.slots[i] == nil {
				missing = append(missing, i)
			}
		}
		return nil, &ce.UploadError{
			Message:       fmt.Sprintf("not all chunks received, got %d/%d", session.ReceivedCount, session.TotalChunks),
			Incomplete:    true,
			MissingChunks: missing,
		}
	}

	// The count matched, but verify every slot anyway. Count and slot
	// accounting diverging is an internal defect, not a client error to
	// retry; the session is dropped so it cannot wedge memory.
	size := 0
	for i := range session.slots {
		if len(session.slots[i]) == 0 {
			delete(s.sessions, uploadID)
			return nil, &ce.UploadError{
				Message: fmt.Sprintf("chunk %d is missing or empty despite matching count", i),
				Corrupt: true,
			}
		}
		size += len(session.slots[i])
	}

	data := make([]byte, 0, size)
	for i := range session.slots {
		data = append(data, session.slots[i]...)
	}
	delete(s.sessions, uploadID)

	return &Assembled{
		UploadID: uploadID,
		FileName: session.FileName,
		FileKind: session.FileKind,
		Data:     data,
	}, nil
}

// SweepExpired discards sessions older than the store timeout and returns
// how many were evicted. Abandoned transfers must not hold memory forever.
func (s *ChunkStore) SweepExpired() int {
	now := s.nowFunc()
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, session := range s.sessions {
		if now.Sub(session.CreatedAt) > s.timeout {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of open sessions.
func (s *ChunkStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
