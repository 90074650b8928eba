package errors

import (
	"fmt"
	"net/http"
)

// UploadError carries the failure mode of a chunked upload or tracking
// operation so handlers can map it to the right HTTP status.
type UploadError struct {
	Err           error
	Message       string
	NotFound      bool
	BadValidation bool
	Duplicate     bool
	Corrupt       bool
	Incomplete    bool
	Upstream      bool

	// MissingChunks lists the chunk indices never received, set when
	// Incomplete is true so the client can re-send only those.
	MissingChunks []int
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%v: %v", e.Message, e.Err.Error())
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func (e *UploadError) Wrap(err error) {
	e.Err = err
}

// HttpCodeForUploadError returns the http code for the corresponding upload error
func HttpCodeForUploadError(err error) int {
	uploadError, ok := err.(*UploadError)
	if !ok {
		return http.StatusInternalServerError
	}
	switch {
	case uploadError.NotFound:
		return http.StatusNotFound
	case uploadError.Upstream:
		return http.StatusBadGateway
	case uploadError.BadValidation, uploadError.Duplicate, uploadError.Incomplete, uploadError.Corrupt:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
