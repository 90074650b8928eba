package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/cannacore/compliance-backend/pkg/api"
	"github.com/cannacore/compliance-backend/pkg/config"
	ce "github.com/cannacore/compliance-backend/pkg/errors"
	"github.com/cannacore/compliance-backend/pkg/uploads"
	"github.com/labstack/echo/v4"
)

type UploadsHandler struct {
	Uploader *uploads.Uploader
}

func RegisterUploadRoutes(engine *echo.Group, uploader *uploads.Uploader) {
	uh := UploadsHandler{Uploader: uploader}
	engine.POST("/upload_chunk/", uh.uploadChunk)
	engine.POST("/finalize_upload/", uh.finalizeUpload)
}

// uploadChunk stores one raw-binary chunk. The chunk metadata travels in
// headers since the body is the file bytes themselves.
func (uh *UploadsHandler) uploadChunk(c echo.Context) error {
	meta := uploads.ChunkMeta{
		UploadID: c.Request().Header.Get(api.HeaderUploadID),
		FileName: c.Request().Header.Get(api.HeaderFileName),
		FileKind: c.Request().Header.Get(api.HeaderFileKind),
	}

	var err error
	if meta.ChunkIndex, err = headerInt(c, api.HeaderChunkIndex); err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error parsing chunk headers", err.Error())
	}
	if meta.TotalChunks, err = headerInt(c, api.HeaderTotalChunks); err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error parsing chunk headers", err.Error())
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error reading chunk body", err.Error())
	}
	if maxBytes := config.Get().Options.ChunkSizeBytes; maxBytes > 0 && len(data) > maxBytes {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error storing chunk",
			fmt.Sprintf("chunk exceeds maximum size of %d bytes", maxBytes))
	}

	resp, err := uh.Uploader.ReceiveChunk(meta, data)
	if err != nil {
		return ce.NewErrorResponseFromError("Error storing chunk", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// finalizeUpload assembles a completed session and moves it to durable
// storage. An incomplete session reports which chunk indices are missing
// and stays open so the client can re-send only those.
func (uh *UploadsHandler) finalizeUpload(c echo.Context) error {
	var req api.FinalizeUploadRequest
	if err := c.Bind(&req); err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error binding parameters", err.Error())
	}
	if req.UploadID == "" {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error finalizing upload", "upload_id is required")
	}

	resp, err := uh.Uploader.Finalize(c.Request().Context(), req.UploadID, req.FileKind)
	if err != nil {
		var uploadErr *ce.UploadError
		if errors.As(err, &uploadErr) && uploadErr.Incomplete {
			return c.JSON(http.StatusBadRequest, api.IncompleteUploadResponse{
				Error:         uploadErr.Message,
				MissingChunks: uploadErr.MissingChunks,
			})
		}
		return ce.NewErrorResponseFromError("Error finalizing upload", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func headerInt(c echo.Context, name string) (int, error) {
	value, err := strconv.Atoi(c.Request().Header.Get(name))
	if err != nil {
		return 0, fmt.Errorf("%v must be an integer", name)
	}
	return value, nil
}
