package api

import (
	"os"
	"path/filepath"
)

const ApiVersion = "1"

// Out-of-band chunk upload fields, carried as headers because the chunk
// body is raw binary.
const (
	HeaderUploadID    = "x-upload-id"
	HeaderChunkIndex  = "x-chunk-index"
	HeaderTotalChunks = "x-total-chunks"
	HeaderFileName    = "x-file-name"
	HeaderFileKind    = "x-file-kind"
)

func rootPrefix() string {
	pathPrefix, present := os.LookupEnv("PATH_PREFIX")
	if !present {
		pathPrefix = "api"
	}

	appName, present := os.LookupEnv("APP_NAME")
	if !present {
		appName = "compliance"
	}
	return filepath.Join("/", pathPrefix, appName)
}

func FullRootPath() string {
	return filepath.Join(rootPrefix(), "v"+ApiVersion)
}
