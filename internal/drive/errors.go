// Package drive implements the slice of the Google Drive v3 HTTP surface
// that drivebridge consumes: the two-phase resumable upload protocol,
// folder creation and listing, and raw content download.
package drive

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification.
// Use errors.Is(err, drive.ErrSessionInit) to check.
var (
	// ErrNoParents is returned when folder resolution is asked to resolve
	// an empty parent list.
	ErrNoParents = errors.New("drive: no parent references given")

	// ErrSessionInit is returned when the resumable session init request
	// comes back with HTTP status >= 400.
	ErrSessionInit = errors.New("drive: upload session init failed")

	// ErrMissingLocation is returned when session init succeeds but the
	// response carries no Location header.
	ErrMissingLocation = errors.New("drive: upload session response has no Location header")

	// ErrUpload is returned when the content PUT fails at the transport
	// level or the final response body is not valid JSON.
	ErrUpload = errors.New("drive: upload failed")

	// ErrFolderAPI is returned when Drive answers a folder create or list
	// request with an error object.
	ErrFolderAPI = errors.New("drive: folder request rejected")

	// ErrDownload is returned for a non-2xx status on content download.
	ErrDownload = errors.New("drive: download failed")
)

// APIError wraps a sentinel error with the HTTP status code and the raw
// response body for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("drive: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// driveErrorBody is the JSON error envelope Drive returns on failures.
type driveErrorBody struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
