package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// InitializeUpload performs the first phase of the resumable upload
// protocol: a metadata-only request that yields a single-use session URL.
// existingFileID empty means create (POST); non-empty means update (PATCH
// addressed at that file). On any status below 400 the session URL is the
// first Location header value; a successful status without a Location
// header is ErrMissingLocation. On status >= 400 the drained response
// body is folded into an ErrSessionInit error.
func (c *Client) InitializeUpload(ctx context.Context, resource *FileResource, existingFileID string) (string, error) {
	method := http.MethodPost
	url := c.uploadBase + "/files?uploadType=resumable"

	if existingFileID != "" {
		method = http.MethodPatch
		url = c.uploadBase + "/files/" + existingFileID + "?uploadType=resumable"
	}

	body, err := json.Marshal(resource)
	if err != nil {
		return "", fmt.Errorf("drive: marshaling upload resource: %w", err)
	}

	c.logger.Info("initializing upload session",
		slog.String("method", method),
		slog.String("name", resource.Name),
		slog.String("file_id", existingFileID),
	)

	resp, err := c.do(ctx, method, url, bytes.NewReader(body), "application/json; charset=UTF-8")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		errBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		return "", &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
			Err:        ErrSessionInit,
		}
	}

	// Drain so the connection can be reused.
	if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
		return "", fmt.Errorf("drive: draining session init response: %w", drainErr)
	}

	locations := resp.Header.Values("Location")
	if len(locations) == 0 || locations[0] == "" {
		return "", fmt.Errorf("%w (status %d)", ErrMissingLocation, resp.StatusCode)
	}

	return locations[0], nil
}

// Upload performs the second phase: a single PUT of the raw media bytes
// to the session URL. The response body is decoded as JSON and returned
// verbatim as the resulting file resource; a non-JSON body is a fatal
// ErrUpload, not retried.
func (c *Client) Upload(ctx context.Context, sessionURL string, body []byte, mimeType string) (*File, error) {
	c.logger.Info("uploading content",
		slog.Int("size", len(body)),
		slog.String("mime_type", mimeType),
	)

	resp, err := c.do(ctx, http.MethodPut, sessionURL, bytes.NewReader(body), mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	defer resp.Body.Close()

	var file File
	if decErr := json.NewDecoder(resp.Body).Decode(&file); decErr != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrUpload, decErr)
	}

	c.logger.Debug("upload complete",
		slog.String("file_id", file.ID),
		slog.String("file_name", file.Name),
	)

	return &file, nil
}
