package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// DownloadFile fetches the raw content of a file via a media-mode GET.
// A non-2xx response is best-effort parsed as a Drive error body and
// surfaced as "<code>: <message>"; when the body is not a Drive error
// envelope, the raw body text is the error message.
func (c *Client) DownloadFile(ctx context.Context, fileID string) (string, error) {
	c.logger.Info("downloading file", slog.String("file_id", fileID))

	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/files/"+fileID+"?alt=media", nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("drive: reading download response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %s", ErrDownload, downloadErrorMessage(raw))
	}

	c.logger.Debug("download complete",
		slog.String("file_id", fileID),
		slog.Int("size", len(raw)),
	)

	return string(raw), nil
}

// downloadErrorMessage extracts "<code>: <message>" from a Drive error
// body, falling back to the raw body text.
func downloadErrorMessage(raw []byte) string {
	var parsed driveErrorBody
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil {
		return fmt.Sprintf("%d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	return strings.TrimSpace(string(raw))
}
