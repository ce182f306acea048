package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/drivebridge/drivebridge/internal/drive"
	"github.com/drivebridge/drivebridge/internal/export"
)

// Client is the application side of the bridge: it dispatches requests
// through a correlator over one websocket connection and routes responses
// back by id.
type Client struct {
	conn   *websocket.Conn
	corr   *Correlator
	logger *slog.Logger

	writeMu sync.Mutex
	cancel  context.CancelFunc
}

// Dial connects to a bridge server and starts the response read loop.
// Close releases the connection.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: dialing %s: %w", url, err)
	}

	readCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c := &Client{
		conn:   conn,
		logger: logger,
		cancel: cancel,
	}
	c.corr = NewCorrelator(c.sendRequest, logger)

	go c.readLoop(readCtx)

	return c, nil
}

// Close tears the connection down and fails all outstanding operations.
func (c *Client) Close() error {
	c.cancel()

	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// SaveFile persists content as a Drive file through the bridge.
func (c *Client) SaveFile(ctx context.Context, req *export.SaveRequest) (*export.SavedFile, error) {
	raw, err := c.call(ctx, MethodSaveFile, req)
	if err != nil {
		return nil, err
	}

	var saved export.SavedFile
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("bridge: decoding save-file result: %w", err)
	}

	return &saved, nil
}

// ListAppFolders lists the application's Drive folders through the bridge.
func (c *Client) ListAppFolders(ctx context.Context, interactive bool) ([]drive.Folder, error) {
	raw, err := c.call(ctx, MethodListAppFolders, ListFoldersPayload{Interactive: interactive})
	if err != nil {
		return nil, err
	}

	var folders []drive.Folder
	if err := json.Unmarshal(raw, &folders); err != nil {
		return nil, fmt.Errorf("bridge: decoding list-app-folders result: %w", err)
	}

	return folders, nil
}

// GetFile fetches raw file content through the bridge.
func (c *Client) GetFile(ctx context.Context, fileID string) (string, error) {
	raw, err := c.call(ctx, MethodGetFile, fileID)
	if err != nil {
		return "", err
	}

	var content string
	if err := json.Unmarshal(raw, &content); err != nil {
		return "", fmt.Errorf("bridge: decoding get-file result: %w", err)
	}

	return content, nil
}

func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	pending, err := c.corr.Dispatch(ctx, method, payload)
	if err != nil {
		return nil, err
	}

	return pending.Await(ctx)
}

func (c *Client) sendRequest(ctx context.Context, req Request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return wsjson.Write(ctx, c.conn, req)
}

// readLoop routes inbound responses to the correlator until the
// connection dies, then fails whatever is still outstanding.
func (c *Client) readLoop(ctx context.Context) {
	for {
		var resp Response

		if err := wsjson.Read(ctx, c.conn, &resp); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				c.logger.Warn("bridge connection lost", slog.String("error", err.Error()))
			}

			c.corr.RejectAll("bridge connection closed")

			return
		}

		if resp.Error != nil {
			c.corr.Reject(resp.ID, resp.Error.Message)

			continue
		}

		c.corr.Resolve(resp.ID, resp.Result)
	}
}
