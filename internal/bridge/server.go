package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/errgroup"

	"github.com/drivebridge/drivebridge/internal/drive"
	"github.com/drivebridge/drivebridge/internal/export"
)

// Handler executes the operations the protocol exposes. *export.Service
// is the production implementation.
type Handler interface {
	Save(ctx context.Context, req *export.SaveRequest) (*export.SavedFile, error)
	ListAppFolders(ctx context.Context, interactive bool) ([]drive.Folder, error)
	GetFile(ctx context.Context, fileID string) (string, error)
}

// Server accepts websocket connections from the desktop application and
// serves protocol requests. Each request runs in its own goroutine so
// independent operations interleave; writes to the connection are
// serialized.
type Server struct {
	handler Handler
	logger  *slog.Logger
}

func NewServer(handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{handler: handler, logger: logger}
}

// ServeHTTP upgrades the request to a websocket and serves it until the
// peer disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", slog.String("error", err.Error()))

		return
	}

	defer conn.Close(websocket.StatusInternalError, "server shutting down")

	if err := s.serveConn(r.Context(), conn); err != nil {
		s.logger.Debug("connection closed", slog.String("reason", err.Error()))
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

// serveConn reads request envelopes until the connection fails or the
// context is done, handling each in its own goroutine.
func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) error {
	group, ctx := errgroup.WithContext(ctx)

	var writeMu sync.Mutex

	respond := func(resp Response) error {
		writeMu.Lock()
		defer writeMu.Unlock()

		return wsjson.Write(ctx, conn, resp)
	}

	for {
		var req Request

		if err := wsjson.Read(ctx, conn, &req); err != nil {
			// Normal closure ends the loop; the in-flight handlers are
			// drained before returning.
			waitErr := group.Wait()

			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return waitErr
			}

			return err
		}

		group.Go(func() error {
			resp := s.handle(ctx, req)

			if err := respond(resp); err != nil {
				s.logger.Warn("writing response failed",
					slog.Uint64("id", req.ID),
					slog.String("error", err.Error()),
				)
			}

			// Handler failures were already delivered as protocol errors;
			// only a broken transport should tear the connection down.
			return nil
		})
	}
}

// handle executes one request and builds its response envelope. Every
// failure is normalized to {message}; native errors never cross the
// boundary.
func (s *Server) handle(ctx context.Context, req Request) Response {
	s.logger.Info("handling request",
		slog.Uint64("id", req.ID),
		slog.String("method", req.Method),
	)

	result, err := s.dispatch(ctx, req)
	if err != nil {
		s.logger.Warn("request failed",
			slog.Uint64("id", req.ID),
			slog.String("method", req.Method),
			slog.String("error", err.Error()),
		)

		return Response{ID: req.ID, Error: &ErrorBody{Message: err.Error()}}
	}

	return Response{ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req Request) (json.RawMessage, error) {
	switch req.Method {
	case MethodSaveFile:
		var save export.SaveRequest
		if err := json.Unmarshal(req.Payload, &save); err != nil {
			return nil, fmt.Errorf("decoding save-file payload: %w", err)
		}

		saved, err := s.handler.Save(ctx, &save)
		if err != nil {
			return nil, err
		}

		return json.Marshal(saved)

	case MethodListAppFolders:
		var payload ListFoldersPayload
		if len(req.Payload) > 0 {
			if err := json.Unmarshal(req.Payload, &payload); err != nil {
				return nil, fmt.Errorf("decoding list-app-folders payload: %w", err)
			}
		}

		folders, err := s.handler.ListAppFolders(ctx, payload.Interactive)
		if err != nil {
			return nil, err
		}

		return json.Marshal(folders)

	case MethodGetFile:
		var fileID string
		if err := json.Unmarshal(req.Payload, &fileID); err != nil {
			return nil, fmt.Errorf("decoding get-file payload: %w", err)
		}

		content, err := s.handler.GetFile(ctx, fileID)
		if err != nil {
			return nil, err
		}

		return json.Marshal(content)

	default:
		return nil, fmt.Errorf("unknown method %q", req.Method)
	}
}
