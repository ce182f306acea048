// Package export orchestrates create-or-update exports to Drive: it
// builds the file resource and media payload from a save request,
// resolves parent references, authorizes, and drives the two-phase
// resumable upload.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/drivebridge/drivebridge/internal/drive"
)

// Meta is the caller-supplied file metadata of a save request.
type Meta struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	MimeType    string            `json:"mimeType,omitempty"`
	Parents     []drive.ParentRef `json:"parents,omitempty"`
}

// AuthSpec selects how a single request is authorized. A non-empty
// AccessToken is used verbatim with no authorizer call; otherwise the
// authorizer is invoked, interactively when Interactive is set.
type AuthSpec struct {
	AccessToken string `json:"accessToken,omitempty"`
	Interactive bool   `json:"interactive,omitempty"`
}

// SaveRequest is one create-or-update export. A non-empty ID addresses an
// existing file (update); otherwise a new file is created. Body may be a
// string or any JSON-serializable value.
type SaveRequest struct {
	Meta *Meta     `json:"meta,omitempty"`
	Body any       `json:"body,omitempty"`
	Type string    `json:"type,omitempty"`
	ID   string    `json:"id,omitempty"`
	Auth *AuthSpec `json:"auth,omitempty"`
}

// SavedFile is the result of a save. On create, Parents carries the
// resolved folder objects (including generated ids), not just id strings.
type SavedFile struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	MimeType    string         `json:"mimeType,omitempty"`
	Parents     []drive.Folder `json:"parents,omitempty"`
}

// Options are the per-service defaults applied during request construction.
type Options struct {
	DefaultDescription string
	DefaultMimeType    string // resource mimeType fallback
	DefaultContentType string // media content type fallback
}

// Service is the export orchestrator. It owns the folder cache, so two
// Service instances never share folder state.
type Service struct {
	client *drive.Client
	auth   Authorizer
	cache  *drive.FolderCache
	opts   Options
	logger *slog.Logger

	// Overridable seams for routing tests.
	createFn func(ctx context.Context, client *drive.Client, resource *drive.FileResource, parents []drive.ParentRef, media drive.Media) (*SavedFile, error)
	updateFn func(ctx context.Context, client *drive.Client, fileID string, resource *drive.FileResource, media drive.Media) (*SavedFile, error)
}

// NewService creates an export service around a Drive client and an
// authorizer. The client's own token source is never used: every
// operation rebinds the client to the token resolved for that request.
func NewService(client *drive.Client, auth Authorizer, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		client: client,
		auth:   auth,
		cache:  drive.NewFolderCache(),
		opts:   opts,
		logger: logger,
	}
	s.createFn = s.create
	s.updateFn = s.update

	return s
}

// BuildResource constructs the Drive file resource for a request,
// applying the instance defaults for description and MIME type.
func (s *Service) BuildResource(req *SaveRequest) *drive.FileResource {
	res := &drive.FileResource{}

	if req.Meta != nil {
		res.Name = req.Meta.Name
		res.Description = req.Meta.Description
		res.MimeType = req.Meta.MimeType
	}

	if res.Description == "" {
		res.Description = s.opts.DefaultDescription
	}

	if res.MimeType == "" {
		res.MimeType = s.opts.DefaultMimeType
	}

	return res
}

// BuildMedia constructs the media payload. The body is always coerced to
// a string: structured values are JSON-serialized before transport.
func (s *Service) BuildMedia(req *SaveRequest) (drive.Media, error) {
	media := drive.Media{MimeType: req.Type}
	if media.MimeType == "" {
		media.MimeType = s.opts.DefaultContentType
	}

	switch v := req.Body.(type) {
	case nil:
		media.Body = ""
	case string:
		media.Body = v
	case []byte:
		media.Body = string(v)
	case json.RawMessage:
		// A raw JSON string unwraps to its contents; any other raw value
		// is already serialized text.
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			media.Body = str
		} else {
			media.Body = string(v)
		}
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return drive.Media{}, fmt.Errorf("export: serializing body: %w", err)
		}

		media.Body = string(encoded)
	}

	return media, nil
}

// Save executes one export: build resource and media, authorize, then
// create (no id) or update (id present).
func (s *Service) Save(ctx context.Context, req *SaveRequest) (*SavedFile, error) {
	media, err := s.BuildMedia(req)
	if err != nil {
		return nil, err
	}

	resource := s.BuildResource(req)

	token, err := s.accessToken(ctx, req.Auth)
	if err != nil {
		return nil, err
	}

	client := s.client.WithTokenSource(drive.StaticToken(token))

	if req.ID != "" {
		return s.updateFn(ctx, client, req.ID, resource, media)
	}

	var parents []drive.ParentRef
	if req.Meta != nil {
		parents = req.Meta.Parents
	}

	return s.createFn(ctx, client, resource, parents, media)
}

// create uploads a new file. Parent resolution strictly precedes session
// initialization, which strictly precedes the content PUT: the resource
// sent at init time must already carry final parent ids.
func (s *Service) create(
	ctx context.Context, client *drive.Client,
	resource *drive.FileResource, parents []drive.ParentRef, media drive.Media,
) (*SavedFile, error) {
	var resolved []drive.Folder

	if len(parents) > 0 {
		resolver := drive.NewResolver(client, s.cache, s.logger)

		var err error

		resolved, err = resolver.ResolveAll(ctx, parents)
		if err != nil {
			return nil, err
		}

		ids := make([]string, len(resolved))
		for i, folder := range resolved {
			ids[i] = folder.ID
		}

		resource.Parents = ids
	}

	sessionURL, err := client.InitializeUpload(ctx, resource, "")
	if err != nil {
		return nil, err
	}

	file, err := client.Upload(ctx, sessionURL, []byte(media.Body), media.MimeType)
	if err != nil {
		return nil, err
	}

	saved := savedFromFile(file)
	if resolved != nil {
		saved.Parents = resolved
	}

	s.logger.Info("file created",
		slog.String("file_id", saved.ID),
		slog.String("name", saved.Name),
	)

	return saved, nil
}

// update re-uploads content for an existing file id. Parents are not
// touched.
func (s *Service) update(
	ctx context.Context, client *drive.Client,
	fileID string, resource *drive.FileResource, media drive.Media,
) (*SavedFile, error) {
	sessionURL, err := client.InitializeUpload(ctx, resource, fileID)
	if err != nil {
		return nil, err
	}

	file, err := client.Upload(ctx, sessionURL, []byte(media.Body), media.MimeType)
	if err != nil {
		return nil, err
	}

	saved := savedFromFile(file)

	s.logger.Info("file updated",
		slog.String("file_id", saved.ID),
		slog.String("name", saved.Name),
	)

	return saved, nil
}

// ListAppFolders lists all non-trashed folders, newest-modified first.
// A cached listing is returned without authorizing or touching the
// network, regardless of interactive.
func (s *Service) ListAppFolders(ctx context.Context, interactive bool) ([]drive.Folder, error) {
	if listing, ok := s.cache.Listing(); ok {
		return listing, nil
	}

	token, err := s.accessToken(ctx, &AuthSpec{Interactive: interactive})
	if err != nil {
		return nil, err
	}

	resolver := drive.NewResolver(s.client.WithTokenSource(drive.StaticToken(token)), s.cache, s.logger)

	return resolver.ListAppFolders(ctx)
}

// GetFile returns the raw content of a file. Authorization uses the
// default non-interactive token request.
func (s *Service) GetFile(ctx context.Context, fileID string) (string, error) {
	token, err := s.accessToken(ctx, nil)
	if err != nil {
		return "", err
	}

	return s.client.WithTokenSource(drive.StaticToken(token)).DownloadFile(ctx, fileID)
}

// ClearFolderCache drops all cached folder state for this service.
func (s *Service) ClearFolderCache() {
	s.cache.Clear()
}

// accessToken resolves the bearer token for one request: a caller-supplied
// token is used verbatim, otherwise the authorizer is consulted.
func (s *Service) accessToken(ctx context.Context, auth *AuthSpec) (string, error) {
	if auth != nil && auth.AccessToken != "" {
		return auth.AccessToken, nil
	}

	opts := AuthOptions{}
	if auth != nil {
		opts.Interactive = auth.Interactive
	}

	token, err := s.auth.Authorize(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthorization, err)
	}

	if token == "" {
		return "", fmt.Errorf("%w: authorizer returned an empty token", ErrAuthorization)
	}

	return token, nil
}

// savedFromFile maps the wire file resource into a SavedFile. Parent ids
// from the wire become id-only folders; create overwrites them with the
// fully resolved objects.
func savedFromFile(file *drive.File) *SavedFile {
	saved := &SavedFile{
		ID:          file.ID,
		Name:        file.Name,
		Description: file.Description,
		MimeType:    file.MimeType,
	}

	for _, id := range file.Parents {
		saved.Parents = append(saved.Parents, drive.Folder{ID: id})
	}

	return saved
}
