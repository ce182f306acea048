package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// rootSentinel is the case-insensitive folder name that resolves to the
// My Drive root without a network call.
const rootSentinel = "my drive"

// ParentRef is a caller-supplied folder reference: a bare name, an id, or
// both. On the bridge it arrives as either a JSON string (name form) or
// an object.
type ParentRef struct {
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

func (p *ParentRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}

		*p = ParentRef{Name: name}

		return nil
	}

	// Alias type avoids recursing into this method.
	type plain ParentRef

	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	*p = ParentRef(obj)

	return nil
}

// NormalizeParents canonicalizes a parent reference list: the root
// sentinel becomes an id-only reference to "root", references carrying
// neither name nor id are dropped, and everything else passes through.
// Order is preserved.
func NormalizeParents(refs []ParentRef) []ParentRef {
	out := make([]ParentRef, 0, len(refs))

	for _, ref := range refs {
		switch {
		case ref.Name == "" && ref.ID == "":
			// Skip empty entries.
		case ref.ID == "" && strings.EqualFold(ref.Name, rootSentinel):
			out = append(out, ParentRef{ID: RootFolderID})
		default:
			out = append(out, ref)
		}
	}

	return out
}

// FolderCache holds the folders this process has created plus the cached
// app-folder listing. It is owned by the export service (not a package
// global) so independent services never share folders. Created entries
// are append-only for the life of the cache; Clear is the only
// invalidation path.
type FolderCache struct {
	mu      sync.Mutex
	created []Folder
	listing []Folder
}

func NewFolderCache() *FolderCache {
	return &FolderCache{}
}

// Add appends a newly created folder to the cache.
func (c *FolderCache) Add(f Folder) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.created = append(c.created, f)
}

// Created returns a copy of the folders created through this cache.
func (c *FolderCache) Created() []Folder {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Folder, len(c.created))
	copy(out, c.created)

	return out
}

// Listing returns the cached app-folder listing, if one has been stored.
func (c *FolderCache) Listing() ([]Folder, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listing == nil {
		return nil, false
	}

	return c.listing, true
}

// SetListing stores the full app-folder listing.
func (c *FolderCache) SetListing(folders []Folder) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if folders == nil {
		folders = []Folder{}
	}

	c.listing = folders
}

// Clear drops both the created entries and the cached listing.
func (c *FolderCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.created = nil
	c.listing = nil
}

// Resolver converts parent references into folders with guaranteed ids,
// creating folders that do not exist yet. Constructed per operation around
// the operation's authorized client and the service's shared cache.
type Resolver struct {
	client *Client
	cache  *FolderCache
	logger *slog.Logger
}

func NewResolver(client *Client, cache *FolderCache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{client: client, cache: cache, logger: logger}
}

// ResolveAll resolves a parent reference list into concrete folders.
// References already carrying an id pass through without a network call.
// Name-only references are created strictly sequentially, in input order;
// each new folder is appended to the shared cache immediately.
//
// The cache is not consulted before creating: only ListAppFolders reads
// it wholesale. Resolving the same name in two separate top-level
// operations therefore creates two folders unless the caller supplies
// an id.
func (r *Resolver) ResolveAll(ctx context.Context, parents []ParentRef) ([]Folder, error) {
	if len(parents) == 0 {
		return nil, ErrNoParents
	}

	normalized := NormalizeParents(parents)
	resolved := make([]Folder, 0, len(normalized))

	for _, ref := range normalized {
		if ref.ID != "" {
			resolved = append(resolved, Folder{ID: ref.ID, Name: ref.Name})

			continue
		}

		id, err := r.CreateFolder(ctx, ref.Name)
		if err != nil {
			return nil, err
		}

		folder := Folder{ID: id, Name: ref.Name}
		r.cache.Add(folder)
		resolved = append(resolved, folder)
	}

	return resolved, nil
}

// createFolderResponse is the subset of the Drive create response the
// resolver needs, plus the error envelope Drive uses on failures.
type createFolderResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateFolder creates a single folder at the Drive root and returns its id.
// A response carrying an error object is translated into ErrFolderAPI with
// that error's message.
func (r *Resolver) CreateFolder(ctx context.Context, name string) (string, error) {
	r.logger.Info("creating folder", slog.String("name", name))

	body, err := json.Marshal(FileResource{Name: name, MimeType: FolderMimeType})
	if err != nil {
		return "", fmt.Errorf("drive: marshaling folder resource: %w", err)
	}

	resp, err := r.client.do(ctx, http.MethodPost, r.client.baseURL+"/files", bytes.NewReader(body), "application/json; charset=UTF-8")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("drive: reading create folder response: %w", err)
	}

	var created createFolderResponse
	if decErr := json.Unmarshal(raw, &created); decErr != nil {
		return "", fmt.Errorf("drive: decoding create folder response: %w", decErr)
	}

	if created.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrFolderAPI, created.Error.Message)
	}

	if created.ID == "" {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			Err:        ErrFolderAPI,
		}
	}

	return created.ID, nil
}

// listFoldersResponse is the Drive file-list envelope for folder queries.
type listFoldersResponse struct {
	Files []Folder `json:"files"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// appFoldersQuery selects all non-trashed folders.
const appFoldersQuery = "mimeType = '" + FolderMimeType + "' and trashed = false"

// ListAppFolders returns every non-trashed folder, newest-modified first.
// The first successful call caches the entire result in the shared cache;
// later calls in the same process return the cached list without a
// network request. Callers clear the cache to force a refresh.
func (r *Resolver) ListAppFolders(ctx context.Context) ([]Folder, error) {
	if listing, ok := r.cache.Listing(); ok {
		r.logger.Debug("returning cached folder listing", slog.Int("count", len(listing)))

		return listing, nil
	}

	query := url.Values{}
	query.Set("q", appFoldersQuery)
	query.Set("orderBy", "modifiedTime desc")
	query.Set("fields", "files(id, name)")

	resp, err := r.client.do(ctx, http.MethodGet, r.client.baseURL+"/files?"+query.Encode(), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var listed listFoldersResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&listed); decErr != nil {
		return nil, fmt.Errorf("drive: decoding folder listing: %w", decErr)
	}

	if listed.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrFolderAPI, listed.Error.Message)
	}

	r.cache.SetListing(listed.Files)

	r.logger.Info("listed app folders", slog.Int("count", len(listed.Files)))

	return listed.Files, nil
}
