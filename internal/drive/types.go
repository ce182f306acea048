package drive

// FolderMimeType is the MIME type Drive assigns to folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// RootFolderID is the well-known alias for the My Drive root folder.
const RootFolderID = "root"

// FileResource is the Drive file metadata sent when a resumable upload
// session is initialized. Parents holds concrete folder ids only; parent
// references are resolved before the resource goes on the wire.
type FileResource struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	MimeType    string   `json:"mimeType,omitempty"`
	Parents     []string `json:"parents,omitempty"`
}

// Media is the content payload of an upload: the raw body text and the
// content type it is sent with. Immutable once built.
type Media struct {
	MimeType string
	Body     string
}

// File is the file resource Drive returns from the content PUT, decoded
// verbatim from the response body.
type File struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	MimeType    string   `json:"mimeType,omitempty"`
	Parents     []string `json:"parents,omitempty"`
}

// Folder is a resolved {name, id} pair. ID is always populated after
// resolution; Name may be empty for id-only references.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
