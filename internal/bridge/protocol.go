// Package bridge carries export requests and results across the process
// boundary between the desktop application and the service. Requests and
// responses are paired by a monotonic request id; the shipped transport
// is a single websocket connection exchanging JSON envelopes.
package bridge

import "encoding/json"

// Logical method names of the cross-process protocol.
const (
	MethodSaveFile       = "save-file"
	MethodListAppFolders = "list-app-folders"
	MethodGetFile        = "get-file"
)

// Request is the outbound envelope: the correlator-assigned id, the
// logical method, and the method's payload.
type Request struct {
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the inbound envelope. Exactly one of Result and Error is
// set. Errors are always normalized to a bare message before crossing
// the boundary; native error values never travel.
type Response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is the normalized failure shape of the protocol.
type ErrorBody struct {
	Message string `json:"message"`
}

// ListFoldersPayload is the payload of a list-app-folders request.
type ListFoldersPayload struct {
	Interactive bool `json:"interactive,omitempty"`
}
