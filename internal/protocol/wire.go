package protocol

import "encoding/json"

// ServerItem is an item as the server renders it.
type ServerItem struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Content   *string         `json:"content"`
	Tags      []string        `json:"tags"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// PullResponse is the body of GET /items and GET /items/since/{ts}.
type PullResponse struct {
	Items []ServerItem `json:"items"`
}

// ItemResponse is the body of GET /items/{id} and PATCH /items/{id}/tags.
type ItemResponse struct {
	Item ServerItem `json:"item"`
}

// PushRequest is the body of POST /items.
type PushRequest struct {
	Type     string          `json:"type" validate:"required,oneof=url text tagset image"`
	Content  *string         `json:"content"`
	Tags     []string        `json:"tags" validate:"dive,required,notblank"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	SyncID   string          `json:"sync_id,omitempty"`
}

// PushResponse is the body returned by POST /items.
type PushResponse struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// TagsRequest is the body of PATCH /items/{id}/tags.
type TagsRequest struct {
	Tags []string `json:"tags" validate:"required,dive,required,notblank"`
}

// DeleteResponse is the body returned by DELETE /items/{id}.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
