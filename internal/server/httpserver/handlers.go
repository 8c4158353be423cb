package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/protocol"
	"github.com/dmitrijs2005/peeksync/internal/server/models"
	"github.com/dmitrijs2005/peeksync/internal/server/services"
	"github.com/dmitrijs2005/peeksync/internal/timex"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// ItemStore is the item API the handlers call into.
type ItemStore interface {
	List(ctx context.Context, db *sql.DB) ([]*models.Item, error)
	Since(ctx context.Context, db *sql.DB, since int64) ([]*models.Item, error)
	Get(ctx context.Context, db *sql.DB, id string) (*models.Item, error)
	Upsert(ctx context.Context, db *sql.DB, in services.UpsertInput) (*models.Item, bool, error)
	Delete(ctx context.Context, db *sql.DB, id string) error
	ReplaceTags(ctx context.Context, db *sql.DB, id string, tags []string) (*models.Item, error)
}

type itemHandlers struct {
	items    ItemStore
	log      logging.Logger
	validate *validator.Validate
}

func toServerItem(it *models.Item) protocol.ServerItem {
	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}
	var metadata json.RawMessage
	if it.Metadata != "" {
		metadata = json.RawMessage(it.Metadata)
	}
	return protocol.ServerItem{
		ID:        it.ID,
		Type:      it.Type,
		Content:   it.Content,
		Tags:      tags,
		Metadata:  metadata,
		CreatedAt: timex.ToISO(it.CreatedAt),
		UpdatedAt: timex.ToISO(it.UpdatedAt),
	}
}

func toPullResponse(list []*models.Item) protocol.PullResponse {
	out := protocol.PullResponse{Items: make([]protocol.ServerItem, 0, len(list))}
	for _, it := range list {
		out.Items = append(out.Items, toServerItem(it))
	}
	return out
}

// db returns the tenant datastore put on the context by the Tenant
// middleware. A missing one is a wiring bug.
func (h *itemHandlers) db(w http.ResponseWriter, r *http.Request) (*sql.DB, bool) {
	db, ok := tenantDB(r.Context())
	if !ok {
		writeError(w, r, h.log, fmt.Errorf("no tenant datastore on request: %w", common.ErrorInternal))
	}
	return db, ok
}

func (h *itemHandlers) list(w http.ResponseWriter, r *http.Request) {
	db, ok := h.db(w, r)
	if !ok {
		return
	}
	list, err := h.items.List(r.Context(), db)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPullResponse(list))
}

func (h *itemHandlers) since(w http.ResponseWriter, r *http.Request) {
	db, ok := h.db(w, r)
	if !ok {
		return
	}
	ts, err := timex.ParseISO(mux.Vars(r)["timestamp"])
	if err != nil {
		writeError(w, r, h.log, fmt.Errorf("invalid timestamp: %w", common.ErrorValidation))
		return
	}
	list, err := h.items.Since(r.Context(), db, ts)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toPullResponse(list))
}

func (h *itemHandlers) get(w http.ResponseWriter, r *http.Request) {
	db, ok := h.db(w, r)
	if !ok {
		return
	}
	it, err := h.items.Get(r.Context(), db, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.ItemResponse{Item: toServerItem(it)})
}

func (h *itemHandlers) push(w http.ResponseWriter, r *http.Request) {
	db, ok := h.db(w, r)
	if !ok {
		return
	}
	var req protocol.PushRequest
	if err := decodeBody(w, r, h.validate, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	it, created, err := h.items.Upsert(r.Context(), db, services.UpsertInput{
		Type:     req.Type,
		Content:  req.Content,
		Tags:     req.Tags,
		Metadata: req.Metadata,
		SyncID:   req.SyncID,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	profileID, _ := ProfileID(r.Context())
	h.log.Info(r.Context(), "item pushed", "profile_id", profileID, "item_id", it.ID, "created", created)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, protocol.PushResponse{ID: it.ID, Created: created})
}

func (h *itemHandlers) delete(w http.ResponseWriter, r *http.Request) {
	db, ok := h.db(w, r)
	if !ok {
		return
	}
	if err := h.items.Delete(r.Context(), db, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.DeleteResponse{Deleted: true})
}

func (h *itemHandlers) replaceTags(w http.ResponseWriter, r *http.Request) {
	db, ok := h.db(w, r)
	if !ok {
		return
	}
	var req protocol.TagsRequest
	if err := decodeBody(w, r, h.validate, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	it, err := h.items.ReplaceTags(r.Context(), db, mux.Vars(r)["id"], req.Tags)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.ItemResponse{Item: toServerItem(it)})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
