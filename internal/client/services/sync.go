package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/peeksync/internal/client/client"
	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/client/store"
	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/protocol"
	"github.com/dmitrijs2005/peeksync/internal/timex"
)

// SyncService exchanges items with the sync server.
type SyncService interface {
	// Pull fetches server items changed after since and merges them. A nil
	// since means the stored last sync time; a zero since fetches all.
	Pull(ctx context.Context, since *int64) (models.PullResult, error)
	// Push uploads every item eligible under lastSync.
	Push(ctx context.Context, lastSync int64) (models.PushResult, error)
	// SyncAll pulls, then pushes, then records the start time as the last
	// sync time.
	SyncAll(ctx context.Context) (models.SyncResult, error)
	Status(ctx context.Context) (models.SyncStatus, error)
}

type syncService struct {
	store  store.Store
	client client.Client
	log    logging.Logger
	now    func() int64
}

// NewSyncService builds a SyncService. A nil now uses the wall clock.
func NewSyncService(st store.Store, c client.Client, log logging.Logger, now func() int64) SyncService {
	if now == nil {
		now = timex.NowMillis
	}
	return &syncService{store: st, client: c, log: log, now: now}
}

type mergeOutcome int

const (
	outcomeSkipped mergeOutcome = iota
	outcomePulled
	outcomeConflict
)

func (s *syncService) config(ctx context.Context) (models.SyncConfig, error) {
	cfg, err := LoadSyncConfig(ctx, s.store)
	if err != nil {
		return cfg, fmt.Errorf("failed to load sync config: %w", err)
	}
	if !cfg.Configured() {
		return cfg, common.ErrNotConfigured
	}
	return cfg, nil
}

func (s *syncService) Pull(ctx context.Context, since *int64) (models.PullResult, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return models.PullResult{}, err
	}
	if since == nil {
		since = &cfg.LastSyncTime
	}
	return s.pull(ctx, since)
}

func (s *syncService) Push(ctx context.Context, lastSync int64) (models.PushResult, error) {
	if _, err := s.config(ctx); err != nil {
		return models.PushResult{}, err
	}
	return s.push(ctx, lastSync)
}

func (s *syncService) SyncAll(ctx context.Context) (models.SyncResult, error) {
	start := s.now()

	cfg, err := s.config(ctx)
	if err != nil {
		return models.SyncResult{}, err
	}

	s.log.Info(ctx, "sync started", "lastSyncTime", cfg.LastSyncTime)

	pulled, err := s.pull(ctx, &cfg.LastSyncTime)
	if err != nil {
		return models.SyncResult{}, err
	}

	pushed, err := s.push(ctx, cfg.LastSyncTime)
	if err != nil {
		return models.SyncResult{Pulled: pulled.Pulled, Conflicts: pulled.Conflicts}, err
	}

	// the start time, so edits made while syncing are seen next time
	if err := saveLastSyncTime(ctx, s.store, start); err != nil {
		return models.SyncResult{}, fmt.Errorf("failed to save last sync time: %w", err)
	}

	res := models.SyncResult{
		Pulled:       pulled.Pulled,
		Pushed:       pushed.Pushed,
		Conflicts:    pulled.Conflicts,
		Failed:       pushed.Failed,
		LastSyncTime: start,
	}
	s.log.Info(ctx, "sync complete", "pulled", res.Pulled, "pushed", res.Pushed,
		"conflicts", res.Conflicts, "failed", res.Failed)
	return res, nil
}

func (s *syncService) Status(ctx context.Context) (models.SyncStatus, error) {
	cfg, err := LoadSyncConfig(ctx, s.store)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("failed to load sync config: %w", err)
	}
	n, err := s.store.CountPending(ctx, cfg.LastSyncTime)
	if err != nil {
		return models.SyncStatus{}, err
	}
	return models.SyncStatus{
		Configured:   cfg.Configured(),
		LastSyncTime: cfg.LastSyncTime,
		PendingCount: n,
	}, nil
}

func (s *syncService) pull(ctx context.Context, since *int64) (models.PullResult, error) {
	var res models.PullResult

	items, err := s.client.FetchItems(ctx, since)
	if err != nil {
		return res, fmt.Errorf("pull: %w", err)
	}
	s.log.Info(ctx, "received server items", "count", len(items))

	for _, si := range items {
		outcome, err := s.merge(ctx, si)
		if err != nil {
			s.log.Warn(ctx, "failed to merge server item", "id", si.ID, "error", err)
			continue
		}
		switch outcome {
		case outcomePulled:
			res.Pulled++
		case outcomeConflict:
			res.Conflicts++
		}
	}

	s.log.Info(ctx, "pull complete", "pulled", res.Pulled, "conflicts", res.Conflicts)
	return res, nil
}

func (s *syncService) merge(ctx context.Context, si protocol.ServerItem) (mergeOutcome, error) {
	remoteUpdated := timex.FromISO(si.UpdatedAt)

	local, err := s.store.FindSyncTarget(ctx, si.ID)
	if errors.Is(err, common.ErrorNotFound) {
		itemType, err := models.ParseItemType(si.Type)
		if err != nil {
			return outcomeSkipped, err
		}
		id, err := s.store.InsertPulledItem(ctx, &models.Item{
			Type:       itemType,
			Content:    si.Content,
			Metadata:   metadataString(si.Metadata),
			SyncID:     si.ID,
			SyncSource: common.SyncSourceServer,
			SyncedAt:   s.now(),
			CreatedAt:  timex.FromISO(si.CreatedAt),
			UpdatedAt:  remoteUpdated,
		})
		if err != nil {
			return outcomeSkipped, err
		}
		s.syncTags(ctx, id, si)
		return outcomePulled, nil
	}
	if err != nil {
		return outcomeSkipped, err
	}

	switch {
	case remoteUpdated > local.UpdatedAt:
		err := s.store.ApplyRemoteUpdate(ctx, local.ID, si.Content, metadataString(si.Metadata), remoteUpdated, s.now())
		if err != nil {
			return outcomeSkipped, err
		}
		s.syncTags(ctx, local.ID, si)
		return outcomePulled, nil
	case local.UpdatedAt > remoteUpdated:
		return outcomeConflict, nil
	default:
		return outcomeSkipped, nil
	}
}

// syncTags applies the server's tag set to an item that is already stored.
// The item stays pulled when this fails; the next change to it retries.
func (s *syncService) syncTags(ctx context.Context, itemID string, si protocol.ServerItem) {
	if err := s.replaceTags(ctx, itemID, si.Tags); err != nil {
		s.log.Warn(ctx, "failed to apply server tags", "id", si.ID, "item", itemID, "error", err)
	}
}

// replaceTags swaps the item's whole tag set for names. Local-only tags on
// the item are dropped.
func (s *syncService) replaceTags(ctx context.Context, itemID string, names []string) error {
	if err := s.store.ClearItemTags(ctx, itemID); err != nil {
		return err
	}
	for _, name := range names {
		tag, _, err := s.store.GetOrCreateTag(ctx, name)
		if errors.Is(err, common.ErrorValidation) {
			continue
		}
		if err != nil {
			return err
		}
		if _, _, err := s.store.TagItem(ctx, itemID, tag.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *syncService) push(ctx context.Context, lastSync int64) (models.PushResult, error) {
	var res models.PushResult

	items, err := s.store.PendingItems(ctx, lastSync)
	if err != nil {
		return res, fmt.Errorf("push: %w", err)
	}
	s.log.Info(ctx, "pushing items", "count", len(items), "lastSyncTime", lastSync)

	for _, it := range items {
		req, err := s.pushRequest(ctx, it)
		if err != nil {
			s.log.Warn(ctx, "failed to prepare item for push", "id", it.ID, "error", err)
			res.Failed++
			continue
		}

		resp, err := s.client.PushItem(ctx, req)
		if err != nil {
			if isFatal(err) {
				return res, fmt.Errorf("push: %w", err)
			}
			s.log.Warn(ctx, "failed to push item", "id", it.ID, "error", err)
			res.Failed++
			continue
		}

		if err := s.store.MarkPushed(ctx, it.ID, resp.ID, s.now()); err != nil {
			s.log.Warn(ctx, "failed to record push", "id", it.ID, "error", err)
			res.Failed++
			continue
		}
		res.Pushed++
	}

	s.log.Info(ctx, "push complete", "pushed", res.Pushed, "failed", res.Failed)
	return res, nil
}

func (s *syncService) pushRequest(ctx context.Context, it *models.Item) (protocol.PushRequest, error) {
	tags, err := s.store.GetItemTags(ctx, it.ID)
	if err != nil {
		return protocol.PushRequest{}, err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}

	req := protocol.PushRequest{
		Type:    string(it.Type),
		Content: it.Content,
		Tags:    names,
		SyncID:  it.SyncID,
	}
	if req.SyncID == "" {
		req.SyncID = it.ID
	}
	if it.Metadata != "" && it.Metadata != "{}" && json.Valid([]byte(it.Metadata)) {
		req.Metadata = json.RawMessage(it.Metadata)
	}
	return req, nil
}

// isFatal reports errors that abort the whole pull or push instead of
// failing a single item.
func isFatal(err error) bool {
	return isPermanent(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// isPermanent reports errors that make every later sync fail the same way.
func isPermanent(err error) bool {
	return errors.Is(err, common.ErrVersionMismatch) ||
		errors.Is(err, common.ErrSyncDisabled) ||
		errors.Is(err, client.ErrUnauthorized)
}

// metadataString turns a server metadata value into a stored JSON object.
func metadataString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "{}"
	}
	return buf.String()
}
