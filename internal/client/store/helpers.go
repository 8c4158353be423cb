package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dmitrijs2005/peeksync/internal/client/models"
	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/google/uuid"
)

const (
	PrefixItem    = "item"
	PrefixTag     = "tag"
	PrefixItemTag = "item_tag"
)

// GenerateID returns "<prefix>_<unixMillis>_<first uuid segment>".
func GenerateID(prefix string) string {
	u := uuid.NewString()
	seg, _, _ := strings.Cut(u, "-")
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), seg)
}

// NormalizeTagName trims name and rejects blanks.
func NormalizeTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("tag name is blank: %w", common.ErrorValidation)
	}
	return name, nil
}

// TagKey is the case-folded form of a normalized tag name. Two names with
// the same key are the same tag in every backend.
func TagKey(name string) string {
	return strings.ToLower(name)
}

// TagSlug lowercases name and replaces spaces with dashes.
func TagSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

const msPerDay = 24 * 60 * 60 * 1000

// Frecency scores a tag: frequency*10 decayed by days since last use, with a
// one-week half weight.
func Frecency(frequency, lastUsedAt, now int64) int64 {
	days := float64(now-lastUsedAt) / msPerDay
	decay := 1.0 / (1.0 + days/7.0)
	return int64(math.Round(float64(frequency) * 10.0 * decay))
}

// NormalizeMetadata returns s if it is a JSON object, "{}" for an empty
// string, and an error otherwise.
func NormalizeMetadata(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "{}", nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return "", fmt.Errorf("metadata must be a JSON object: %w", common.ErrorValidation)
	}
	return s, nil
}

// MergeMetadata overlays the keys of patch onto base. Both must be JSON
// objects; an unreadable base is treated as empty.
func MergeMetadata(base, patch string) (string, error) {
	if _, err := NormalizeMetadata(patch); err != nil {
		return "", err
	}

	merged := map[string]any{}
	_ = json.Unmarshal([]byte(base), &merged)
	if merged == nil {
		merged = map[string]any{}
	}

	var p map[string]any
	if err := json.Unmarshal([]byte(patch), &p); err != nil {
		return "", fmt.Errorf("metadata must be a JSON object: %w", common.ErrorValidation)
	}
	for k, v := range p {
		merged[k] = v
	}

	b, err := json.Marshal(merged)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// PushEligible is the push predicate shared by every backend: live items
// never synced, or, once a sync has happened, items changed since their
// last sync touch.
func PushEligible(item *models.Item, lastSync int64) bool {
	if item.IsDeleted() {
		return false
	}
	if item.SyncSource == "" {
		return true
	}
	return lastSync > 0 && item.SyncedAt > 0 && item.UpdatedAt > item.SyncedAt
}
