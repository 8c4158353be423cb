package models

// SyncConfig is the persisted sync configuration of a local store.
type SyncConfig struct {
	ServerURL    string `json:"serverUrl"`
	APIKey       string `json:"apiKey"`
	LastSyncTime int64  `json:"lastSyncTime"`
	AutoSync     bool   `json:"autoSync"`
}

// Configured reports whether both a server URL and a credential are set.
func (c SyncConfig) Configured() bool {
	return c.ServerURL != "" && c.APIKey != ""
}

// PullResult summarises a pull.
type PullResult struct {
	Pulled    int `json:"pulled"`
	Conflicts int `json:"conflicts"`
}

// PushResult summarises a push.
type PushResult struct {
	Pushed int `json:"pushed"`
	Failed int `json:"failed"`
}

// SyncResult summarises a full sync.
type SyncResult struct {
	Pulled       int   `json:"pulled"`
	Pushed       int   `json:"pushed"`
	Conflicts    int   `json:"conflicts"`
	Failed       int   `json:"failed"`
	LastSyncTime int64 `json:"lastSyncTime"`
}

// SyncStatus reports sync readiness and backlog.
type SyncStatus struct {
	Configured   bool  `json:"configured"`
	LastSyncTime int64 `json:"lastSyncTime"`
	PendingCount int   `json:"pendingCount"`
}
