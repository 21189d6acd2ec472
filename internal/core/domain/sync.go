package domain

// SyncResult reports the outcome of one content sync run.
type SyncResult struct {
	Success  bool `json:"success"`
	Imported int  `json:"imported"`
	Skipped  int  `json:"skipped"`
	Total    int  `json:"total"`
}
