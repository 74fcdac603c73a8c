package models

// CacheStats summarizes hits and misses of one cache.
type CacheStats struct {
	Keys    int     `json:"keys"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// CleanupResult reports one cleanup job run.
type CleanupResult struct {
	Job     string `json:"job"`
	Deleted int    `json:"deleted"`
	Batches int    `json:"batches"`
	// Truncated is set when the batch cap was reached before the job ran dry.
	Truncated bool `json:"truncated"`
}
