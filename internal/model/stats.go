package model

// ScanStats are the run totals persisted with each snapshot. APICalls
// is only present in the data bundle, not in history entries.
type ScanStats struct {
	TotalFiles   int     `json:"totalFiles"`
	TotalFolders int     `json:"totalFolders"`
	TotalSizeMB  float64 `json:"totalSizeMB"`
	APICalls     int     `json:"apiCallsCount,omitempty"`
}
