package model

import "math"

const bytesPerMB = 1024 * 1024

// SizeInfo is the persisted multi-unit representation of a file size.
type SizeInfo struct {
	Bytes int64   `json:"bytes"`
	KB    float64 `json:"kb"`
	MB    float64 `json:"mb"`
	GB    float64 `json:"gb"`
}

// FormatSize converts a byte count into the persisted representation.
func FormatSize(bytes int64) *SizeInfo {
	if bytes < 0 {
		bytes = 0
	}
	return &SizeInfo{
		Bytes: bytes,
		KB:    round2(float64(bytes) / 1024),
		MB:    round2(float64(bytes) / bytesPerMB),
		GB:    round4(float64(bytes) / (1024 * bytesPerMB)),
	}
}

// SizeBuckets counts files per size class: small <1MB, medium <10MB,
// large <100MB, huge >=100MB.
type SizeBuckets struct {
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Large  int `json:"large"`
	Huge   int `json:"huge"`
}

// Add buckets a single file size.
func (b *SizeBuckets) Add(bytes int64) {
	mb := float64(bytes) / bytesPerMB
	switch {
	case mb < 1:
		b.Small++
	case mb < 10:
		b.Medium++
	case mb < 100:
		b.Large++
	default:
		b.Huge++
	}
}

// Merge folds another bucket count in.
func (b *SizeBuckets) Merge(o SizeBuckets) {
	b.Small += o.Small
	b.Medium += o.Medium
	b.Large += o.Large
	b.Huge += o.Huge
}

// Total returns the number of bucketed files.
func (b SizeBuckets) Total() int {
	return b.Small + b.Medium + b.Large + b.Huge
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
