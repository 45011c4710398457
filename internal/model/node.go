// Package model defines the in-memory tree captured from a remote
// hierarchical namespace, plus the derived classification helpers
// (MIME categories, size buckets, timestamp normalization).
package model

// Node kinds as persisted in the tree JSON.
const (
	KindFile   = "file"
	KindFolder = "folder"
)

// Node is one entry in the captured tree. A single struct covers both
// kinds: file-only fields are omitted for folders and vice versa, with
// folder aggregates carried on the embedded FolderAggregate.
type Node struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Kind string `json:"type"`

	// File fields.
	MimeType     string    `json:"mimeType,omitempty"`
	Category     string    `json:"category,omitempty"`
	Size         *SizeInfo `json:"size,omitempty"`
	ModifiedTime string    `json:"modifiedTime,omitempty"`
	CreatedTime  string    `json:"createdTime,omitempty"`

	Link string `json:"driveLink,omitempty"`

	// Folder fields.
	Description string `json:"description,omitempty"`
	*FolderAggregate
	Children []*Node `json:"children,omitempty"`
}

// FolderAggregate holds the derived, bottom-up counters of a folder.
// They are computed while folding children in and never mutated
// independently: for any folder, each counter equals the sum over its
// direct file children plus its subfolders' aggregates.
type FolderAggregate struct {
	FileCount        int            `json:"fileCount"`
	FolderCount      int            `json:"folderCount"`
	TotalSizeMB      float64        `json:"totalSizeMB"`
	LastUpdated      string         `json:"lastUpdated"`
	FileTypes        map[string]int `json:"fileTypes"`
	SizeDistribution SizeBuckets    `json:"sizeDistribution"`
}

// NewFolder creates an empty folder node with zeroed aggregates.
func NewFolder(id, name string) *Node {
	return &Node{
		Name: name,
		ID:   id,
		Kind: KindFolder,
		FolderAggregate: &FolderAggregate{
			LastUpdated: NoTimestamp,
			FileTypes:   make(map[string]int),
		},
	}
}

// NewFile creates a file leaf.
func NewFile(id, name string) *Node {
	return &Node{
		Name: name,
		ID:   id,
		Kind: KindFile,
	}
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// AddFile records a direct file child and folds its metadata into the
// folder's aggregates.
func (n *Node) AddFile(child *Node) {
	agg := n.FolderAggregate
	agg.FileCount++
	if child.Size != nil {
		// Accumulate unrounded; rounding happens once in Finish.
		agg.TotalSizeMB += float64(child.Size.Bytes) / bytesPerMB
		agg.SizeDistribution.Add(child.Size.Bytes)
	} else {
		agg.SizeDistribution.Add(0)
	}
	if child.Category != "" {
		agg.FileTypes[child.Category]++
	}
	agg.LastUpdated = LaterTimestamp(agg.LastUpdated, child.ModifiedTime)
	n.Children = append(n.Children, child)
}

// AddFolder records a subfolder child and folds its finished aggregates
// into this folder's. The child must already be fully scanned.
func (n *Node) AddFolder(child *Node) {
	agg := n.FolderAggregate
	sub := child.FolderAggregate
	agg.FolderCount += 1 + sub.FolderCount
	agg.FileCount += sub.FileCount
	agg.TotalSizeMB += sub.TotalSizeMB
	agg.SizeDistribution.Merge(sub.SizeDistribution)
	for category, count := range sub.FileTypes {
		agg.FileTypes[category] += count
	}
	agg.LastUpdated = LaterTimestamp(agg.LastUpdated, sub.LastUpdated)
	n.Children = append(n.Children, child)
}

// Finish rounds the accumulated size once the folder's children are
// complete, matching the persisted two-decimal representation.
func (n *Node) Finish() {
	n.FolderAggregate.TotalSizeMB = round2(n.FolderAggregate.TotalSizeMB)
}

// Walk visits every node in the tree depth-first, parents before
// children.
func Walk(root *Node, visit func(*Node)) {
	if root == nil {
		return
	}
	visit(root)
	for _, child := range root.Children {
		Walk(child, visit)
	}
}
