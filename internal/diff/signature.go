// Package diff derives per-file identity signatures from a captured
// tree and computes added/deleted/modified change sets between two
// signature maps.
package diff

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/drivelens/drivelens/internal/model"
)

// Signature identifies one file's comparison-relevant state. The JSON
// field names are part of the persisted snapshot contract.
type Signature struct {
	Fingerprint string `json:"signature"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Modified    string `json:"modified"`
}

// Fingerprint hashes a file's identity plus its mutable metadata. It is
// stable across runs for identical input and only needs to be
// practically collision-resistant, not cryptographic.
func Fingerprint(id, name string, size int64, modified string) string {
	sum := xxh3.HashString128(fmt.Sprintf("%s-%s-%d-%s", id, name, size, modified))
	return fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)
}

// Flatten walks the tree and returns a signature per file leaf, keyed
// by remote ID. Folders themselves carry no signature: structural
// changes surface only through the files they contain.
func Flatten(root *model.Node) map[string]Signature {
	signatures := make(map[string]Signature)
	model.Walk(root, func(n *model.Node) {
		if n.IsFolder() {
			return
		}
		var size int64
		if n.Size != nil {
			size = n.Size.Bytes
		}
		signatures[n.ID] = Signature{
			Fingerprint: Fingerprint(n.ID, n.Name, size, n.ModifiedTime),
			Name:        n.Name,
			Size:        size,
			Modified:    n.ModifiedTime,
		}
	})
	return signatures
}
