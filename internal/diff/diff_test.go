package diff

import (
	"reflect"
	"testing"

	"github.com/drivelens/drivelens/internal/model"
)

func fileNode(id, name string, bytes int64, modified string) *model.Node {
	f := model.NewFile(id, name)
	f.Size = model.FormatSize(bytes)
	f.ModifiedTime = modified
	return f
}

func testTree(files ...*model.Node) *model.Node {
	root := model.NewFolder("root", "root")
	for _, f := range files {
		root.AddFile(f)
	}
	root.Finish()
	return root
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("id1", "report.pdf", 100, "2024-01-01 10:00:00")
	b := Fingerprint("id1", "report.pdf", 100, "2024-01-01 10:00:00")
	if a != b {
		t.Fatalf("fingerprint not stable: %q vs %q", a, b)
	}

	changed := Fingerprint("id1", "report.pdf", 101, "2024-01-01 10:00:00")
	if a == changed {
		t.Fatal("fingerprint should change when size changes")
	}
}

func TestFlattenFilesOnly(t *testing.T) {
	sub := model.NewFolder("subID", "sub")
	sub.AddFile(fileNode("f2", "two", 20, "2024-01-02 00:00:00"))
	sub.Finish()

	root := model.NewFolder("rootID", "root")
	root.AddFile(fileNode("f1", "one", 10, "2024-01-01 00:00:00"))
	root.AddFolder(sub)
	root.Finish()

	signatures := Flatten(root)
	if len(signatures) != 2 {
		t.Fatalf("len(signatures) = %d, want 2", len(signatures))
	}
	if _, ok := signatures["subID"]; ok {
		t.Fatal("folders must not carry signatures")
	}
	if sig := signatures["f1"]; sig.Name != "one" || sig.Size != 10 {
		t.Fatalf("unexpected signature: %+v", sig)
	}
}

func TestCompareAddedFile(t *testing.T) {
	a := fileNode("A", "a.txt", 100, "2024-01-01 00:00:00")
	previous := Flatten(testTree(a))

	b := fileNode("B", "b.txt", 500, "2024-02-01 00:00:00")
	current := Flatten(testTree(fileNode("A", "a.txt", 100, "2024-01-01 00:00:00"), b))

	changes := Compare(current, previous)
	if len(changes.Added) != 1 || changes.Added[0].ID != "B" || changes.Added[0].Size != 500 {
		t.Fatalf("Added = %+v, want [B]", changes.Added)
	}
	if len(changes.Deleted) != 0 || len(changes.Modified) != 0 {
		t.Fatalf("unexpected deletions/modifications: %+v", changes)
	}
	if changes.TotalChanges != 1 {
		t.Fatalf("TotalChanges = %d, want 1", changes.TotalChanges)
	}
	if changes.Summary != "1 files added" {
		t.Fatalf("Summary = %q", changes.Summary)
	}
}

func TestCompareDeletedAndResized(t *testing.T) {
	previous := Flatten(testTree(
		fileNode("A", "a.txt", 100, "2024-01-01 00:00:00"),
		fileNode("B", "b.txt", 200, "2024-01-01 00:00:00"),
	))
	current := Flatten(testTree(
		fileNode("A", "a.txt", 150, "2024-01-01 00:00:00"),
	))

	changes := Compare(current, previous)
	if len(changes.Deleted) != 1 || changes.Deleted[0].ID != "B" {
		t.Fatalf("Deleted = %+v, want [B]", changes.Deleted)
	}
	if len(changes.Modified) != 1 {
		t.Fatalf("Modified = %+v, want [A]", changes.Modified)
	}
	mod := changes.Modified[0]
	if mod.ID != "A" || mod.ChangeType != TagResized {
		t.Fatalf("unexpected modification: %+v", mod)
	}
	if mod.OldSize != 100 || mod.NewSize != 150 {
		t.Fatalf("sizes not carried: %+v", mod)
	}
	if changes.TotalChanges != 2 {
		t.Fatalf("TotalChanges = %d, want 2", changes.TotalChanges)
	}
}

func TestCompareAllTags(t *testing.T) {
	previous := Flatten(testTree(fileNode("A", "old.txt", 100, "2024-01-01 00:00:00")))
	current := Flatten(testTree(fileNode("A", "new.txt", 200, "2024-02-01 00:00:00")))

	changes := Compare(current, previous)
	if len(changes.Modified) != 1 {
		t.Fatalf("Modified = %+v", changes.Modified)
	}
	want := "renamed, resized, modified"
	if changes.Modified[0].ChangeType != want {
		t.Fatalf("ChangeType = %q, want %q", changes.Modified[0].ChangeType, want)
	}
	if changes.Modified[0].OldName != "old.txt" || changes.Modified[0].Name != "new.txt" {
		t.Fatalf("names not carried: %+v", changes.Modified[0])
	}
}

func TestCompareNoChanges(t *testing.T) {
	tree := testTree(fileNode("A", "a.txt", 100, "2024-01-01 00:00:00"))
	signatures := Flatten(tree)

	changes := Compare(signatures, signatures)
	if changes.TotalChanges != 0 {
		t.Fatalf("TotalChanges = %d, want 0", changes.TotalChanges)
	}
	if changes.Summary != NoChangesSummary {
		t.Fatalf("Summary = %q, want %q", changes.Summary, NoChangesSummary)
	}
}

func TestCompareIdempotent(t *testing.T) {
	previous := Flatten(testTree(
		fileNode("A", "a", 1, "t1"),
		fileNode("B", "b", 2, "t2"),
		fileNode("C", "c", 3, "t3"),
	))
	current := Flatten(testTree(
		fileNode("B", "b2", 2, "t2"),
		fileNode("C", "c", 3, "t3"),
		fileNode("D", "d", 4, "t4"),
	))

	first := Compare(current, previous)
	second := Compare(current, previous)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("compare not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestCompareCompleteness(t *testing.T) {
	previous := Flatten(testTree(
		fileNode("A", "a", 1, "t1"),
		fileNode("B", "b", 2, "t2"),
		fileNode("C", "c", 3, "t3"),
	))
	current := Flatten(testTree(
		fileNode("A", "a", 1, "t1"),
		fileNode("B", "b-renamed", 2, "t2"),
		fileNode("D", "d", 4, "t4"),
	))

	changes := Compare(current, previous)
	unchanged := 1 // A

	if got := len(changes.Added) + unchanged + len(changes.Modified); got != len(current) {
		t.Errorf("added+unchanged+modified = %d, want %d", got, len(current))
	}
	if got := len(changes.Deleted) + unchanged + len(changes.Modified); got != len(previous) {
		t.Errorf("deleted+unchanged+modified = %d, want %d", got, len(previous))
	}
}
