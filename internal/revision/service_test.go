package revision

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDocumentRepoLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Snapshot{
		Title:     "Hiring update",
		PlainText: "The chairman opened the meeting.",
		RichContent: json.RawMessage(`{
			"type":"doc",
			"content":[{"type":"paragraph","content":[{"type":"text","text":"The chairman opened the meeting."}]}]
		}`),
	}

	if err := svc.EnsureDocumentRepo("42", initial, "Robin"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "42")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}

	// Second call is a no-op.
	if err := svc.EnsureDocumentRepo("42", initial, "Robin"); err != nil {
		t.Fatalf("repeat EnsureDocumentRepo() error = %v", err)
	}

	updated := initial
	updated.PlainText = "The chairperson opened the meeting."
	updated.AnalysisMode = "language"
	commit, err := svc.CommitSnapshot("42", updated, "Robin", "Apply suggested wording")
	if err != nil {
		t.Fatalf("CommitSnapshot() error = %v", err)
	}
	if commit.Hash == "" {
		t.Fatal("expected commit hash")
	}

	history, err := svc.History("42", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Author != "Robin" {
		t.Errorf("author = %q", history[0].Author)
	}

	snapshot, err := svc.GetSnapshot("42", commit.Hash)
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if snapshot.PlainText != updated.PlainText {
		t.Errorf("snapshot text = %q", snapshot.PlainText)
	}
	if snapshot.AnalysisMode != "language" {
		t.Errorf("snapshot mode = %q", snapshot.AnalysisMode)
	}
}

func TestCommitSnapshotUnchangedContent(t *testing.T) {
	svc := New(t.TempDir())
	snapshot := Snapshot{Title: "Doc", PlainText: "unchanged"}

	if err := svc.EnsureDocumentRepo("7", snapshot, "Robin"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}

	first, err := svc.CommitSnapshot("7", snapshot, "Robin", "No changes")
	if err != nil {
		t.Fatalf("CommitSnapshot() error = %v", err)
	}

	history, err := svc.History("7", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1 (no empty commits)", len(history))
	}
	if history[0].Hash != first.Hash {
		t.Errorf("head = %q, want %q", history[0].Hash, first.Hash)
	}
}

func TestHistoryLimit(t *testing.T) {
	svc := New(t.TempDir())
	snapshot := Snapshot{Title: "Doc", PlainText: "v0"}

	if err := svc.EnsureDocumentRepo("9", snapshot, "Robin"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}
	for _, text := range []string{"v1", "v2", "v3"} {
		snapshot.PlainText = text
		if _, err := svc.CommitSnapshot("9", snapshot, "Robin", "Save "+text); err != nil {
			t.Fatalf("CommitSnapshot(%s) error = %v", text, err)
		}
	}

	history, err := svc.History("9", 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Message != "Save v3" {
		t.Errorf("newest commit = %q", history[0].Message)
	}
}
