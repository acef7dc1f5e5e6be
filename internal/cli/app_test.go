package cli

import (
	"path/filepath"
	"testing"

	"github.com/nlcmd/nlcmd/internal/audit"
)

func TestAppCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log, err := audit.Open(path)
	if err != nil {
		t.Fatalf("audit.Open: %v", err)
	}
	if err := log.Record(audit.Entry{Text: "ls", Outcome: "success"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	a := &app{auditLog: log}
	a.close()
	if a.auditLog != nil {
		t.Error("close did not clear the audit log handle")
	}
	// The deferred close after an explicit one must be a no-op.
	a.close()

	if _, err := audit.Verify(path); err != nil {
		t.Errorf("Verify after close: %v", err)
	}
}
