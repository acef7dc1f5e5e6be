package platform

import (
	"errors"
	"strings"
	"testing"

	"github.com/nlcmd/nlcmd/internal/intent"
)

func TestTableComplete(t *testing.T) {
	if err := NewTable().Validate(); err != nil {
		t.Fatalf("built-in table incomplete: %v", err)
	}
}

func TestResolveListFilesLinux(t *testing.T) {
	tbl := NewTable()

	cmd, err := tbl.Resolve(intent.Intent{Category: intent.ListFiles}, Linux)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cmd != "ls -la" {
		t.Errorf("cmd = %q, want ls -la", cmd)
	}
}

func TestResolveCreateDirectoryWindows(t *testing.T) {
	tbl := NewTable()

	in := intent.Intent{
		Category: intent.CreateDirectory,
		Params:   map[string]string{"name": "test"},
	}
	cmd, err := tbl.Resolve(in, Windows)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cmd != "mkdir test" {
		t.Errorf("cmd = %q, want mkdir test", cmd)
	}
}

func TestResolveMemoryUsagePerFamily(t *testing.T) {
	tbl := NewTable()
	in := intent.Intent{Category: intent.MemoryUsage}

	tests := []struct {
		family Family
		want   string
	}{
		{Linux, "free -h"},
		{MacOS, "vm_stat"},
	}
	for _, tt := range tests {
		cmd, err := tbl.Resolve(in, tt.family)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tt.family, err)
		}
		if cmd != tt.want {
			t.Errorf("Resolve(%s) = %q, want %q", tt.family, cmd, tt.want)
		}
	}
}

func TestMissingRequiredParam(t *testing.T) {
	tbl := NewTable()

	_, err := tbl.Resolve(intent.Intent{Category: intent.ChangeDirectory}, Linux)
	if err == nil {
		t.Fatal("expected error for missing path param")
	}
	var missing *MissingParamError
	if !errors.As(err, &missing) {
		t.Fatalf("error type = %T, want *MissingParamError", err)
	}
	if missing.Param != "path" {
		t.Errorf("missing param = %q, want path", missing.Param)
	}
}

func TestSubstitutionIsVerbatim(t *testing.T) {
	tbl := NewTable()

	// The table does not sanitize; hostile parameters pass through and
	// are caught by the policy layer instead.
	in := intent.Intent{
		Category: intent.ChangeDirectory,
		Params:   map[string]string{"path": "/tmp; rm -rf /"},
	}
	cmd, err := tbl.Resolve(in, Linux)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cmd != "cd /tmp; rm -rf /" {
		t.Errorf("cmd = %q, want verbatim substitution", cmd)
	}
}

func TestTemplateLookup(t *testing.T) {
	tbl := NewTable()

	tmpl, ok := tbl.Template(intent.ShowSpecificProcesses, Linux)
	if !ok {
		t.Fatal("expected template for show_specific_processes/linux")
	}
	if !strings.Contains(tmpl, "|") {
		t.Errorf("template %q should own a pipe", tmpl)
	}

	if _, ok := tbl.Template(intent.Unknown, Linux); ok {
		t.Error("expected no template for unknown")
	}
}

func TestParseFamily(t *testing.T) {
	tests := []struct {
		in      string
		want    Family
		wantErr bool
	}{
		{"windows", Windows, false},
		{"Linux", Linux, false},
		{"macos", MacOS, false},
		{"darwin", MacOS, false},
		{"plan9", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFamily(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFamily(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFamily(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFamily(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseFamilyEmptyDetects(t *testing.T) {
	got, err := ParseFamily("")
	if err != nil {
		t.Fatalf("ParseFamily(\"\"): %v", err)
	}
	if got != Detect() {
		t.Errorf("ParseFamily(\"\") = %s, want %s", got, Detect())
	}
}
