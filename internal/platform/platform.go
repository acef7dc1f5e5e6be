// Package platform maps abstract intents to concrete, OS-specific command
// lines. The table is static, validated for completeness at startup, and
// never mutated afterwards.
package platform

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/nlcmd/nlcmd/internal/intent"
)

// Family is the OS family used for command resolution.
type Family string

const (
	Windows Family = "windows"
	Linux   Family = "linux"
	MacOS   Family = "macos"
)

// Families lists every supported OS family.
var Families = []Family{Windows, Linux, MacOS}

// Detect returns the family of the host OS. Unrecognized systems resolve
// as Linux, the least surprising default for a Unix-like host.
func Detect() Family {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin":
		return MacOS
	default:
		return Linux
	}
}

// ParseFamily converts a user-supplied string to a Family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows":
		return Windows, nil
	case "linux":
		return Linux, nil
	case "macos", "darwin":
		return MacOS, nil
	case "":
		return Detect(), nil
	default:
		return "", fmt.Errorf("unsupported os family %q", s)
	}
}

// Entry is one command template. Placeholders use {name} syntax and are
// substituted verbatim. The safety policy, not the table, is the last line
// of defense against parameter-borne injection.
type Entry struct {
	Template string
	Required []string
}

// MissingParamError reports a required template parameter with no safe
// default. Resolution fails and the turn ends unresolved.
type MissingParamError struct {
	Category intent.Category
	Param    string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("category %s requires parameter %q", e.Category, e.Param)
}

// Table is the (category, family) → template lookup.
type Table struct {
	entries map[intent.Category]map[Family]Entry
}

// NewTable returns the built-in command table.
func NewTable() *Table {
	return &Table{entries: builtinEntries}
}

// Validate asserts the completeness invariant: every resolvable category
// has an entry for every supported family.
func (t *Table) Validate() error {
	for _, c := range intent.Categories {
		byFamily, ok := t.entries[c]
		if !ok {
			return fmt.Errorf("platform table: category %s has no entries", c)
		}
		for _, f := range Families {
			if _, ok := byFamily[f]; !ok {
				return fmt.Errorf("platform table: category %s missing entry for %s", c, f)
			}
		}
	}
	return nil
}

// Template returns the raw command template for a category and family,
// before parameter substitution. The policy layer compares resolved
// commands against it to detect parameter-borne chaining.
func (t *Table) Template(c intent.Category, f Family) (string, bool) {
	byFamily, ok := t.entries[c]
	if !ok {
		return "", false
	}
	entry, ok := byFamily[f]
	if !ok {
		return "", false
	}
	return entry.Template, true
}

// Resolve turns an intent into a concrete command line for the family.
// Unknown categories never reach here; the resolver stops them earlier.
func (t *Table) Resolve(in intent.Intent, f Family) (string, error) {
	byFamily, ok := t.entries[in.Category]
	if !ok {
		return "", fmt.Errorf("no command mapping for category %s", in.Category)
	}
	entry, ok := byFamily[f]
	if !ok {
		return "", fmt.Errorf("no %s command for category %s", f, in.Category)
	}

	for _, p := range entry.Required {
		if in.Param(p) == "" {
			return "", &MissingParamError{Category: in.Category, Param: p}
		}
	}

	cmd := entry.Template
	for name, value := range in.Params {
		cmd = strings.ReplaceAll(cmd, "{"+name+"}", value)
	}
	return strings.TrimSpace(cmd), nil
}

// builtinEntries holds the per-OS command templates.
var builtinEntries = map[intent.Category]map[Family]Entry{
	intent.ListFiles: {
		Windows: {Template: "dir"},
		Linux:   {Template: "ls -la"},
		MacOS:   {Template: "ls -la"},
	},
	intent.ListExtFiles: {
		Windows: {Template: "dir *.{ext}", Required: []string{"ext"}},
		Linux:   {Template: "ls -la *.{ext}", Required: []string{"ext"}},
		MacOS:   {Template: "ls -la *.{ext}", Required: []string{"ext"}},
	},
	intent.CurrentDirectory: {
		Windows: {Template: "cd"},
		Linux:   {Template: "pwd"},
		MacOS:   {Template: "pwd"},
	},
	intent.ChangeDirectory: {
		Windows: {Template: "cd {path}", Required: []string{"path"}},
		Linux:   {Template: "cd {path}", Required: []string{"path"}},
		MacOS:   {Template: "cd {path}", Required: []string{"path"}},
	},
	intent.CreateDirectory: {
		Windows: {Template: "mkdir {name}", Required: []string{"name"}},
		Linux:   {Template: "mkdir {name}", Required: []string{"name"}},
		MacOS:   {Template: "mkdir {name}", Required: []string{"name"}},
	},
	intent.RemoveFile: {
		Windows: {Template: "del {path}", Required: []string{"path"}},
		Linux:   {Template: "rm {path}", Required: []string{"path"}},
		MacOS:   {Template: "rm {path}", Required: []string{"path"}},
	},
	intent.RemoveDirectory: {
		Windows: {Template: "rmdir /s /q {path}", Required: []string{"path"}},
		Linux:   {Template: "rm -rf {path}", Required: []string{"path"}},
		MacOS:   {Template: "rm -rf {path}", Required: []string{"path"}},
	},
	intent.CopyFile: {
		Windows: {Template: "copy {src} {dst}", Required: []string{"src", "dst"}},
		Linux:   {Template: "cp {src} {dst}", Required: []string{"src", "dst"}},
		MacOS:   {Template: "cp {src} {dst}", Required: []string{"src", "dst"}},
	},
	intent.MoveFile: {
		Windows: {Template: "move {src} {dst}", Required: []string{"src", "dst"}},
		Linux:   {Template: "mv {src} {dst}", Required: []string{"src", "dst"}},
		MacOS:   {Template: "mv {src} {dst}", Required: []string{"src", "dst"}},
	},
	intent.ShowProcesses: {
		Windows: {Template: "tasklist"},
		Linux:   {Template: "ps aux"},
		MacOS:   {Template: "ps aux"},
	},
	intent.ShowSpecificProcesses: {
		Windows: {Template: `tasklist /fi "imagename eq {filter}*"`, Required: []string{"filter"}},
		Linux:   {Template: "ps aux | grep {filter}", Required: []string{"filter"}},
		MacOS:   {Template: "ps aux | grep {filter}", Required: []string{"filter"}},
	},
	intent.NetworkInfo: {
		Windows: {Template: "ipconfig"},
		Linux:   {Template: "ifconfig"},
		MacOS:   {Template: "ifconfig"},
	},
	intent.NetworkConnections: {
		Windows: {Template: "netstat -an"},
		Linux:   {Template: "netstat -tuln"},
		MacOS:   {Template: "netstat -tuln"},
	},
	intent.SystemInfo: {
		Windows: {Template: "systeminfo"},
		Linux:   {Template: "uname -a"},
		MacOS:   {Template: "uname -a"},
	},
	intent.DiskUsage: {
		Windows: {Template: "dir /-c"},
		Linux:   {Template: "df -h"},
		MacOS:   {Template: "df -h"},
	},
	intent.EnvironmentVars: {
		Windows: {Template: "set"},
		Linux:   {Template: "env"},
		MacOS:   {Template: "env"},
	},
	intent.LoggedUsers: {
		Windows: {Template: "query user"},
		Linux:   {Template: "who"},
		MacOS:   {Template: "who"},
	},
	intent.LargeFiles: {
		Windows: {Template: "dir /s /o-s"},
		Linux:   {Template: "find . -size +100M -ls"},
		MacOS:   {Template: "find . -size +100M -ls"},
	},
	intent.RecentFiles: {
		Windows: {Template: `forfiles /m *.* /c "cmd /c echo @path @fdate"`},
		Linux:   {Template: "find . -mtime -1 -ls"},
		MacOS:   {Template: "find . -mtime -1 -ls"},
	},
	intent.FileCount: {
		Windows: {Template: `dir /b | find /c /v ""`},
		Linux:   {Template: "ls -1 | wc -l"},
		MacOS:   {Template: "ls -1 | wc -l"},
	},
	intent.MemoryUsage: {
		Windows: {Template: `systeminfo | findstr "Available Physical Memory"`},
		Linux:   {Template: "free -h"},
		MacOS:   {Template: "vm_stat"},
	},
}
