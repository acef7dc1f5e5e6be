// Package intent defines the structured representation of what the user
// wants, independent of OS syntax, and the strategies that produce it.
package intent

// Category identifies the kind of action the user asked for.
type Category string

// Supported categories. The set is closed but extensible: adding a category
// requires a platform table entry for every OS family (validated at startup).
const (
	ListFiles             Category = "list_files"
	ListExtFiles          Category = "list_ext_files"
	CurrentDirectory      Category = "current_directory"
	ChangeDirectory       Category = "change_directory"
	CreateDirectory       Category = "create_directory"
	RemoveFile            Category = "remove_file"
	RemoveDirectory       Category = "remove_directory"
	CopyFile              Category = "copy_file"
	MoveFile              Category = "move_file"
	ShowProcesses         Category = "show_processes"
	ShowSpecificProcesses Category = "show_specific_processes"
	NetworkInfo           Category = "network_info"
	NetworkConnections    Category = "network_connections"
	SystemInfo            Category = "system_info"
	DiskUsage             Category = "disk_usage"
	EnvironmentVars       Category = "environment_vars"
	LoggedUsers           Category = "logged_users"
	LargeFiles            Category = "large_files"
	RecentFiles           Category = "recent_files"
	FileCount             Category = "file_count"
	MemoryUsage           Category = "memory_usage"
	Unknown               Category = "unknown"
)

// Categories lists every resolvable category in declaration order.
// Unknown is deliberately absent; it never resolves to a command.
var Categories = []Category{
	ListFiles, ListExtFiles, CurrentDirectory, ChangeDirectory,
	CreateDirectory, RemoveFile, RemoveDirectory, CopyFile, MoveFile,
	ShowProcesses, ShowSpecificProcesses, NetworkInfo,
	NetworkConnections, SystemInfo, DiskUsage, EnvironmentVars,
	LoggedUsers, LargeFiles, RecentFiles, FileCount, MemoryUsage,
}

// Valid reports whether c is a known resolvable category.
func Valid(c Category) bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// Confidence is informational only. It is surfaced to the user and never
// relaxes the safety policy.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Source names the strategy that produced an intent.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceModel   Source = "model"
)

// Intent is the structured result of parsing one user turn.
// Invariant: Category == Unknown implies empty Params and low confidence.
type Intent struct {
	Category   Category          `json:"category"`
	Params     map[string]string `json:"params,omitempty"`
	Confidence Confidence        `json:"confidence"`
}

// NewUnknown returns the canonical unresolved intent.
func NewUnknown() Intent {
	return Intent{Category: Unknown, Confidence: ConfidenceLow}
}

// Param returns the named parameter or "" when absent.
func (in Intent) Param(name string) string {
	if in.Params == nil {
		return ""
	}
	return in.Params[name]
}
