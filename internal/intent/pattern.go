package intent

import (
	"context"
	"regexp"
	"strings"
)

// categoryPatterns binds one category to its ordered pattern list and the
// parameter name filled from the first capture group, if any.
type categoryPatterns struct {
	category Category
	param    string
	fallback string // param value used when a pattern has no capture group
	patterns []*regexp.Regexp
}

func group(c Category, param string, exprs ...string) categoryPatterns {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		compiled[i] = regexp.MustCompile(e)
	}
	return categoryPatterns{category: c, param: param, patterns: compiled}
}

func groupDefault(c Category, param, fallback string, exprs ...string) categoryPatterns {
	g := group(c, param, exprs...)
	g.fallback = fallback
	return g
}

// patternTable is evaluated in declaration order; the first category whose
// pattern set matches wins. Order is load-bearing: more specific groups
// (python files, specific processes) come before their generic siblings.
var patternTable = []categoryPatterns{
	groupDefault(ListExtFiles, "ext", "py",
		`python.*files?`,
		`\.py\b.*files?`,
		`show.*python`,
		`list.*python`,
		`all.*\.([a-z0-9]+).*files?`,
	),
	group(ListFiles, "",
		`list.*files?.*current.*director`,
		`show.*files?.*current.*director`,
		`list.*files?.*here`,
		`show.*files?.*here`,
		`list.*director.*content`,
		`what.*files?.*here`,
		`show.*all.*files?`,
		`display.*files?`,
		`files?.*in.*this`,
		`contents?.*of.*this`,
		`^dir$`,
		`^ls$`,
	),
	group(CurrentDirectory, "",
		`show.*current.*director`,
		`what.*current.*director`,
		`where.*am.*i`,
		`current.*path`,
		`working.*director`,
		`current.*location`,
		`present.*working`,
		`^pwd$`,
	),
	group(ChangeDirectory, "path",
		`change.*director.*to\s+(\S+)`,
		`go.*to.*director.*?\s(\S+)$`,
		`^cd\s+(\S+)`,
		`navigate.*to\s+(\S+)`,
		`switch.*to.*director.*?\s(\S+)$`,
	),
	group(CreateDirectory, "name",
		`create.*director.*?\s(\S+)$`,
		`make.*director.*?\s(\S+)$`,
		`^mkdir\s+(\S+)`,
		`new.*folder.*?\s(\S+)$`,
		`create.*folder.*?\s(\S+)$`,
		`make.*folder.*?\s(\S+)$`,
	),
	group(ShowSpecificProcesses, "filter",
		`process(?:es)?.*contain(?:ing)?\s+(\w+)`,
		`find.*process(?:es)?.*?\s(\w+)$`,
		`tasks?.*with\s+(\w+)`,
	),
	group(ShowProcesses, "",
		`show.*process`,
		`list.*process`,
		`running.*process`,
		`task.*list`,
		`what.*process.*running`,
		`active.*process`,
		`process.*list`,
		`^ps$`,
	),
	group(NetworkConnections, "",
		`network.*connection`,
		`active.*connection`,
		`open.*connection`,
		`established.*connection`,
		`^netstat$`,
		`who.*connected`,
	),
	group(NetworkInfo, "",
		`show.*network.*info`,
		`network.*config`,
		`ip.*config`,
		`network.*settings`,
		`network.*details`,
		`my.*ip`,
		`network.*address`,
	),
	group(SystemInfo, "",
		`system.*info`,
		`computer.*info`,
		`machine.*info`,
		`system.*details`,
		`hardware.*info`,
		`system.*specification`,
	),
	group(DiskUsage, "",
		`disk.*usage`,
		`disk.*space`,
		`storage.*info`,
		`free.*space`,
		`available.*space`,
		`how.*much.*space`,
		`storage.*usage`,
	),
	group(EnvironmentVars, "",
		`environment.*variable`,
		`env.*var`,
		`system.*variable`,
		`show.*env`,
	),
	group(LoggedUsers, "",
		`who.*logged.*in`,
		`logged.*users?`,
		`active.*users?`,
		`who.*online`,
	),
	group(LargeFiles, "",
		`large.*files?`,
		`big.*files?`,
		`huge.*files?`,
		`biggest.*files?`,
	),
	group(RecentFiles, "",
		`recent.*files?`,
		`modified.*files?`,
		`latest.*files?`,
		`files?.*modified`,
		`changed.*files?`,
	),
	group(FileCount, "",
		`how.*many.*files?`,
		`count.*files?`,
		`number.*of.*files?`,
		`files?.*count`,
	),
	group(MemoryUsage, "",
		`memory.*usage`,
		`ram.*usage`,
		`memory.*info`,
		`free.*memory`,
		`available.*memory`,
	),
}

// PatternMatcher is the deterministic local strategy: ordered regex groups,
// first match wins. It is pure, synchronous, and never fails: absence of a
// match returns the unknown intent, not an error.
type PatternMatcher struct{}

// NewPatternMatcher returns the deterministic pattern strategy.
func NewPatternMatcher() *PatternMatcher { return &PatternMatcher{} }

// Name implements Strategy.
func (m *PatternMatcher) Name() Source { return SourcePattern }

// Resolve matches text against the pattern table. Matching is
// case-insensitive and tolerant of surrounding whitespace.
func (m *PatternMatcher) Resolve(_ context.Context, text string) (Intent, error) {
	return m.Match(text), nil
}

// Match is the error-free form of Resolve.
func (m *PatternMatcher) Match(text string) Intent {
	input := strings.ToLower(strings.TrimSpace(text))
	if input == "" {
		return NewUnknown()
	}

	for _, g := range patternTable {
		for _, re := range g.patterns {
			match := re.FindStringSubmatch(input)
			if match == nil {
				continue
			}
			in := Intent{Category: g.category, Confidence: ConfidenceHigh}
			switch {
			case g.param != "" && len(match) > 1 && match[1] != "":
				in.Params = map[string]string{g.param: match[1]}
			case g.param != "" && g.fallback != "":
				in.Params = map[string]string{g.param: g.fallback}
			}
			return in
		}
	}
	return NewUnknown()
}
