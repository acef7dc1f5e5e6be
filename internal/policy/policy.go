// Package policy decides whether a resolved command line may execute.
// Evaluation is a pure function: the same command line always yields the
// same verdict. The verdict is strictly binary; there is no "warn".
package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// Verdict is the terminal result of a safety evaluation. MatchedRule is
// empty on ALLOW and names the firing rule on BLOCK.
type Verdict struct {
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason,omitempty"`
	MatchedRule string `json:"matched_rule,omitempty"`
}

func allow() Verdict {
	return Verdict{Allowed: true}
}

func block(rule, reason string) Verdict {
	return Verdict{Allowed: false, MatchedRule: rule, Reason: reason}
}

// Rule is one blacklist entry: a case-insensitive pattern over the fully
// resolved command line, including substituted parameters.
type Rule struct {
	ID      string
	Pattern *regexp.Regexp
	Reason  string
}

// Policy evaluates command lines against the blacklist and the structural
// heuristics. Immutable after construction.
type Policy struct {
	rules []Rule
}

// New builds a Policy from the built-in rules plus any extra patterns.
func New(extra []ExtraPattern) (*Policy, error) {
	rules := make([]Rule, 0, len(builtinRules)+len(extra))
	rules = append(rules, builtinRules...)
	for _, e := range extra {
		re, err := regexp.Compile("(?i)" + e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("policy: invalid extra pattern %q: %w", e.Pattern, err)
		}
		id := e.ID
		if id == "" {
			id = "custom." + e.Pattern
		}
		rules = append(rules, Rule{ID: id, Pattern: re, Reason: e.Reason})
	}
	return &Policy{rules: rules}, nil
}

// NewDefault builds a Policy with only the built-in rules.
func NewDefault() *Policy {
	p, _ := New(nil)
	return p
}

// Evaluate checks a command line that carries no template context, e.g. a
// raw line handed to the check subcommand. Without a template there is no
// baseline to detect parameter-borne chaining against, so only the
// blacklist layer applies.
func (p *Policy) Evaluate(cmdline string) Verdict {
	return p.EvaluateResolved(cmdline, cmdline)
}

// EvaluateResolved checks a fully resolved command line. template, when
// non-empty, is the command template the line was produced from; chaining
// metacharacters already present in the template are legitimate, any new
// ones were smuggled in through a parameter and cause a BLOCK.
//
// Order (first match wins, BLOCK short-circuits):
//  1. blacklist rules
//  2. structural chaining heuristics
//  3. ALLOW
func (p *Policy) EvaluateResolved(cmdline, template string) Verdict {
	cmd := strings.TrimSpace(cmdline)

	for _, r := range p.rules {
		if r.Pattern.MatchString(cmd) {
			return block(r.ID, r.Reason)
		}
	}

	if tok := escalatedMeta(cmd, template); tok != "" {
		return block("structural.chaining",
			fmt.Sprintf("command chaining via %q was not part of the resolved template", tok))
	}

	return allow()
}

// metaTokens are the shell metacharacters that allow a parameter value to
// escalate into multi-command execution or redirection. Multi-character
// tokens are counted before their single-character prefixes.
var metaTokens = []string{"&&", "||", ";", "`", "$(", "|", ">", "<", "&"}

// escalatedMeta returns the first metacharacter token that occurs more
// often in the resolved command than in its template, or "".
func escalatedMeta(cmd, template string) string {
	remC, remT := cmd, template
	for _, tok := range metaTokens {
		if strings.Count(remC, tok) > strings.Count(remT, tok) {
			return tok
		}
		// Consume counted tokens so "|" does not recount "||".
		remC = strings.ReplaceAll(remC, tok, "")
		remT = strings.ReplaceAll(remT, tok, "")
	}
	return ""
}

// builtinRules are the irreversible boundaries that are always blocked.
// Matching is case-insensitive against the full command line.
var builtinRules = []Rule{
	{
		ID: "destructive.delete_root",
		// The tail absorbs trailing /, ., and * so variants like /*, ~/
		// and /. stay caught; a named path component ends the match.
		Pattern: regexp.MustCompile(`(?i)rm\s+(-[a-z]*r[a-z]*f|-[a-z]*f[a-z]*r)\s+(/|\*|~)[/.*]*(\s|$)`),
		Reason:  "recursive forced deletion of the filesystem root, home, or everything",
	},
	{
		ID: "destructive.delete_all_windows",
		// /s and /q in either order, with any other switches between.
		Pattern: regexp.MustCompile(`(?i)\bdel\s+(?:/[a-z]+\s+)*(?:/q\s+(?:/[a-z]+\s+)*/s|/s\s+(?:/[a-z]+\s+)*/q)\b`),
		Reason:  "recursive quiet deletion on Windows",
	},
	{
		ID:      "destructive.disk_format",
		Pattern: regexp.MustCompile(`(?i)\b(format(\.com)?\s+[a-z]:|mkfs(\.[a-z0-9]+)?\b|fdisk\b)`),
		Reason:  "disk formatting or repartitioning",
	},
	{
		ID:      "destructive.raw_disk_write",
		Pattern: regexp.MustCompile(`(?i)\bdd\s+if=`),
		Reason:  "raw disk write via dd",
	},
	{
		ID:      "power.shutdown",
		Pattern: regexp.MustCompile(`(?i)\b(shutdown|reboot|halt|poweroff)\b|\binit\s+[06]\b`),
		Reason:  "shutting down or rebooting the machine",
	},
	{
		ID:      "forkbomb",
		Pattern: regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\}\s*;\s*:`),
		Reason:  "fork bomb",
	},
	{
		ID:      "network.pipe_to_shell",
		Pattern: regexp.MustCompile(`(?i)\b(curl|wget)\b[^|;]*\|\s*(sudo\s+)?(sh|bash|zsh|fish|python[0-9.]*)\b`),
		Reason:  "piping a network download directly into a shell interpreter",
	},
	{
		ID:      "perm.world_writable",
		Pattern: regexp.MustCompile(`(?i)\bchmod\s+(-[a-z]*r[a-z]*\s+)?777\b`),
		Reason:  "granting world-writable permissions",
	},
	{
		ID:      "perm.recursive_chown",
		Pattern: regexp.MustCompile(`(?i)\bchown\s+-[a-z]*r[a-z]*\b`),
		Reason:  "recursively changing ownership",
	},
	{
		ID:      "device.overwrite",
		Pattern: regexp.MustCompile(`(?i)>\s*/dev/(sd[a-z]|nvme\d+n\d+|hd[a-z])\b`),
		Reason:  "overwriting a block device",
	},
}
