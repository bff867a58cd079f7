package rule

import (
	"regexp"
	"strings"

	"implint/internal/source"
)

// Suppression comments switch rules off inline:
//
//	// implint:disable unused_import
//	// implint:disable:next-line unused_import sorted_imports
//	// implint:enable unused_import
//
// A directive without rule names applies to every rule. Region
// directives take effect on their own line and stay in force until the
// matching enable.
var directiveRe = regexp.MustCompile(`//\s*implint:(disable|enable)(:next-line)?((?:[ \t]+[a-z][a-z0-9_]*)*)`)

type directive struct {
	line     uint32
	enable   bool
	nextLine bool
	rules    []string // empty means all rules
}

func (d directive) matches(ruleName string) bool {
	if len(d.rules) == 0 {
		return true
	}
	for _, r := range d.rules {
		if r == ruleName {
			return true
		}
	}
	return false
}

// Suppressions is the parsed set of suppression directives of one file.
type Suppressions struct {
	directives []directive
}

// ParseSuppressions scans a file for suppression comments.
func ParseSuppressions(f *source.File) *Suppressions {
	s := &Suppressions{}
	for i := 0; i < f.LineCount(); i++ {
		line := f.LineText(uint32(i))
		if !strings.Contains(line, "implint:") {
			continue
		}
		m := directiveRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		s.directives = append(s.directives, directive{
			line:     uint32(i),
			enable:   m[1] == "enable",
			nextLine: m[2] == ":next-line",
			rules:    strings.Fields(m[3]),
		})
	}
	return s
}

// Suppressed reports whether the rule is switched off on the given
// 0-based line.
func (s *Suppressions) Suppressed(ruleName string, line uint32) bool {
	if s == nil {
		return false
	}
	disabled := false
	for _, d := range s.directives {
		if d.line > line {
			break
		}
		if !d.matches(ruleName) {
			continue
		}
		if d.nextLine {
			if !d.enable && d.line+1 == line {
				return true
			}
			continue
		}
		disabled = !d.enable
	}
	return disabled
}
