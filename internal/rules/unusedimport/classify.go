package unusedimport

import (
	"fmt"
	"regexp"
	"sort"

	"implint/internal/semantic"
	"implint/internal/source"
)

// foundationAttributeRe matches attribute spellings whose runtime
// machinery lives in Foundation. A file carrying one needs its
// Foundation import even without a direct Foundation symbol reference.
var foundationAttributeRe = regexp.MustCompile(`@objc(Members|NonLazyRealization)?\b`)

// unusedImport is one declared import with no resolved use. When the
// import line could not be located in the text, hasRange is false and
// fallback carries a best-effort report offset.
type unusedImport struct {
	module   string
	rng      source.Range
	hasRange bool
	fallback uint32
}

func (u unusedImport) offset() uint32 {
	if u.hasRange {
		return u.rng.Start
	}
	return u.fallback
}

// classification is the outcome of one analysis pass over one file.
type classification struct {
	unused  []unusedImport // ascending by source position
	missing []string       // sorted by module name
}

// classify runs the set algebra: declared imports against resolved
// modules, minus the exemptions. Both sides are reduced to root modules
// first, so importing or using a submodule counts for its root.
func (r *Rule) classify(file *source.File, imports []semantic.Dependency, resolved map[string]bool, currentModule string) classification {
	rooted := make([]semantic.Dependency, 0, len(imports))
	for _, imp := range imports {
		rooted = append(rooted, semantic.Dependency{Module: semantic.RootModule(imp.Module), Line: imp.Line})
	}
	declared := semantic.NormalizeImports(rooted)

	declaredSet := make(map[string]bool, len(declared))
	for _, imp := range declared {
		declaredSet[imp.Module] = true
	}

	used := make(map[string]bool, len(resolved))
	for m := range resolved {
		if m != semantic.ImplicitModule {
			used[m] = true
		}
	}

	unusedSet := make(map[string]bool)
	for _, imp := range declared {
		if !used[imp.Module] && !r.alwaysKeep[imp.Module] {
			unusedSet[imp.Module] = true
		}
	}

	if unusedSet["Foundation"] && foundationAttributeRe.Match(file.Contents()) {
		delete(unusedSet, "Foundation")
	}

	var c classification
	for _, imp := range declared {
		if !unusedSet[imp.Module] {
			continue
		}
		ranges := file.Search(importLinePattern(imp.Module))
		if len(ranges) == 0 {
			fallback, ok := file.Offset(imp.Line, 0)
			if !ok {
				fallback = 0
			}
			c.unused = append(c.unused, unusedImport{module: imp.Module, fallback: fallback})
			continue
		}
		for _, rng := range ranges {
			c.unused = append(c.unused, unusedImport{module: imp.Module, rng: rng, hasRange: true})
		}
	}
	sort.Slice(c.unused, func(i, j int) bool { return c.unused[i].offset() < c.unused[j].offset() })

	if !r.requireExplicit {
		return c
	}

	for m := range used {
		if declaredSet[m] || m == currentModule {
			continue
		}
		if r.sanctioned(m, declaredSet, unusedSet) {
			continue
		}
		c.missing = append(c.missing, m)
	}
	sort.Strings(c.missing)

	return c
}

// sanctioned reports whether a transitive-allowance rule covers module
// m: some anchor import re-exports m, is declared, and is itself still
// in use. An anchor being removed as unused grants nothing, and a rule
// whose anchor is not imported grants nothing either — an unknown
// module is never silently excused.
func (r *Rule) sanctioned(m string, declared, unused map[string]bool) bool {
	for anchor, transitive := range r.allowances {
		if unused[anchor] || !declared[anchor] {
			continue
		}
		for _, t := range transitive {
			if t == m {
				return true
			}
		}
	}
	return false
}

// importLinePattern matches every import statement line for one module:
// optional leading attributes, an optional import-kind keyword, the
// module name (or a submodule path under it), through the trailing
// newline. Matches start at the beginning of the line so erasing the
// range removes the whole line.
func importLinePattern(module string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(
		`(?m)^[ \t]*(?:@\w+(?:\([^)\n]*\))?[ \t]+)*import[ \t]+(?:\w+[ \t]+)?%s\b[^\n]*\n?`,
		regexp.QuoteMeta(module)))
}
