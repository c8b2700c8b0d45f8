package updater

import (
	"regexp"
	"strings"
)

// languageAliases maps submission language prefixes whose canonical name
// cannot be recovered by stripping the version suffix, e.g. "PyPy3 (7.3)"
// is Python, not PyPy.
var languageAliases = []struct {
	prefix     string
	simplified string
}{
	{"PyPy", "Python"},
	{"Python (Cython", "Cython"},
	{"Assembly x64", "Assembly x64"},
	{"Awk", "AWK"},
	{"IOI-Style", "C++"},
	{"LuaJIT", "Lua"},
	{"Seed7", "Seed7"},
	{"Perl6", "Raku"},
	{"Objective-C", "Objective-C"},
}

// versionSuffixRe matches the version or dialect tail of a language name:
// everything from the first digit, opening paren, or dash, with any
// whitespace before it.
var versionSuffixRe = regexp.MustCompile(`\s*[\d(\-].*`)

// simplifyLanguage collapses versioned language names ("C++14 (GCC 5.4.1)",
// "Perl (5)") into one ranking key per language.
func simplifyLanguage(language string) string {
	for _, alias := range languageAliases {
		if strings.HasPrefix(language, alias.prefix) {
			return alias.simplified
		}
	}
	simplified := versionSuffixRe.ReplaceAllString(language, "")
	if simplified == "" {
		return "Unknown"
	}
	return simplified
}
