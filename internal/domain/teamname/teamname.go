// Package teamname reconciles team names between the season summary and the
// per-team game log files, which spell the same school differently.
package teamname

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	saintRe   = regexp.MustCompile(`\bst\.?\s`)
	suffixRe  = regexp.MustCompile(`\b(university|college|univ)\b`)
	leadingRe = regexp.MustCompile(`^the\s+`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Key is the case-insensitive identity used by every in-memory map.
func Key(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Normalize folds the common spelling variations so that "St. Mary's
// College" and "Saint Mary's" compare equal.
func Normalize(name string) string {
	name = strings.ToLower(stripMarks(name))
	name = saintRe.ReplaceAllString(name, "saint ")
	name = strings.ReplaceAll(name, "&", "and")
	name = suffixRe.ReplaceAllString(name, "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.TrimSpace(spaceRe.ReplaceAllString(name, " "))
	name = leadingRe.ReplaceAllString(name, "")
	return name
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FileStem is the game log file name (without extension) for a team.
func FileStem(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

// FromFileStem turns a file stem back into a team name.
func FromFileStem(stem string) string {
	return strings.ReplaceAll(stem, "_", " ")
}

// Match returns the candidate naming the same team as name: an exact Key
// match wins over a Normalize match.
func Match(name string, candidates []string) (string, bool) {
	key := Key(name)
	for _, c := range candidates {
		if Key(c) == key {
			return c, true
		}
	}
	norm := Normalize(name)
	for _, c := range candidates {
		if Normalize(c) == norm {
			return c, true
		}
	}
	return "", false
}

// Unmatched lists the file teams with no normalized match among the season
// teams, sorted. Hidden entries (leading dot) are ignored.
func Unmatched(fileTeams, seasonTeams []string) []string {
	known := make(map[string]struct{}, len(seasonTeams))
	for _, t := range seasonTeams {
		known[Normalize(t)] = struct{}{}
	}
	var missing []string
	for _, t := range fileTeams {
		if strings.HasPrefix(t, ".") {
			continue
		}
		if _, ok := known[Normalize(t)]; !ok {
			missing = append(missing, t)
		}
	}
	slices.Sort(missing)
	return missing
}
