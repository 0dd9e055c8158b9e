package modrinth

import (
	"regexp"
	"strings"
)

// slugRE is the registry's slug grammar. Project ids happen to match it too,
// so one check covers both forms of user input.
var slugRE = regexp.MustCompile("^[\\w!@$()`.+,\"\\-']{3,64}$")

// ValidSlug reports whether s is a well-formed slug or project id.
func ValidSlug(s string) bool {
	return slugRE.MatchString(s)
}

// SlugFromURL extracts the slug from user input, which may be a bare
// slug/id or a full mod page URL such as https://modrinth.com/mod/sodium.
// The last path segment is taken; validation is the caller's job.
func SlugFromURL(raw string) string {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		return raw[i+1:]
	}
	return raw
}
