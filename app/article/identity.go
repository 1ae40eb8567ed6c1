package article

import (
	"net/url"
	"strings"
)

// IdentityKey derives the deduplication key of an article from its link and
// title only. Scheme, query, fragment and a single trailing slash of the link
// are ignored; the title is compared trimmed and lower-cased.
func IdentityKey(link, title string) string {
	return NormalizeLink(link) + "|" + strings.ToLower(strings.TrimSpace(title))
}

// NormalizeLink reduces an absolute URL to host and path. Anything that does
// not parse as an absolute URL is returned verbatim.
func NormalizeLink(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" {
		return link
	}

	path := u.EscapedPath()
	if u.Opaque != "" {
		path = u.Opaque
	}

	return strings.ToLower(u.Hostname()) + strings.TrimSuffix(path, "/")
}
