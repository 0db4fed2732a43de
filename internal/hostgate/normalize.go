package hostgate

import "strings"

// wwwPrefix is the leading label stripped from every host entry.
const wwwPrefix = "www."

// Normalize reduces a URL (or bare host) to the host entry used for
// opt-out decisions: lowercased, with scheme, userinfo, path, query,
// fragment and any leading "www." labels removed.
//
// Normalize is total and idempotent. Input it cannot reduce further is
// returned trimmed and lowercased. Because everything from the first '/',
// '?' or '#' is dropped and userinfo ends at the last '@', the result can
// never contain the persistence delimiter.
func Normalize(rawURL string) string {
	host := strings.ToLower(strings.TrimSpace(rawURL))

	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+len("://"):]
	}

	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}

	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}

	for strings.HasPrefix(host, wwwPrefix) {
		host = strings.TrimPrefix(host, wwwPrefix)
	}

	return host
}
