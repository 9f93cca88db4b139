package git

import (
	"net/url"
	"strings"
)

// SanitizeURL strips credentials from http(s) remote URLs so tokens
// embedded by CI never reach meta.json.
func SanitizeURL(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		u.User = nil
	}
	return u.String()
}

// CommitURL derives a browsable commit URL for GitHub remotes.
// Returns "" for other hosts or when commit is empty.
//
// Accepted forms:
//
//	https://github.com/owner/repo(.git)
//	ssh://git@github.com/owner/repo(.git)
//	git@github.com:owner/repo(.git)
func CommitURL(remote, commit string) string {
	if commit == "" {
		return ""
	}
	var path string
	switch {
	case strings.HasPrefix(remote, "git@github.com:"):
		path = strings.TrimPrefix(remote, "git@github.com:")
	case strings.Contains(remote, "://"):
		u, err := url.Parse(remote)
		if err != nil || u.Hostname() != "github.com" {
			return ""
		}
		path = strings.TrimPrefix(u.Path, "/")
	default:
		return ""
	}
	path = strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git")
	if strings.Count(path, "/") != 1 || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return ""
	}
	return "https://github.com/" + path + "/commit/" + commit
}
