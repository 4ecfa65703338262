package git

import (
	"fmt"
	"net/url"
	"strings"
)

// CommitURL returns the web page of commit on the hosting service of
// remoteURL. Supports GitHub, GitLab, and Bitbucket. Returns empty string for
// unknown providers.
func CommitURL(remoteURL, commit string) string {
	host, owner, repo, ok := parseGitURL(remoteURL)
	if !ok || commit == "" {
		return ""
	}

	baseURL := "https://" + host
	commit = url.PathEscape(commit)

	switch ProviderName(remoteURL) {
	case "GitHub":
		return fmt.Sprintf("%s/%s/%s/commit/%s", baseURL, owner, repo, commit)
	case "GitLab":
		return fmt.Sprintf("%s/%s/%s/-/commit/%s", baseURL, owner, repo, commit)
	case "Bitbucket":
		return fmt.Sprintf("%s/%s/%s/commits/%s", baseURL, owner, repo, commit)
	default:
		return ""
	}
}

func ProviderName(remoteURL string) string {
	host, _, _, ok := parseGitURL(remoteURL)
	if !ok {
		return ""
	}
	hostLower := strings.ToLower(host)

	switch {
	case strings.Contains(hostLower, "github"):
		return "GitHub"
	case strings.Contains(hostLower, "gitlab"):
		return "GitLab"
	case strings.Contains(hostLower, "bitbucket"):
		return "Bitbucket"
	default:
		return ""
	}
}

func parseGitURL(remoteURL string) (host, owner, repo string, ok bool) {
	remoteURL = strings.TrimSpace(remoteURL)
	if remoteURL == "" {
		return "", "", "", false
	}

	// SSH has ":" but not "://"
	if strings.Contains(remoteURL, ":") && !strings.Contains(remoteURL, "://") {
		return parseSCPLike(remoteURL)
	}
	return parseURL(remoteURL)
}

// parseSCPLike parses [user@]host:owner/repo[.git]
func parseSCPLike(remoteURL string) (host, owner, repo string, ok bool) {
	host, path, found := strings.Cut(remoteURL, ":")
	if !found {
		return "", "", "", false
	}
	if idx := strings.LastIndex(host, "@"); idx != -1 {
		host = host[idx+1:]
	}
	return splitRepoPath(host, path)
}

// parseURL parses scheme://[user@]host/owner/repo[.git], including ssh://.
func parseURL(remoteURL string) (host, owner, repo string, ok bool) {
	parsed, err := url.Parse(remoteURL)
	if err != nil || parsed.Hostname() == "" {
		return "", "", "", false
	}
	return splitRepoPath(parsed.Hostname(), parsed.Path)
}

func splitRepoPath(host, path string) (string, string, string, bool) {
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	return host, parts[0], parts[1], true
}
