package git

import "strings"

// ParseRemotes reads the output of "git remote -v" into remote names and
// their fetch URLs, in the order listed.
func ParseRemotes(output string) (names []string, urls map[string]string) {
	urls = make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		if len(parts) > 2 && parts[2] != "(fetch)" {
			continue
		}
		if _, ok := urls[parts[0]]; !ok {
			names = append(names, parts[0])
		}
		urls[parts[0]] = parts[1]
	}
	return names, urls
}
