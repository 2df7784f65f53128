package parsing

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/jobmail-sync/internal/joblinks"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// URLs returns every http(s) URL of a text with trailing punctuation removed.
// Entities are decoded first so links inside markup come out usable.
func URLs(text string) []string {
	found := urlPattern.FindAllString(html.UnescapeString(text), -1)
	urls := make([]string, 0, len(found))
	for _, u := range found {
		urls = append(urls, strings.TrimRight(u, ".,;)"))
	}
	return urls
}

// JobLink returns the best job link of a text. Noise links are dropped and the rest are
// ranked by joblinks.Rank, shorter first on ties. When every URL is noise the shortest
// URL is returned.
func JobLink(text string) string {
	urls := URLs(text)
	if len(urls) == 0 {
		return ""
	}

	candidates := make([]string, 0, len(urls))
	for _, u := range urls {
		if !joblinks.IsNoise(u) {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		candidates = urls
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := joblinks.Rank(candidates[i]), joblinks.Rank(candidates[j])
		if ri != rj {
			return ri < rj
		}
		return len(candidates[i]) < len(candidates[j])
	})
	return candidates[0]
}
