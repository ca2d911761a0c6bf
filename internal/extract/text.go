package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText returns the visible text of an HTML fragment.
func PlainText(cooked string) string {
	if cooked == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cooked))
	if err != nil {
		return ""
	}
	return doc.Text()
}

// Mentions returns the usernames linked as @mentions in an HTML fragment,
// in document order and without duplicates. The forum renders mentions as
// <a class="mention" href="/u/name">@name</a>.
func Mentions(cooked string) []string {
	names := make([]string, 0)
	if cooked == "" {
		return names
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cooked))
	if err != nil {
		return names
	}

	seen := make(map[string]struct{})
	doc.Find("a.mention").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimPrefix(strings.TrimSpace(s.Text()), "@")
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	})
	return names
}
