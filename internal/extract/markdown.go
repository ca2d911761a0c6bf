package extract

import (
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Markdown converts an HTML fragment to Markdown.
// When conversion fails the plain text of the fragment is returned instead.
func Markdown(cooked string) string {
	if cooked == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(cooked)
	if err != nil {
		return PlainText(cooked)
	}
	return md
}
