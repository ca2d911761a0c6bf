// Package extract turns the rendered ("cooked") HTML of a forum post into
// plain text and Markdown.
//
// Plain text is the concatenation of every text node in document order,
// with no separators added and no whitespace trimmed. It is the input of
// the classifier and of the content fingerprint, so it must be stable for
// identical markup.
//
// Extraction never fails a crawl: markup that cannot be parsed yields an
// empty string, and a failed Markdown conversion falls back to plain text.
package extract
