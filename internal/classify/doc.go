// Package classify assigns a category, keyword tags, a content fingerprint
// and a popularity score to the plain text of a post.
//
// All functions are pure: the same text always yields the same output.
// Length thresholds count Unicode code points, not bytes.
package classify
