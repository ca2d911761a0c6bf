// Package replygraph aggregates the direct-reply structure of one topic.
//
// Only one level is tracked: a post's reply count is the number of posts
// whose reply-to field names it. Replies to replies do not propagate.
package replygraph
