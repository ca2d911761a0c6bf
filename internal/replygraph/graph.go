package replygraph

import (
	"sort"
	"strings"

	"github.com/nao1215/forumscan/internal/model"
)

// SummaryPostCount is the number of most-liked posts joined into a topic summary.
const SummaryPostCount = 3

// Graph maps a post number to the number of direct replies it received.
type Graph struct {
	counts map[int]int
}

// Build counts, for every post number, the posts of the topic replying to it.
// Replies pointing at post numbers that are not in the topic are still counted.
func Build(posts []model.Post) Graph {
	counts := make(map[int]int)
	for _, p := range posts {
		if p.ReplyToPostNumber == nil {
			continue
		}
		counts[*p.ReplyToPostNumber]++
	}
	return Graph{counts: counts}
}

// ReplyCount returns the direct reply count of a post number, zero when absent.
func (g Graph) ReplyCount(postNumber int) int {
	return g.counts[postNumber]
}

// Counts returns a copy of the post-number to reply-count map.
func (g Graph) Counts() map[int]int {
	out := make(map[int]int, len(g.counts))
	for k, v := range g.counts {
		out[k] = v
	}
	return out
}

// TopSummaryText joins the plain text of the SummaryPostCount most-liked
// posts with single spaces. Ties keep post-stream order. plain converts a
// post's cooked HTML to text.
func TopSummaryText(posts []model.Post, plain func(cooked string) string) string {
	ranked := make([]model.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LikeCount > ranked[j].LikeCount
	})

	if len(ranked) > SummaryPostCount {
		ranked = ranked[:SummaryPostCount]
	}

	texts := make([]string, 0, len(ranked))
	for _, p := range ranked {
		texts = append(texts, plain(p.Cooked))
	}
	return strings.Join(texts, " ")
}

// IsAcceptedAnswer reports whether post is the topic's accepted answer.
func IsAcceptedAnswer(post model.Post, acceptedID *int64) bool {
	return acceptedID != nil && *acceptedID == post.ID
}
