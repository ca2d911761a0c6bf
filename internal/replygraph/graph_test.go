package replygraph

import (
	"testing"

	"github.com/nao1215/forumscan/internal/model"
)

func replyTo(n int) *int {
	return &n
}

// identity treats cooked bodies as plain text.
func identity(s string) string {
	return s
}

// TestBuild tests direct reply counting.
func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("counts direct replies only", func(t *testing.T) {
		t.Parallel()

		posts := []model.Post{
			{ID: 10, PostNumber: 1},
			{ID: 11, PostNumber: 2, ReplyToPostNumber: replyTo(1)},
			{ID: 12, PostNumber: 3, ReplyToPostNumber: replyTo(1)},
			{ID: 13, PostNumber: 4, ReplyToPostNumber: replyTo(2)},
		}

		g := Build(posts)

		tests := []struct {
			postNumber int
			want       int
		}{
			{postNumber: 1, want: 2},
			{postNumber: 2, want: 1},
			{postNumber: 3, want: 0},
			{postNumber: 4, want: 0},
		}
		for _, tt := range tests {
			if got := g.ReplyCount(tt.postNumber); got != tt.want {
				t.Errorf("ReplyCount(%d) = %d, want %d", tt.postNumber, got, tt.want)
			}
		}
	})

	t.Run("reply count equals number of posts replying", func(t *testing.T) {
		t.Parallel()

		posts := []model.Post{
			{PostNumber: 1},
			{PostNumber: 2, ReplyToPostNumber: replyTo(1)},
			{PostNumber: 3, ReplyToPostNumber: replyTo(2)},
			{PostNumber: 4, ReplyToPostNumber: replyTo(1)},
			{PostNumber: 5, ReplyToPostNumber: replyTo(1)},
			{PostNumber: 6, ReplyToPostNumber: replyTo(3)},
		}

		g := Build(posts)

		for _, p := range posts {
			want := 0
			for _, q := range posts {
				if q.ReplyToPostNumber != nil && *q.ReplyToPostNumber == p.PostNumber {
					want++
				}
			}
			if got := g.ReplyCount(p.PostNumber); got != want {
				t.Errorf("post %d: got %d replies, want %d", p.PostNumber, got, want)
			}
		}
	})

	t.Run("replies to missing posts are counted", func(t *testing.T) {
		t.Parallel()

		g := Build([]model.Post{{PostNumber: 2, ReplyToPostNumber: replyTo(99)}})

		if got := g.ReplyCount(99); got != 1 {
			t.Errorf("expected 1, got %d", got)
		}
	})

	t.Run("empty topic", func(t *testing.T) {
		t.Parallel()

		g := Build(nil)
		if got := g.ReplyCount(1); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
		if len(g.Counts()) != 0 {
			t.Errorf("expected empty counts, got %v", g.Counts())
		}
	})

	t.Run("counts returns a copy", func(t *testing.T) {
		t.Parallel()

		g := Build([]model.Post{{PostNumber: 2, ReplyToPostNumber: replyTo(1)}})
		counts := g.Counts()
		counts[1] = 100

		if got := g.ReplyCount(1); got != 1 {
			t.Errorf("graph was mutated through Counts: got %d", got)
		}
	})
}

// TestTopSummaryText tests the most-liked summary.
func TestTopSummaryText(t *testing.T) {
	t.Parallel()

	t.Run("joins three most liked in like order", func(t *testing.T) {
		t.Parallel()

		posts := []model.Post{
			{PostNumber: 1, LikeCount: 5, Cooked: "A"},
			{PostNumber: 2, LikeCount: 9, Cooked: "B"},
			{PostNumber: 3, LikeCount: 5, Cooked: "C"},
			{PostNumber: 4, LikeCount: 1, Cooked: "D"},
		}

		if got := TopSummaryText(posts, identity); got != "B A C" {
			t.Errorf("got %q, want %q", got, "B A C")
		}
	})

	t.Run("ties keep post stream order", func(t *testing.T) {
		t.Parallel()

		posts := []model.Post{
			{PostNumber: 1, Cooked: "first"},
			{PostNumber: 2, Cooked: "second"},
			{PostNumber: 3, Cooked: "third"},
			{PostNumber: 4, Cooked: "fourth"},
		}

		if got := TopSummaryText(posts, identity); got != "first second third" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("fewer than three posts", func(t *testing.T) {
		t.Parallel()

		posts := []model.Post{{LikeCount: 1, Cooked: "only"}}
		if got := TopSummaryText(posts, identity); got != "only" {
			t.Errorf("got %q", got)
		}
		if got := TopSummaryText(nil, identity); got != "" {
			t.Errorf("expected empty summary, got %q", got)
		}
	})

	t.Run("does not reorder the input", func(t *testing.T) {
		t.Parallel()

		posts := []model.Post{
			{PostNumber: 1, LikeCount: 0, Cooked: "x"},
			{PostNumber: 2, LikeCount: 3, Cooked: "y"},
		}
		_ = TopSummaryText(posts, identity)

		if posts[0].PostNumber != 1 || posts[1].PostNumber != 2 {
			t.Errorf("input was reordered: %+v", posts)
		}
	})
}

// TestIsAcceptedAnswer tests accepted answer matching by post ID.
func TestIsAcceptedAnswer(t *testing.T) {
	t.Parallel()

	accepted := int64(42)
	post := model.Post{ID: 42, PostNumber: 3}

	if !IsAcceptedAnswer(post, &accepted) {
		t.Error("expected post 42 to be accepted")
	}
	if IsAcceptedAnswer(model.Post{ID: 41}, &accepted) {
		t.Error("expected post 41 not to be accepted")
	}
	if IsAcceptedAnswer(post, nil) {
		t.Error("expected no accepted answer when the topic has none")
	}
}
