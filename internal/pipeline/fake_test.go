package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/forumscan/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

// fakeForum serves topics and their post streams from memory.
type fakeForum struct {
	mu       sync.Mutex
	topics   []model.TopicSummary
	posts    map[int64][]model.Post
	accepted map[int64]*int64
	fail     map[int64]error
	delay    map[int64]time.Duration
	listErr  error
	fetched  []int64
}

func newFakeForum() *fakeForum {
	return &fakeForum{
		posts:    make(map[int64][]model.Post),
		accepted: make(map[int64]*int64),
		fail:     make(map[int64]error),
		delay:    make(map[int64]time.Duration),
	}
}

// addTopic registers a topic created at created with n posts, where every
// post after the first replies to post 1.
func (f *fakeForum) addTopic(id int64, created time.Time, n int) {
	f.topics = append(f.topics, model.TopicSummary{
		ID:         id,
		Slug:       fmt.Sprintf("topic-%d", id),
		Title:      fmt.Sprintf("Topic %d", id),
		CategoryID: 34,
		Tags:       []string{},
		CreatedAt:  created,
	})
	posts := make([]model.Post, 0, n)
	for i := 1; i <= n; i++ {
		p := model.Post{
			ID:             id*100 + int64(i),
			PostNumber:     i,
			Username:       fmt.Sprintf("user%d", i),
			CreatedAt:      created.Add(time.Duration(i) * time.Minute),
			LikeCount:      i,
			MentionedUsers: []string{},
			Cooked:         fmt.Sprintf("<p>Post %d of topic %d. Is the GA deadline extended?</p>", i, id),
		}
		if i > 1 {
			p.ReplyToPostNumber = intPtr(1)
		}
		posts = append(posts, p)
	}
	f.posts[id] = posts
}

func (f *fakeForum) FetchTopic(ctx context.Context, id int64, _ string) (model.TopicMeta, []model.Post, error) {
	if d := f.delay[id]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return model.TopicMeta{}, nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.fetched = append(f.fetched, id)
	f.mu.Unlock()

	if err := f.fail[id]; err != nil {
		return model.TopicMeta{}, nil, err
	}
	return model.TopicMeta{ID: id, AcceptedAnswerID: f.accepted[id]}, f.posts[id], nil
}

func (f *fakeForum) FetchAllTopics(context.Context) ([]model.TopicSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.topics, nil
}

func (f *fakeForum) BaseURL() string { return "https://forum.example.com" }

func (f *fakeForum) CategoryID() int64 { return 34 }

func (f *fakeForum) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

// staticSessions always returns the same valid session.
type staticSessions struct {
	err error
}

func (s staticSessions) EnsureSession(context.Context) (*model.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Session{Cookies: []model.Cookie{{Name: "_t", Value: "x"}}, Valid: true}, nil
}
