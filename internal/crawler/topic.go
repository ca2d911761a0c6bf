package crawler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nao1215/forumscan/internal/model"
)

// FetchTopic fetches a topic document and returns its metadata and the
// post stream in the order the API returned it.
func (c *Client) FetchTopic(ctx context.Context, id int64, slug string) (model.TopicMeta, []model.Post, error) {
	target := c.TopicURL(id, slug)

	body, err := c.getJSON(ctx, target)
	if err != nil {
		return model.TopicMeta{}, nil, err
	}

	meta, posts, err := decodeTopic(body, id)
	if err != nil {
		return model.TopicMeta{}, nil, &ParseError{URL: target, Err: err}
	}
	return meta, posts, nil
}

// decodeTopic decodes a topic document body. requestedID is used when the
// document does not repeat its own ID.
func decodeTopic(body []byte, requestedID int64) (model.TopicMeta, []model.Post, error) {
	var doc topicDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return model.TopicMeta{}, nil, err
	}
	if doc.PostStream == nil || doc.PostStream.Posts == nil {
		return model.TopicMeta{}, nil, ErrMissingPostStream
	}

	wire := *doc.PostStream.Posts
	posts := make([]model.Post, 0, len(wire))
	for _, w := range wire {
		post, err := w.toModel()
		if err != nil {
			return model.TopicMeta{}, nil, err
		}
		posts = append(posts, post)
	}

	accepted, err := doc.acceptedAnswerID(posts)
	if err != nil {
		return model.TopicMeta{}, nil, err
	}

	meta := model.TopicMeta{ID: requestedID, AcceptedAnswerID: accepted}
	if doc.ID != nil {
		if *doc.ID != requestedID {
			return model.TopicMeta{}, nil, fmt.Errorf("topic document id %d does not match requested id %d", *doc.ID, requestedID)
		}
		meta.ID = *doc.ID
	}
	return meta, posts, nil
}
