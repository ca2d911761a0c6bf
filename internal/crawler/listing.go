package crawler

import (
	"context"
	"encoding/json"

	"github.com/nao1215/forumscan/internal/model"
)

// FetchListingPage fetches and decodes one listing page.
// An empty slice means the listing is exhausted.
func (c *Client) FetchListingPage(ctx context.Context, page int) ([]model.TopicSummary, error) {
	target := c.ListingPageURL(page)

	body, err := c.getJSON(ctx, target)
	if err != nil {
		return nil, err
	}

	topics, err := c.decodeListing(body)
	if err != nil {
		return nil, &ParseError{URL: target, Err: err}
	}
	return topics, nil
}

// decodeListing decodes a listing page body.
func (c *Client) decodeListing(body []byte) ([]model.TopicSummary, error) {
	var doc listingDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	if doc.TopicList == nil || doc.TopicList.Topics == nil {
		return nil, ErrMissingTopicList
	}

	wire := *doc.TopicList.Topics
	topics := make([]model.TopicSummary, 0, len(wire))
	for _, w := range wire {
		topic, err := w.toModel(c.categoryID)
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// FetchAllTopics walks the category listing from page 0, one page at a
// time, and stops at the first page with no topics. Topics are returned in
// listing order; a topic already seen on an earlier page is not repeated.
// Any page failure aborts the walk: a partial listing is never returned as
// if it were complete.
func (c *Client) FetchAllTopics(ctx context.Context) ([]model.TopicSummary, error) {
	all := make([]model.TopicSummary, 0)
	seen := make(map[int64]struct{})

	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if c.maxListingPages > 0 && page >= c.maxListingPages {
			c.logger.Warn("listing page limit reached, stopping pagination",
				"pages", page,
				"topics", len(all),
			)
			break
		}

		topics, err := c.FetchListingPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(topics) == 0 {
			c.logger.Debug("listing exhausted", "page", page, "topics", len(all))
			break
		}

		c.logger.Info("fetched listing page",
			"page", page,
			"topics", len(topics),
		)
		for _, topic := range topics {
			if _, ok := seen[topic.ID]; ok {
				c.logger.Debug("topic listed again, skipping", "topic_id", topic.ID, "page", page)
				continue
			}
			seen[topic.ID] = struct{}{}
			all = append(all, topic)
		}
	}

	return all, nil
}
