package report

import (
	"sort"

	"github.com/nao1215/forumscan/internal/model"
)

// DefaultTopN is the number of tags and posts listed in a summary.
const DefaultTopN = 5

// CategoryCount is the number of records of one category.
type CategoryCount struct {
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
}

// TagCount is how many records carry one auto tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Summary is the human-oriented overview of one run.
type Summary struct {
	Run             model.CrawlRun  `json:"run"`
	Topics          int             `json:"topics"`
	Categories      []CategoryCount `json:"categories"`
	TopTags         []TagCount      `json:"top_tags"`
	TopPosts        []model.Record  `json:"top_posts"`
	AcceptedAnswers int             `json:"accepted_answers"`
	Replies         int             `json:"replies"`
	NewRecords      int             `json:"new_records"`
}

// NewSummary builds a summary of records. topN bounds the tag and post
// lists; non-positive means DefaultTopN.
func NewSummary(run model.CrawlRun, records []model.Record, topN int) *Summary {
	if topN <= 0 {
		topN = DefaultTopN
	}

	s := &Summary{
		Run:        run,
		Categories: make([]CategoryCount, 0, len(model.Categories)),
		NewRecords: len(records),
	}

	byCategory := make(map[model.Category]int, len(model.Categories))
	byTag := make(map[string]int)
	topics := make(map[int64]struct{})
	for _, r := range records {
		topics[r.TopicID] = struct{}{}
		byCategory[r.Type]++
		for _, tag := range r.AutoTags {
			byTag[tag]++
		}
		if r.IsAcceptedAnswer {
			s.AcceptedAnswers++
		}
		if r.IsReply {
			s.Replies++
		}
	}
	s.Topics = len(topics)

	for _, c := range model.Categories {
		s.Categories = append(s.Categories, CategoryCount{Category: c, Count: byCategory[c]})
	}

	s.TopTags = make([]TagCount, 0, len(byTag))
	for tag, n := range byTag {
		s.TopTags = append(s.TopTags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(s.TopTags, func(i, j int) bool {
		if s.TopTags[i].Count != s.TopTags[j].Count {
			return s.TopTags[i].Count > s.TopTags[j].Count
		}
		return s.TopTags[i].Tag < s.TopTags[j].Tag
	})
	if len(s.TopTags) > topN {
		s.TopTags = s.TopTags[:topN]
	}

	ranked := make([]model.Record, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PopularityScore > ranked[j].PopularityScore
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	s.TopPosts = ranked

	return s
}

// Total returns the number of summarized records.
func (s *Summary) Total() int {
	total := 0
	for _, c := range s.Categories {
		total += c.Count
	}
	return total
}

// DiffReport is the comparison of two stored runs.
type DiffReport struct {
	Baseline model.CrawlRun   `json:"baseline"`
	Current  model.CrawlRun   `json:"current"`
	Diff     model.RecordDiff `json:"diff"`
}

// NewDiffReport compares the records of two runs.
func NewDiffReport(baseline, current model.CrawlRun, baselineRecords, currentRecords []model.Record) *DiffReport {
	return &DiffReport{
		Baseline: baseline,
		Current:  current,
		Diff:     model.DiffRecords(baselineRecords, currentRecords),
	}
}
