// Package pipeline turns listed topics into ordered records.
//
// Each topic is a model.TopicJob that flows through a fixed sequence of
// steps: fetch the topic document, aggregate its reply graph, assemble one
// record per post. A BatchProcessor runs one pipeline per topic with bounded
// parallelism and returns the jobs in listing order, and the Harvester ties
// the session, the listing crawl and the batch together into one run.
//
// Design decision: The request budget lives in the crawler client, not
// here. Workers only bound how many topic documents are in flight, so the
// concurrency setting can be raised without raising the request rate.
package pipeline
