// Package config provides the configuration of forumscan: which forum and
// category to crawl, the topic date window, request pacing, session and
// output locations. Values come from defaults, the optional .forumscan
// YAML file and command-line flags, in increasing priority.
package config
