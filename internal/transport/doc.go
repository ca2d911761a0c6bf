// Package transport builds the HTTP clients used to talk to the forum.
//
// Every client carries the authenticated session as a fixed Cookie header
// rendered once at construction time. There is no cookie jar: responses
// cannot rewrite the session while topics are fetched in parallel.
//
// Egress can optionally go through a SOCKS5 proxy, either an external one
// or an embedded Tor daemon started with tornago.
package transport
