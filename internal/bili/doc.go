// Package bili provides the Bilibili web API client used for video metadata,
// user video listings, and native subtitle retrieval.
//
// The client is read-only glue around a handful of JSON endpoints; the
// interesting control flow (fallback, caching) lives in the resolver and
// pipeline packages. Authenticated requests attach browser cookies when a
// credential is available, since the subtitle listing endpoint returns an
// empty set for anonymous callers on many videos.
package bili
