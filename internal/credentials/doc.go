// Package credentials persists browser-extracted platform cookies and decides
// when an operation genuinely needs them. Records are cached on disk per
// browser with a timestamp and expire after thirty days; expiry is evaluated
// when a record is read, never eagerly.
package credentials
