// Package session groups discovered recording files into sessions.
//
// A session is identified by its subject plus the date and time token embedded
// in every filename the acquisition rig writes (YYYY-MM-DDTHH_MM_SS). Grouping
// replaces an untyped subject → date → time → files tree with explicit Session
// records, applies the optional exclusive start-date bound, and reports files
// that carry no token so callers can decide whether to warn, ignore, or fail.
package session
