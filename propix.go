// Package propix acquires photographic evidence for real-estate listings
// from multiple untrusted external sources, deduplicates near-identical
// images with perceptual hashing, and persists them in a content-addressed
// store with full provenance for downstream visual assessment and reporting.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., fs/, rod/, goquery/, sqlite/).
package propix
