// Package domain holds the contracts shared by the outlook service and its
// adapters: the query a caller submits, the report it gets back, and the
// collaborators that resolve a place and fetch its climate record.
//
// # Queries
//
// A query names a place either as "City, Country" text or as explicit
// coordinates, plus a calendar day as "MM/DD" and an optional window of days
// on either side. Explicit coordinates win when both are given. Feb 29 is a
// valid day; years without it simply contribute no sample.
//
// # Reports
//
// A report carries one section per variable. Each estimate keeps its sample
// counts so a caller can judge confidence; sections for variables the source
// did not return are nil rather than zero.
//
// # Identifiers
//
// Report IDs are random UUIDs. Query IDs are caller supplied and echoed back
// so Kafka consumers can correlate replies.
package domain
