// Package source contains the adapters that produce news items for the
// ingestion coordinator: a canned mock feed, RSS/Atom feeds, Reddit listings
// and a Kafka topic. Every adapter implements Name and Fetch; the returned
// items are not validated here.
package source
