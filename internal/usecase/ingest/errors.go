package ingest

import "errors"

var (
	// ErrNoSources is returned by RunOnce and Start when no source is configured.
	ErrNoSources = errors.New("ingest: no sources configured")

	// ErrSourceTimeout means a fetch did not finish within the fetch timeout.
	// Whatever the adapter returns afterwards is discarded.
	ErrSourceTimeout = errors.New("ingest: source fetch timed out")

	// ErrSourceBusy means the previous run of the source has not finished.
	ErrSourceBusy = errors.New("ingest: source run already in progress")

	// ErrUnknownSource is returned by RunSource for a name that is not registered.
	ErrUnknownSource = errors.New("ingest: unknown source")
)
