package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")

	// ErrNoData: the bootstrap snapshot is wholly unobtainable and no cache
	// entry, fresh or stale, could rescue the call.
	ErrNoData = errors.New("fpl data unavailable")

	// ErrSeasonInactive: no event in the snapshot is flagged current. Hard
	// stop for window computation, not a per-player skip.
	ErrSeasonInactive = errors.New("season inactive: no current gameweek")

	// ErrNoCurrentGameweek: squad picks were requested without an explicit
	// gameweek and none could be resolved from the snapshot.
	ErrNoCurrentGameweek = errors.New("no current gameweek")
)
