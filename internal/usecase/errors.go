package usecase

import "errors"

var (
	// ErrMalformedInput marks a source whose scrape produced nothing but
	// droppable records. Individual bad records only degrade a batch; a
	// run fails with this when no source yielded usable data.
	ErrMalformedInput = errors.New("malformed input")
	// ErrTransient marks a fetch failure that survived its local retries.
	// A run fails with this when every configured source was unreachable.
	ErrTransient = errors.New("transient failure")
	// ErrStructural marks conditions fatal to a whole run: storage
	// unreachable, a required source missing from configuration.
	ErrStructural = errors.New("structural failure")
	// ErrRunTimeout marks a run that exceeded its wall-clock budget.
	ErrRunTimeout = errors.New("run exceeded wall-clock budget")
)
