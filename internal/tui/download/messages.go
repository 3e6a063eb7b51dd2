package download

import "github.com/elsanchez/tubefetch/internal/domain"

// Message types for async operations

type submittedMsg struct {
	waiter Waiter
	err    error
}

type outcomeMsg struct {
	outcome domain.DownloadOutcome
}

type copiedMsg struct {
	err error
}
