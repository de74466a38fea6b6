package sweeper

import (
	"context"
)

// Sweeper is a long-running background maintenance task.
//
//go:generate mockgen -source=sweeper.go -destination=../mocks/sweeper.go -package=mocks -mock_names=Sweeper=MockSweeper
type Sweeper interface {
	// Start blocks running the sweep loop until ctx is canceled or Stop is called
	Start(ctx context.Context) error

	// Stop signals the loop to exit and waits for the in-progress cycle
	Stop(ctx context.Context) error

	// Name identifies the sweeper in logs
	Name() string
}
