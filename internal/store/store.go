package store

import (
	"context"

	"api-testgen/internal/types"
)

// Store persists generated test cases. The orchestrator hands each emitted
// test to SaveTestCase one at a time and waits for it to return, so
// implementations never see concurrent writes from one session. A save that
// succeeded stays saved even when the session later fails.
type Store interface {
	SaveTestCase(ctx context.Context, test *types.TestCase) error
	ListTestCases(ctx context.Context, specID int64) ([]types.TestCase, error)
	Close() error
}
