package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/cincanproject/cincan-registry/internal/checker"
	"github.com/cincanproject/cincan-registry/internal/store"
)

// openStore opens the cache with the configured logger and checker
// categories. Read-only commands pass create=false and get
// store.ErrNotInitialized instead of an empty database.
func openStore(create bool) (*store.Store, error) {
	path := getDBPath()
	if !create {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, store.ErrNotInitialized
		}
	}

	categories := checker.Default
	if cfg != nil {
		categories = cfg.Categories()
	}

	st, err := store.Open(path,
		store.WithLogger(logger.Named("store")),
		store.WithCategories(categories),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}
