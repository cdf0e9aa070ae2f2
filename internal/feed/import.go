package feed

import (
	"context"
	"fmt"

	"github.com/cincanproject/cincan-registry/internal/store"
	"github.com/cincanproject/cincan-registry/internal/tool"
)

// Result counts what an import wrote.
type Result struct {
	Tools    int
	Versions int
	Metadata int
}

// Import writes the feed into s within a single transaction. Tool rows are
// written first, then metadata, then version records, so versions from a
// known checker category link to the metadata of the same feed.
func Import(ctx context.Context, s *store.Store, f *Feed) (Result, error) {
	var res Result
	err := s.Transaction(ctx, func(tx *store.Store) error {
		for _, t := range f.Tools {
			row := &tool.Tool{
				Name:        t.Name,
				Location:    t.Location,
				Updated:     t.Updated,
				Description: t.Description,
			}
			if err := tx.InsertToolInfo(ctx, row); err != nil {
				return err
			}
			res.Tools++
		}

		if err := tx.InsertMetadata(ctx, f.Metadata...); err != nil {
			return err
		}
		res.Metadata = len(f.Metadata)

		for _, t := range f.Tools {
			if err := tx.InsertVersionInfo(ctx, t, t.Versions...); err != nil {
				return err
			}
			res.Versions += len(t.Versions)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to import feed: %w", err)
	}
	return res, nil
}

// ImportFile loads the feed at path and imports it.
func ImportFile(ctx context.Context, s *store.Store, path string) (Result, error) {
	f, err := Load(path)
	if err != nil {
		return Result{}, err
	}
	return Import(ctx, s, f)
}
