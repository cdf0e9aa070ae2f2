package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cincanproject/cincan-registry/internal/tool"
)

// InsertMetadata upserts checker metadata keyed by URI and stores the
// resulting meta_id back into each entry. The id of an existing URI never
// changes, so version records linked to it stay linked.
func (s *Store) InsertMetadata(ctx context.Context, entries ...*tool.Metadata) error {
	query := `
		INSERT INTO metadata
		(tool_id, tool_location, uri, repository, tool, provider, suite, method, origin, docker_origin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (uri) DO UPDATE SET
			tool_id = excluded.tool_id,
			tool_location = excluded.tool_location,
			repository = excluded.repository,
			tool = excluded.tool,
			provider = excluded.provider,
			suite = excluded.suite,
			method = excluded.method,
			origin = excluded.origin,
			docker_origin = excluded.docker_origin
		RETURNING meta_id
	`

	for _, m := range entries {
		if m == nil {
			continue
		}
		if strings.TrimSpace(m.URI) == "" {
			return fmt.Errorf("failed to insert metadata for %s: uri is required", m.ToolName)
		}

		var suite any
		if m.Suite != "" {
			suite = m.Suite
		}

		err := s.queryRow(ctx, query,
			m.ToolName,
			m.ToolLocation,
			m.URI,
			m.Repository,
			m.Tool,
			m.Provider,
			suite,
			m.Method,
			m.Origin,
			m.DockerOrigin,
		).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("failed to insert metadata %s: %w", m.URI, classify(err))
		}
	}
	return nil
}

// GetMetadata returns the checker metadata of a tool. An empty location
// matches any location.
func (s *Store) GetMetadata(ctx context.Context, name, location string) ([]*tool.Metadata, error) {
	query := `
		SELECT meta_id, tool_id, tool_location, uri, repository, tool, provider, suite, method, origin, docker_origin
		FROM metadata
		WHERE tool_id = ?`
	args := []any{name}
	if location != "" {
		query += ` AND tool_location = ?`
		args = append(args, location)
	}
	query += ` ORDER BY origin DESC, meta_id`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for %s: %w", name, err)
	}
	raw, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for %s: %w", name, err)
	}

	out := make([]*tool.Metadata, 0, len(raw))
	for _, r := range raw {
		m, err := metadataFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Counts summarizes the cache contents.
type Counts struct {
	Tools    int
	Versions int
	Metadata int
}

// Count returns the number of rows in each table.
func (s *Store) Count(ctx context.Context) (Counts, error) {
	var c Counts
	for table, dst := range map[string]*int{
		tableTools:       &c.Tools,
		tableVersionData: &c.Versions,
		tableMetadata:    &c.Metadata,
	} {
		if err := s.queryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(dst); err != nil {
			return Counts{}, fmt.Errorf("failed to count %s: %w", table, classify(err))
		}
	}
	return c, nil
}
