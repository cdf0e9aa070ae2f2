package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cincanproject/cincan-registry/internal/timefmt"
	"github.com/cincanproject/cincan-registry/internal/tool"
)

// VersionFilter narrows GetVersionsByTool. Zero fields match everything.
type VersionFilter struct {
	Type     tool.VersionType
	Provider string
	Location string
}

// InsertVersionInfo upserts version records of t keyed by
// (tool, version, version_type, source).
//
// A conflicting row is updated in place: tags, size, updated, origin and
// meta_id take the new values while the row id and created time stay. Reading
// the version of a record with a live source may call its checker.
func (s *Store) InsertVersionInfo(ctx context.Context, t *tool.Tool, records ...*tool.VersionRecord) error {
	if len(records) == 0 {
		s.log.Debug("empty version list provided, nothing to add", zap.String("tool", t.Name))
		return nil
	}

	query := `
		INSERT INTO version_data
		(tool_id, tool_location, meta_id, version, version_type, source, tags, updated, origin, size, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tool_id, version, version_type, source) DO UPDATE SET
			tool_location = excluded.tool_location,
			meta_id = excluded.meta_id,
			tags = excluded.tags,
			updated = excluded.updated,
			origin = excluded.origin,
			size = excluded.size
	`

	now := timefmt.Format(s.now())
	for _, r := range records {
		if r == nil {
			continue
		}

		if err := r.Tags.Validate(); err != nil {
			return fmt.Errorf("failed to insert version of %s: %w", t.Name, err)
		}
		ver, err := r.Version(ctx)
		if err != nil {
			return fmt.Errorf("failed to read version of %s: %w", t.Name, err)
		}

		source := r.Source.String()
		metaID, err := s.resolveMetaID(ctx, t, source)
		if err != nil {
			return err
		}

		updated := now
		if !r.Updated().IsZero() {
			updated = timefmt.Format(r.Updated())
		}

		vt := r.Type
		if vt == "" {
			vt = tool.Undefined
		}

		_, err = s.exec(ctx, query,
			t.Name,
			t.Location,
			metaID,
			ver,
			string(vt),
			source,
			r.Tags.Join(),
			updated,
			r.Origin(),
			r.Size,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert version %s of %s: %w", ver, t.Name, err)
		}
	}
	return nil
}

// GetVersionsByTool returns the version records of the named tool.
func (s *Store) GetVersionsByTool(ctx context.Context, name string, f VersionFilter) ([]*tool.VersionRecord, error) {
	query := `
		SELECT id, tool_id, tool_location, meta_id, version, version_type, source, tags, updated, origin, size, created
		FROM version_data
		WHERE tool_id = ?`
	args := []any{name}
	if f.Location != "" {
		query += ` AND tool_location = ?`
		args = append(args, f.Location)
	}
	if f.Type != "" {
		s.log.Debug("getting versions by type", zap.String("type", string(f.Type)))
		query += ` AND version_type = ?`
		args = append(args, string(f.Type))
	}
	if f.Provider != "" {
		query += ` AND source = ?`
		args = append(args, f.Provider)
	}
	query += ` ORDER BY version_type, updated DESC, id`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get versions for %s: %w", name, err)
	}
	raw, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get versions for %s: %w", name, err)
	}

	versions := make([]*tool.VersionRecord, 0, len(raw))
	for _, r := range raw {
		v, err := versionFromRow(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read version of %s: %w", name, err)
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// resolveMetaID links a record to checker metadata. Only sources that name a
// known checker category are linked, to the matching metadata row of the same
// tool, preferring the origin checker. Anything else gets NULL.
func (s *Store) resolveMetaID(ctx context.Context, t *tool.Tool, source string) (any, error) {
	if !s.categories.Known(source) {
		return nil, nil
	}

	query := `
		SELECT meta_id FROM metadata
		WHERE tool_id = ? AND tool_location = ? AND lower(provider) = lower(?)
		ORDER BY origin DESC, meta_id
		LIMIT 1
	`
	var id int64
	err := s.queryRow(ctx, query, t.Name, t.Location, source).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve metadata for %s/%s: %w", t.Name, source, classify(err))
	}
	return id, nil
}
