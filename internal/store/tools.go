package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cincanproject/cincan-registry/internal/timefmt"
	"github.com/cincanproject/cincan-registry/internal/tool"
)

// InsertToolInfo upserts tools keyed by (name, location) and then upserts
// every version record they carry.
//
// An existing row is only overwritten when the incoming Updated is strictly
// newer than the stored one. Versions are upserted either way.
func (s *Store) InsertToolInfo(ctx context.Context, tools ...*tool.Tool) error {
	query := `
		INSERT INTO tools (name, updated, location, description)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name, location) DO UPDATE SET
			updated = excluded.updated,
			location = excluded.location,
			description = excluded.description
		WHERE excluded.updated > tools.updated
	`

	for _, t := range tools {
		if t == nil {
			continue
		}
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Location) == "" {
			return fmt.Errorf("failed to insert tool: name and location are required (got %q, %q)", t.Name, t.Location)
		}

		updated := t.Updated
		if updated.IsZero() {
			updated = s.now()
		}

		if _, err := s.exec(ctx, query, t.Name, timefmt.Format(updated), t.Location, t.Description); err != nil {
			return fmt.Errorf("failed to insert tool %s: %w", t.Name, err)
		}

		if err := s.InsertVersionInfo(ctx, t, t.Versions...); err != nil {
			return err
		}
	}
	return nil
}

// GetSingleTool retrieves a tool with every version record of its name. An
// empty location matches any location. Returns nil, nil when the tool does not exist.
func (s *Store) GetSingleTool(ctx context.Context, name, location string) (*tool.Tool, error) {
	query := `SELECT name, updated, location, description FROM tools WHERE name = ?`
	args := []any{name}
	if location != "" {
		query += ` AND location = ?`
		args = append(args, location)
	}
	query += ` ORDER BY location LIMIT 1`

	tools, err := s.loadTools(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get tool %s: %w", name, err)
	}
	if len(tools) == 0 {
		return nil, nil
	}
	return tools[0], nil
}

// GetTools returns all tools, optionally restricted to one location.
func (s *Store) GetTools(ctx context.Context, location string) ([]*tool.Tool, error) {
	query := `SELECT name, updated, location, description FROM tools`
	var args []any
	if location != "" {
		query += ` WHERE location = ?`
		args = append(args, location)
	}
	query += ` ORDER BY name, location`

	tools, err := s.loadTools(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return tools, nil
}

// GetToolsUpdatedSince returns tools whose stored Updated is at or after since,
// optionally restricted to one location.
func (s *Store) GetToolsUpdatedSince(ctx context.Context, since time.Time, location string) ([]*tool.Tool, error) {
	query := `SELECT name, updated, location, description FROM tools WHERE s_date(updated) >= s_date(?)`
	args := []any{timefmt.Format(since)}
	if location != "" {
		query += ` AND location = ?`
		args = append(args, location)
	}
	query += ` ORDER BY name, location`

	tools, err := s.loadTools(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools updated since %s: %w", timefmt.Format(since), err)
	}
	return tools, nil
}

// DeleteTool removes a tool and its checker metadata. Version records are
// keyed by tool name, so while another location of the same name remains its
// rows are handed to that location; otherwise the cascading foreign key drops
// them with the tool. Reports whether a tool was removed.
func (s *Store) DeleteTool(ctx context.Context, name, location string) (bool, error) {
	var deleted bool
	err := s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.exec(ctx, `DELETE FROM metadata WHERE tool_id = ? AND tool_location = ?`, name, location); err != nil {
			return fmt.Errorf("failed to delete metadata of %s: %w", name, err)
		}
		_, err := tx.exec(ctx, `
			UPDATE version_data SET tool_location = (
				SELECT location FROM tools WHERE name = ? AND location <> ? ORDER BY location LIMIT 1
			)
			WHERE tool_id = ? AND tool_location = ?
			AND EXISTS (SELECT 1 FROM tools WHERE name = ? AND location <> ?)`,
			name, location, name, location, name, location)
		if err != nil {
			return fmt.Errorf("failed to hand over versions of %s: %w", name, err)
		}
		result, err := tx.exec(ctx, `DELETE FROM tools WHERE name = ? AND location = ?`, name, location)
		if err != nil {
			return fmt.Errorf("failed to delete tool %s: %w", name, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	if !deleted {
		s.log.Debug("tool not found for delete", zap.String("tool", name), zap.String("location", location))
	}
	return deleted, nil
}

// loadTools runs a tools query and attaches each tool's version records.
// Versions are shared by every location of a tool name, so they load by name.
func (s *Store) loadTools(ctx context.Context, query string, args ...any) ([]*tool.Tool, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	raw, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	tools := make([]*tool.Tool, 0, len(raw))
	for _, r := range raw {
		t, err := toolFromRow(r)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}

	for _, t := range tools {
		versions, err := s.GetVersionsByTool(ctx, t.Name, VersionFilter{})
		if err != nil {
			return nil, err
		}
		t.Versions = versions
	}
	return tools, nil
}
