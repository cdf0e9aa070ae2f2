package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/cincanproject/cincan-registry/internal/timefmt"
	"github.com/cincanproject/cincan-registry/internal/tool"
)

// row maps column names to the values the driver returned.
type row map[string]any

// scanRows reads every remaining row keyed by column name and closes rows.
// Callers read everything before issuing further queries because the store
// holds a single connection.
func scanRows(rows *sql.Rows) ([]row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r := make(row, len(cols))
		for i, c := range cols {
			r[c] = vals[i]
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func (r row) value(col string) (any, error) {
	v, ok := r[col]
	if !ok {
		return nil, fmt.Errorf("%w: missing column %q", ErrMalformedRow, col)
	}
	return v, nil
}

func (r row) str(col string) (string, error) {
	v, err := r.value(col)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: column %q has type %T", ErrMalformedRow, col, v)
	}
}

func (r row) boolean(col string) (bool, error) {
	v, err := r.value(col)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case nil:
		return false, nil
	case int64:
		return t != 0, nil
	case bool:
		return t, nil
	case string:
		return t == "1" || strings.EqualFold(t, "true"), nil
	default:
		return false, fmt.Errorf("%w: column %q has type %T", ErrMalformedRow, col, v)
	}
}

func (r row) nullInt(col string) (int64, bool, error) {
	v, err := r.value(col)
	if err != nil {
		return 0, false, err
	}
	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case int64:
		return t, true, nil
	default:
		return 0, false, fmt.Errorf("%w: column %q has type %T", ErrMalformedRow, col, v)
	}
}

// toolColumns is the exact shape of a tools row.
var toolColumns = []string{"name", "updated", "location", "description"}

// toolFromRow converts a tools row. Versions are not loaded.
func toolFromRow(r row) (*tool.Tool, error) {
	if len(r) != len(toolColumns) {
		return nil, fmt.Errorf("%w: row in %s table should have %d values, got %d",
			ErrMalformedRow, tableTools, len(toolColumns), len(r))
	}

	var fields [4]string
	for i, col := range toolColumns {
		s, err := r.str(col)
		if err != nil {
			return nil, err
		}
		fields[i] = s
	}

	updated, err := timefmt.Parse(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: tool %s: %v", ErrMalformedRow, fields[0], err)
	}

	return &tool.Tool{
		Name:        fields[0],
		Updated:     updated,
		Location:    fields[2],
		Description: fields[3],
	}, nil
}

// versionFromRow converts a version_data row into a record with a static
// source; live checkers are never persisted.
func versionFromRow(r row) (*tool.VersionRecord, error) {
	ver, err := r.str("version")
	if err != nil {
		return nil, err
	}
	rawType, err := r.str("version_type")
	if err != nil {
		return nil, err
	}
	vt, err := tool.ParseVersionType(rawType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	source, err := r.str("source")
	if err != nil {
		return nil, err
	}
	tags, err := r.str("tags")
	if err != nil {
		return nil, err
	}
	rawUpdated, err := r.str("updated")
	if err != nil {
		return nil, err
	}
	updated, err := timefmt.Parse(rawUpdated)
	if err != nil {
		return nil, fmt.Errorf("%w: version %s: %v", ErrMalformedRow, ver, err)
	}
	origin, err := r.boolean("origin")
	if err != nil {
		return nil, err
	}
	size, err := r.str("size")
	if err != nil {
		return nil, err
	}

	rec := tool.NewRecord(ver, vt, tool.StaticSource(source),
		tool.WithUpdated(updated),
		tool.WithOrigin(origin),
		tool.WithSize(size),
	)
	rec.Tags = tool.SplitTags(tags)
	return rec, nil
}

func metadataFromRow(r row) (*tool.Metadata, error) {
	var m tool.Metadata
	id, ok, err := r.nullInt("meta_id")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: metadata row without meta_id", ErrMalformedRow)
	}
	m.ID = id

	for col, dst := range map[string]*string{
		"tool_id":       &m.ToolName,
		"tool_location": &m.ToolLocation,
		"uri":           &m.URI,
		"repository":    &m.Repository,
		"tool":          &m.Tool,
		"provider":      &m.Provider,
		"suite":         &m.Suite,
		"method":        &m.Method,
	} {
		if *dst, err = r.str(col); err != nil {
			return nil, err
		}
	}
	if m.Origin, err = r.boolean("origin"); err != nil {
		return nil, err
	}
	if m.DockerOrigin, err = r.boolean("docker_origin"); err != nil {
		return nil, err
	}
	return &m, nil
}
