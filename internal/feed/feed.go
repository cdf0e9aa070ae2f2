// Package feed decodes YAML observation feeds into tools, version records and
// checker metadata, and imports them into the version cache.
//
// A feed looks like:
//
//	tools:
//	  - name: cincan/radare2
//	    location: dockerhub
//	    updated: 2024-05-01T10:00:00Z
//	    description: Reverse engineering framework
//	    versions:
//	      - version: 4.4.0
//	        type: remote
//	        source: dockerhub
//	        tags: [latest, 4.4.0]
//	        size: 120 MB
//	metadata:
//	  - tool_name: cincan/radare2
//	    location: dockerhub
//	    uri: https://github.com/radareorg/radare2
//	    repository: radareorg
//	    tool: radare2
//	    provider: github
//	    method: release
//	    origin: true
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/cincanproject/cincan-registry/internal/timefmt"
	"github.com/cincanproject/cincan-registry/internal/tool"
)

// Feed is a decoded and validated observation feed.
type Feed struct {
	Tools    []*tool.Tool
	Metadata []*tool.Metadata
}

type document struct {
	Tools    []toolEntry     `yaml:"tools"`
	Metadata []metadataEntry `yaml:"metadata"`
}

type toolEntry struct {
	Name        string         `yaml:"name"`
	Location    string         `yaml:"location"`
	Updated     string         `yaml:"updated"`
	Description string         `yaml:"description"`
	Versions    []versionEntry `yaml:"versions"`
}

type versionEntry struct {
	Version string   `yaml:"version"`
	Type    string   `yaml:"type"`
	Source  string   `yaml:"source"`
	Tags    []string `yaml:"tags"`
	Updated string   `yaml:"updated"`
	Origin  bool     `yaml:"origin"`
	Size    string   `yaml:"size"`
}

type metadataEntry struct {
	ToolName     string `yaml:"tool_name"`
	Location     string `yaml:"location"`
	URI          string `yaml:"uri"`
	Repository   string `yaml:"repository"`
	Tool         string `yaml:"tool"`
	Provider     string `yaml:"provider"`
	Suite        string `yaml:"suite"`
	Method       string `yaml:"method"`
	Origin       bool   `yaml:"origin"`
	DockerOrigin bool   `yaml:"docker_origin"`
}

// ParseError reports YAML that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to parse feed: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse feed at %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError lists every problem found in a decoded feed.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	prefix := "invalid feed"
	if e.Path != "" {
		prefix += " at " + e.Path
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(e.Problems, "; "))
}

// Load reads and decodes the feed file at path.
func Load(path string) (*Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %q: %w", path, err)
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		switch e := err.(type) {
		case *ParseError:
			e.Path = path
		case *ValidationError:
			e.Path = path
		}
		return nil, err
	}
	return f, nil
}

// Decode reads a feed from r. Unknown keys are rejected.
func Decode(r io.Reader) (*Feed, error) {
	var doc document
	if err := yaml.NewDecoder(r, yaml.Strict()).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Feed{}, nil
		}
		return nil, &ParseError{Err: err}
	}
	return build(doc)
}

func build(doc document) (*Feed, error) {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	f := &Feed{}
	seen := make(map[string]bool)

	for i, te := range doc.Tools {
		name := strings.TrimSpace(te.Name)
		location := strings.TrimSpace(te.Location)
		if name == "" || location == "" {
			addf("tools[%d]: name and location are required", i)
			continue
		}
		key := name + "@" + location
		if seen[key] {
			addf("tools[%d]: duplicate tool %s", i, key)
			continue
		}
		seen[key] = true

		t := &tool.Tool{Name: name, Location: location, Description: te.Description}
		if te.Updated != "" {
			ts, err := timefmt.Parse(te.Updated)
			if err != nil {
				addf("tools[%d]: %v", i, err)
			}
			t.Updated = ts
		}

		for j, ve := range te.Versions {
			rec, err := buildVersion(ve)
			if err != nil {
				addf("tools[%d].versions[%d]: %v", i, j, err)
				continue
			}
			t.Versions = append(t.Versions, rec)
		}
		f.Tools = append(f.Tools, t)
	}

	for i, me := range doc.Metadata {
		m := &tool.Metadata{
			ToolName:     strings.TrimSpace(me.ToolName),
			ToolLocation: strings.TrimSpace(me.Location),
			URI:          strings.TrimSpace(me.URI),
			Repository:   me.Repository,
			Tool:         me.Tool,
			Provider:     strings.TrimSpace(me.Provider),
			Suite:        me.Suite,
			Method:       me.Method,
			Origin:       me.Origin,
			DockerOrigin: me.DockerOrigin,
		}
		switch {
		case m.URI == "":
			addf("metadata[%d]: uri is required", i)
		case m.Provider == "":
			addf("metadata[%d]: provider is required", i)
		case !seen[m.ToolName+"@"+m.ToolLocation]:
			addf("metadata[%d]: tool %s@%s is not listed in tools", i, m.ToolName, m.ToolLocation)
		default:
			f.Metadata = append(f.Metadata, m)
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return f, nil
}

func buildVersion(ve versionEntry) (*tool.VersionRecord, error) {
	if strings.TrimSpace(ve.Version) == "" {
		return nil, fmt.Errorf("version is required")
	}
	source := strings.TrimSpace(ve.Source)
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}
	vt, err := tool.ParseVersionType(ve.Type)
	if err != nil {
		return nil, err
	}
	if err := tool.NewTags(ve.Tags...).Validate(); err != nil {
		return nil, err
	}

	opts := []tool.RecordOption{
		tool.WithTags(ve.Tags...),
		tool.WithOrigin(ve.Origin),
		tool.WithSize(ve.Size),
	}
	if ve.Updated != "" {
		ts, err := timefmt.Parse(ve.Updated)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tool.WithUpdated(ts))
	}
	return tool.NewRecord(strings.TrimSpace(ve.Version), vt, tool.StaticSource(source), opts...), nil
}
