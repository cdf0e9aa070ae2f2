package feed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cincanproject/cincan-registry/internal/store"
	"github.com/cincanproject/cincan-registry/internal/tool"
)

const sampleFeed = `
tools:
  - name: cincan/radare2
    location: dockerhub
    updated: "2024-05-01T10:00:00Z"
    description: Reverse engineering framework
    versions:
      - version: "4.4.0"
        type: remote
        source: dockerhub
        tags: ["latest", "4.4.0"]
        size: "120 MB"
      - version: "4.5.0"
        type: upstream
        source: github
        origin: true
        updated: "2024-05-02T08:30:00Z"
metadata:
  - tool_name: cincan/radare2
    location: dockerhub
    uri: https://github.com/radareorg/radare2
    repository: radareorg
    tool: radare2
    provider: github
    method: release
    origin: true
`

func TestDecode(t *testing.T) {
	f, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Len(t, f.Tools, 1)
	require.Len(t, f.Metadata, 1)

	r2 := f.Tools[0]
	assert.Equal(t, "cincan/radare2", r2.Name)
	assert.Equal(t, "dockerhub", r2.Location)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), r2.Updated)
	require.Len(t, r2.Versions, 2)

	remote := r2.Versions[0]
	assert.Equal(t, tool.Remote, remote.Type)
	assert.Equal(t, "4.4.0", remote.StoredVersion())
	assert.Equal(t, "dockerhub", remote.Source.String())
	assert.False(t, remote.Source.IsLive())
	assert.True(t, remote.Tags.Has(tool.LatestTag))
	assert.Equal(t, "120 MB", remote.Size)

	upstream := r2.Versions[1]
	assert.Equal(t, tool.Upstream, upstream.Type)
	assert.True(t, upstream.Origin())
	assert.Equal(t, time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC), upstream.Updated())

	m := f.Metadata[0]
	assert.Equal(t, "github", m.Provider)
	assert.True(t, m.Origin)
}

func TestDecode_Empty(t *testing.T) {
	f, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Tools)
}

func TestDecode_UnknownKey(t *testing.T) {
	_, err := Decode(strings.NewReader("tools: []\nextra: 1\n"))
	var pe *ParseError
	assert.True(t, errors.As(err, &pe), "got %v", err)
}

func TestDecode_ValidationCollectsProblems(t *testing.T) {
	doc := `
tools:
  - name: ""
    location: local
  - name: a
    location: local
    versions:
      - version: ""
        source: local
      - version: "1.0"
        type: sideways
        source: local
      - version: "1.0"
metadata:
  - tool_name: ghost
    location: local
    uri: https://example.com/ghost
    provider: github
`
	_, err := Decode(strings.NewReader(doc))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Len(t, ve.Problems, 5)
	assert.Contains(t, err.Error(), "tools[0]: name and location are required")
	assert.Contains(t, err.Error(), "unknown version type")
	assert.Contains(t, err.Error(), "ghost@local is not listed")
}

func TestDecode_DuplicateTool(t *testing.T) {
	doc := "tools:\n  - {name: a, location: local}\n  - {name: a, location: local}\n"
	_, err := Decode(strings.NewReader(doc))
	assert.ErrorContains(t, err, "duplicate tool a@local")
}

func TestDecode_CommaTag(t *testing.T) {
	doc := `
tools:
  - name: a
    location: local
    versions:
      - {version: "1.0", source: local, tags: ["latest", "1.0,stable"]}
`
	_, err := Decode(strings.NewReader(doc))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Len(t, ve.Problems, 1)
	assert.ErrorContains(t, err, `tools[0].versions[0]: invalid tag: "1.0,stable" contains ','`)
}

func TestLoad_SetsPathOnErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tools:\n  - {name: a}\n"), 0o644))

	_, err := Load(path)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, path, ve.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.CreateSchema())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	f, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)

	res, err := Import(ctx, s, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Tools: 1, Versions: 2, Metadata: 1}, res)

	got, err := s.GetSingleTool(ctx, "cincan/radare2", "dockerhub")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Versions, 2)

	var linked int
	require.NoError(t, s.DB().QueryRow(
		`SELECT COUNT(*) FROM version_data WHERE source = 'github' AND meta_id IS NOT NULL`,
	).Scan(&linked))
	assert.Equal(t, 1, linked)

	var unlinked int
	require.NoError(t, s.DB().QueryRow(
		`SELECT COUNT(*) FROM version_data WHERE source = 'dockerhub' AND meta_id IS NULL`,
	).Scan(&unlinked))
	assert.Equal(t, 1, unlinked)
}

func TestImport_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	f, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	_, err = Import(ctx, s, f)
	require.NoError(t, err)

	f, err = Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	_, err = Import(ctx, s, f)
	require.NoError(t, err)

	counts, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Tools: 1, Versions: 2, Metadata: 1}, counts)
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFeed), 0o644))

	res, err := ImportFile(context.Background(), newStore(t), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tools)
}
