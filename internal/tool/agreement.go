package tool

import "context"

// Agreement summarizes whether the local, remote and upstream versions of a
// tool match.
type Agreement struct {
	Local    *VersionRecord
	Remote   *VersionRecord
	Upstream *VersionRecord

	LocalVersion    string
	RemoteVersion   string
	UpstreamVersion string

	// LocalMatchesRemote is false when either side is missing.
	LocalMatchesRemote bool
	// RemoteMatchesUpstream is false when either side is missing.
	RemoteMatchesUpstream bool
}

// UpToDate reports whether the remote image carries the upstream version and,
// when a local image exists, the local image matches the remote one.
func (a Agreement) UpToDate() bool {
	if !a.RemoteMatchesUpstream {
		return false
	}
	return a.Local == nil || a.LocalMatchesRemote
}

// Agreement resolves the latest local and remote records and the origin
// upstream record and compares their normalized versions. Resolving a live
// upstream record may block on its checker.
func (t *Tool) Agreement(ctx context.Context) (Agreement, error) {
	a := Agreement{
		Local:    t.Latest(Local),
		Remote:   t.Latest(Remote),
		Upstream: t.OriginVersion(),
	}

	var err error
	if a.Local != nil {
		if a.LocalVersion, err = a.Local.Version(ctx); err != nil {
			return a, err
		}
	}
	if a.Remote != nil {
		if a.RemoteVersion, err = a.Remote.Version(ctx); err != nil {
			return a, err
		}
	}
	if a.Upstream != nil {
		if a.UpstreamVersion, err = a.Upstream.Version(ctx); err != nil {
			return a, err
		}
	}

	if a.Local != nil && a.Remote != nil {
		if a.LocalMatchesRemote, err = a.Local.Equal(ctx, a.RemoteVersion); err != nil {
			return a, err
		}
	}
	if a.Remote != nil && a.Upstream != nil {
		if a.RemoteMatchesUpstream, err = a.Remote.Equal(ctx, a.UpstreamVersion); err != nil {
			return a, err
		}
	}
	return a, nil
}
