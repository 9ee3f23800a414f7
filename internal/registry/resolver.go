package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
)

// LatestTag is the sentinel version meaning "whatever the registry has newest".
const LatestTag = "latest"

// VersionSource lists the published versions of a package.
type VersionSource interface {
	Versions(ctx context.Context, name string) ([]string, error)
}

// Resolver turns version requests into concrete published versions.
type Resolver struct {
	logger *zerolog.Logger
	source VersionSource
}

// NewResolver creates a Resolver backed by source.
func NewResolver(logger *zerolog.Logger, source VersionSource) *Resolver {
	return &Resolver{logger: logger, source: source}
}

// Latest returns the highest published version of name. It fails with
// ErrRegistry when the registry is unreachable or knows no usable version.
func (r *Resolver) Latest(ctx context.Context, name string) (string, error) {
	versions, err := r.source.Versions(ctx, name)
	if err != nil {
		return "", err
	}
	r.logger.Debug().Strs("versions", versions).Msgf("Published versions of %s", name)

	latest := LatestOf(versions)
	if latest == "" {
		return "", fmt.Errorf("%w: no published versions found for %s", ErrRegistry, name)
	}
	return latest, nil
}

// Satisfying returns the highest published version of name within ^baseVersion.
// An empty string with a nil error means no published version matches.
func (r *Resolver) Satisfying(ctx context.Context, baseVersion, name string) (string, error) {
	versions, err := r.source.Versions(ctx, name)
	if err != nil {
		return "", err
	}
	return SatisfyingOf(baseVersion, versions), nil
}

// LatestOf returns the maximum of versions by semver precedence, ignoring
// entries that do not parse. The result does not depend on input order.
func LatestOf(versions []string) string {
	parsed := parseAll(versions)
	if len(parsed) == 0 {
		return ""
	}
	return parsed[0].Original()
}

// SatisfyingOf returns the highest entry of versions inside the compatible
// release range ^baseVersion, or "" when nothing matches.
func SatisfyingOf(baseVersion string, versions []string) string {
	constraint, err := semver.NewConstraint("^" + baseVersion)
	if err != nil {
		return ""
	}
	for _, v := range parseAll(versions) {
		if constraint.Check(v) {
			return v.Original()
		}
	}
	return ""
}

// parseAll parses versions and sorts them in descending precedence. Ties in
// precedence (e.g. differing only in build metadata) are broken on the
// original string so the order is total.
func parseAll(versions []string) []*semver.Version {
	parsed := make([]*semver.Version, 0, len(versions))
	for _, raw := range versions {
		v, err := semver.StrictNewVersion(raw)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		if c := parsed[i].Compare(parsed[j]); c != 0 {
			return c > 0
		}
		return parsed[i].Original() > parsed[j].Original()
	})
	return parsed
}
