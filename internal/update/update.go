// Package update prints a notice when a newer compatible release of the CLI
// has been published. Every failure is logged at debug level and swallowed.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
)

const (
	DevelopmentVersion = "development"

	checkTimeout  = 2 * time.Second
	cacheDuration = 24 * time.Hour
	cacheFileName = "update.json"
)

// SatisfyingResolver finds the newest published version within ^base.
type SatisfyingResolver interface {
	Satisfying(ctx context.Context, baseVersion, name string) (string, error)
}

// Checker compares the running version with the registry, at most once per
// cacheDuration unless forced.
type Checker struct {
	logger   *zerolog.Logger
	resolver SatisfyingResolver
	home     string
	out      io.Writer
	force    bool
	now      func() time.Time
}

type cacheState struct {
	LatestVersion string    `json:"latest_version"`
	LastCheck     time.Time `json:"last_check"`
}

// NewChecker writes notices to out and keeps its cache file in home. With
// force set, the cache is ignored and development builds are checked too.
func NewChecker(logger *zerolog.Logger, resolver SatisfyingResolver, home string, out io.Writer, force bool) *Checker {
	return &Checker{
		logger:   logger,
		resolver: resolver,
		home:     home,
		out:      out,
		force:    force,
		now:      time.Now,
	}
}

// Check prints a notice when a newer version of cliName within ^currentVersion
// exists. It reports whether a notice was printed.
func (c *Checker) Check(ctx context.Context, cliName, currentVersion string) bool {
	force := c.force
	if currentVersion == DevelopmentVersion && !force {
		c.logger.Debug().Msgf("Current version is '%s', skipping update check. (Set ARCANE_FORCE_UPDATE_CHECK=1 to override)", DevelopmentVersion)
		return false
	}

	cleaned := strings.TrimPrefix(strings.TrimSpace(currentVersion), "v")
	current, err := semver.NewVersion(cleaned)
	if err != nil {
		c.logger.Debug().Msgf("Failed to parse current version '%s': %v", currentVersion, err)
		return false
	}

	path := filepath.Join(c.home, cacheFileName)
	state := c.loadCache(path)

	latestString := state.LatestVersion
	if force || c.now().Sub(state.LastCheck) > cacheDuration {
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()

		fetched, err := c.resolver.Satisfying(ctx, current.String(), cliName)
		if err != nil {
			c.logger.Debug().Msgf("Failed to fetch latest version: %v", err)
		} else {
			latestString = fetched
			state = cacheState{LatestVersion: fetched, LastCheck: c.now()}
			if err := saveCache(path, state); err != nil {
				c.logger.Debug().Msgf("Failed to save update cache: %v", err)
			}
		}
	} else {
		c.logger.Debug().Msgf("Using cached latest version: %s", latestString)
	}

	if latestString == "" {
		c.logger.Debug().Msg("No latest version available to compare.")
		return false
	}

	latest, err := semver.NewVersion(latestString)
	if err != nil {
		c.logger.Debug().Msgf("Failed to parse latest version '%s': %v", latestString, err)
		return false
	}
	if !latest.GreaterThan(current) {
		c.logger.Debug().Msgf("Current version %s is up-to-date.", current)
		return false
	}

	fmt.Fprintf(c.out,
		"\nUpdate available! You're running %s %s, but %s is the latest.\n"+
			"Run `npm install -g %s` to upgrade.\n\n",
		cliName, current, latest, cliName)
	return true
}

func (c *Checker) loadCache(path string) cacheState {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Debug().Msgf("Failed to read update cache: %v", err)
		}
		return cacheState{}
	}
	var state cacheState
	if err := json.Unmarshal(data, &state); err != nil {
		c.logger.Debug().Msgf("Update cache corrupted, ignoring: %v", err)
		return cacheState{}
	}
	return state
}

func saveCache(path string, state cacheState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0640)
}
