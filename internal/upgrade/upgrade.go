// Package upgrade provides self-update for the revbox binary from GitHub
// releases.
package upgrade

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/creativeprojects/go-selfupdate"
)

const repoSlug = "sungur/revbox"

// UpdateInfo describes an available update.
type UpdateInfo struct {
	Version string
	Notes   string
	release *selfupdate.Release
}

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("create GitHub source: %w", err)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{Source: source})
	if err != nil {
		return nil, fmt.Errorf("create updater: %w", err)
	}
	return updater, nil
}

// CheckUpdate looks for a release newer than currentVersion. It returns
// (nil, nil) when already up to date.
func CheckUpdate(ctx context.Context, currentVersion string) (*UpdateInfo, error) {
	updater, err := newUpdater()
	if err != nil {
		return nil, err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return nil, fmt.Errorf("detect latest version: %w", err)
	}
	if !found {
		return nil, nil
	}

	// "dev" builds always see updates so local builds can test the flow.
	if currentVersion != "dev" && !latest.GreaterThan(currentVersion) {
		return nil, nil
	}

	return &UpdateInfo{
		Version: latest.Version(),
		Notes:   latest.ReleaseNotes,
		release: latest,
	}, nil
}

// Apply downloads and installs the update over the running binary.
func Apply(ctx context.Context, info *UpdateInfo) error {
	if info == nil || info.release == nil {
		return fmt.Errorf("no update information available")
	}

	updater, err := newUpdater()
	if err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("determine executable path: %w", err)
	}

	if err := updater.UpdateTo(ctx, info.release, exe); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}
	return nil
}

// VersionString formats the version banner with optional build metadata.
func VersionString(version, commit, date string) string {
	s := "revbox " + version
	if commit != "" {
		short := commit
		if len(short) > 7 {
			short = short[:7]
		}
		s += " (" + short + ")"
	}
	if date != "" {
		s += " built " + date
	}
	return s + " " + runtime.GOOS + "/" + runtime.GOARCH
}
