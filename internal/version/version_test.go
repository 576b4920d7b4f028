package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuildInfo(t *testing.T, v, commit, date string) {
	t.Helper()
	oldV, oldC, oldD := Version, GitCommit, BuildDate
	SetBuildInfo(v, commit, date)
	t.Cleanup(func() { SetBuildInfo(oldV, oldC, oldD) })
}

func TestGetInfo(t *testing.T) {
	withBuildInfo(t, "1.2.3", "abcdef1234567", "2026-01-02")

	info, err := GetInfo()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, uint64(1), info.SemVer.Major())
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestGetInfo_InvalidVersion(t *testing.T) {
	withBuildInfo(t, "not-a-version", "unknown", "unknown")

	_, err := GetInfo()
	assert.Error(t, err)
	assert.Contains(t, GetFormattedVersion(), "invalid version")
}

func TestGetBaseVersion(t *testing.T) {
	tests := []struct {
		version  string
		expected string
	}{
		{"0.1.0", "0.1.0"},
		{"1.4.2-rc.1", "1.4.2"},
		{"2.0.0+42.abc123", "2.0.0"},
		{"garbage", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			withBuildInfo(t, tt.version, "unknown", "unknown")
			assert.Equal(t, tt.expected, GetBaseVersion())
		})
	}
}

func TestIsPrerelease(t *testing.T) {
	withBuildInfo(t, "1.0.0-beta.1", "unknown", "unknown")
	assert.True(t, IsPrerelease())

	SetBuildInfo("1.0.0", "unknown", "unknown")
	assert.False(t, IsPrerelease())
}

func TestGetFormattedVersion(t *testing.T) {
	withBuildInfo(t, "0.3.0", "abcdef1234567", "2026-01-02")

	formatted := GetFormattedVersion()
	assert.Contains(t, formatted, "aireviewer v0.3.0")
	assert.Contains(t, formatted, "commit abcdef1")
	assert.Contains(t, formatted, "built 2026-01-02")
}
