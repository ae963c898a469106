package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setBuild(t *testing.T, v, commit, built string) {
	t.Helper()
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = origVersion, origCommit, origBuildTime
	})
	Version, GitCommit, BuildTime = v, commit, built
}

func TestString(t *testing.T) {
	setBuild(t, "1.2.3", "abc123def", "2024-01-15T10:30:00Z")

	result := String()
	assert.Contains(t, result, "vibeplanner 1.2.3")
	assert.Contains(t, result, "abc123def")
	assert.Contains(t, result, "2024-01-15T10:30:00Z")
	assert.Contains(t, result, runtime.Version())
}

func TestInfo(t *testing.T) {
	setBuild(t, "dev", "unknown", "unknown")

	info := Info()
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "unknown", info.Commit)
	assert.Equal(t, "unknown", info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}
