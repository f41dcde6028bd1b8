package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	orig := [3]string{Version, GitSHA, BuildTime}
	t.Cleanup(func() { Version, GitSHA, BuildTime = orig[0], orig[1], orig[2] })

	assert.Equal(t, "pcdkit dev (unknown, built unknown)", String())

	Version, GitSHA, BuildTime = "v1.2.3", "abc1234", "2026-01-02T03:04:05Z"
	assert.Equal(t, "pcdkit v1.2.3 (abc1234, built 2026-01-02T03:04:05Z)", String())
}
