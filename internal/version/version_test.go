package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	orig := []string{Version, GitCommit, BuildDate}
	defer func() { Version, GitCommit, BuildDate = orig[0], orig[1], orig[2] }()

	Version, GitCommit, BuildDate = "v0.1.0", "abc1234", "2024-05-01"
	assert.Equal(t, "v0.1.0 (commit: abc1234, built: 2024-05-01)", String())
}
