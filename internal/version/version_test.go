package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	s := String()
	assert.True(t, strings.HasPrefix(s, Name+" "+Version))
	if rev := revision(); rev != "" {
		assert.Contains(t, s, "("+rev+")")
	}
}

func TestBuildID_Stable(t *testing.T) {
	id := BuildID()
	assert.NotEmpty(t, id)
	assert.Equal(t, id, BuildID())
	assert.Equal(t, id, computeBuildID())
}
