package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSatisfies(t *testing.T) {
	c, err := ParseConstraint("^1.2.0")
	require.NoError(t, err)

	assert.True(t, Satisfies(MustParseVersion("1.2.0"), c))
	assert.True(t, Satisfies(MustParseVersion("1.9.9"), c))
	assert.False(t, Satisfies(MustParseVersion("2.0.0"), c))
}

func TestSatisfies_ZeroValues(t *testing.T) {
	c, err := ParseConstraint(">=1.0.0")
	require.NoError(t, err)

	assert.False(t, Satisfies(Version{}, c))
	assert.False(t, Satisfies(MustParseVersion("1.0.0"), Constraint{}))
}

func TestParseErrors(t *testing.T) {
	_, err := ParseVersion("not-a-version")
	assert.ErrorContains(t, err, "parse version")

	_, err = ParseConstraint(">>=banana")
	assert.ErrorContains(t, err, "parse constraint")

	assert.Panics(t, func() { MustParseVersion("x.y") })
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "1.4.0", MustParseVersion("1.4.0").String())
	assert.Equal(t, "", Version{}.String())
}
