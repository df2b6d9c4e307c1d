package langpair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNormalizesISOCodes(t *testing.T) {
	p, err := Parse("EN", "Ru")
	require.NoError(t, err)
	assert.Equal(t, "en", p.Source)
	assert.Equal(t, "ru", p.Target)
	assert.Equal(t, "en-ru", p.String())
}

func TestParseAcceptsRegionTaggedCodes(t *testing.T) {
	p, err := Parse("en-US", "pt-BR")
	require.NoError(t, err)
	assert.Equal(t, "en", p.Source)
	assert.Equal(t, "pt", p.Target)
}

func TestParseRejectsEmptyCode(t *testing.T) {
	_, err := Parse("", "ru")
	assert.Error(t, err)
}

func TestParseRejectsInvalidCode(t *testing.T) {
	_, err := Parse("en", "not-a-language-code!!")
	assert.Error(t, err)
}
