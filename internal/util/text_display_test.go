package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnippet(t *testing.T) {
	assert.Equal(t, "Hello world", Snippet("Hello\x00   world \n\t", 100))
	assert.Equal(t, "abc…", Snippet("abcdef", 3))
	assert.Equal(t, "héllo", Snippet("héllo", 5))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Plan my trip", FirstLine("\n\n## Plan my trip\nsecond line"))
	assert.Equal(t, "", FirstLine("  \n "))
}

func TestMeaningfulTerms(t *testing.T) {
	got := MeaningfulTerms("Research current SEO trends in the USA, SEO again!")
	assert.Equal(t, []string{"research", "current", "seo", "trends", "usa", "again"}, got)
	assert.Equal(t, []string{"best", "ai", "tools"}, MeaningfulTerms("best AI tools"))
}

func TestQueryFingerprintIsStable(t *testing.T) {
	assert.Len(t, QueryFingerprint("hello"), 16)
	assert.Equal(t, QueryFingerprint("hello"), QueryFingerprint("hello"))
	assert.NotEqual(t, QueryFingerprint("hello"), QueryFingerprint("hello!"))
}
