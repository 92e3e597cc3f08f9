package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "Simple", in: "Gold Ring", want: "gold-ring"},
		{name: "Punctuation collapses", in: "  Ring!! -- 18K  ", want: "ring-18k"},
		{name: "Hangul kept", in: "금 반지 3돈", want: "금-반지-3돈"},
		{name: "Nothing usable", in: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestUniqueSlug(t *testing.T) {
	a := UniqueSlug("Gold Ring")
	b := UniqueSlug("Gold Ring")

	assert.True(t, strings.HasPrefix(a, "gold-ring-"))
	assert.Len(t, a, len("gold-ring-")+6)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(UniqueSlug("???"), "item-"))
}

func TestRandomSuffix(t *testing.T) {
	assert.Len(t, RandomSuffix(8), 8)
	assert.Len(t, RandomSuffix(0), 32)
	assert.Len(t, RandomSuffix(100), 32)
}
