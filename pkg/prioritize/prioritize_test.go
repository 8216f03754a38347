package prioritize

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Tier
	}{
		{"numeric id param", "http://example.com/view?id=42", TierHigh},
		{"numeric product id", "http://example.com/p?product_id=9", TierHigh},
		{"search param", "http://example.com/find?q=shoes", TierHigh},
		{"auth param", "http://example.com/login?username=bob", TierHigh},
		{"many params", "http://example.com/x?a=1&b=2&c=3", TierHigh},
		{"script extension with param", "http://example.com/page.php?ref=abc", TierHigh},
		{"non numeric id is not high", "http://example.com/view?ref=abc", TierMedium},
		{"any param", "http://example.com/thing?color=red", TierMedium},
		{"db endpoint no params", "http://example.com/admin/", TierMedium},
		{"numeric path segment", "http://example.com/posts/17", TierMedium},
		{"plain page", "http://example.com/contact.html", TierLow},
		{"root", "http://example.com/", TierLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.url), tt.url)
		})
	}
}

func TestClassify_ParamNameAnchored(t *testing.T) {
	// "grid" must not count as an id parameter hit.
	assert.Equal(t, TierMedium, Classify("http://example.com/a?grid=5"))
	// "q" only matches the exact parameter name.
	assert.Equal(t, TierMedium, Classify("http://example.com/a?quota=x"))
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "high", TierHigh.String())
	assert.Equal(t, "medium", TierMedium.String())
	assert.Equal(t, "low", TierLow.String())
}

func TestOrder_TiersStayOrdered(t *testing.T) {
	urls := []string{
		"http://example.com/",
		"http://example.com/view?id=1",
		"http://example.com/thing?color=red",
		"http://example.com/login?username=a",
		"http://example.com/about.html",
		"http://example.com/posts/3",
	}
	out := Order(urls, rand.New(rand.NewSource(7)))
	require.Len(t, out, len(urls))

	lastTier := TierHigh
	for _, u := range out {
		tier := Classify(u)
		assert.LessOrEqual(t, tier, lastTier, "tier order broken at %s", u)
		if tier < lastTier {
			lastTier = tier
		}
	}
}

func TestOrder_DeterministicUnderSeed(t *testing.T) {
	urls := []string{
		"http://example.com/view?id=1",
		"http://example.com/view?id=2",
		"http://example.com/view?id=3",
		"http://example.com/view?id=4",
	}
	first := Order(urls, rand.New(rand.NewSource(42)))
	second := Order(urls, rand.New(rand.NewSource(42)))
	assert.Equal(t, first, second)
}

func TestOrder_NilRandAndEmptyInput(t *testing.T) {
	assert.Empty(t, Order(nil, nil))
	out := Order([]string{"http://example.com/only?id=1"}, nil)
	assert.Equal(t, []string{"http://example.com/only?id=1"}, out)
}
