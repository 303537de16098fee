package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrandKeyCollapsesVariants(t *testing.T) {
	variants := []string{"Zara", "ZARA", "Zárà", "  zara ", "Zara!", "Z.A.R.A"}
	for _, v := range variants {
		assert.Equal(t, "zara", BrandKey(v), "variant %q", v)
	}
	assert.Equal(t, "coca cola", BrandKey("Coca   Cola"))
	assert.Equal(t, "loreal paris", BrandKey("L'Oréal  Paris"))
	assert.Equal(t, "", BrandKey("  ¡¿!  "))
}

func TestBrandKeyIdempotent(t *testing.T) {
	for _, in := range []string{"Zárà", "L'Oréal Paris", "Müller & Söhne", "Nike\tRunning", "ÉCOLE"} {
		once := BrandKey(in)
		assert.Equal(t, once, BrandKey(once), "input %q", in)
	}
}

func TestBrandKeysDedupes(t *testing.T) {
	got := BrandKeys([]string{"Zara", "ZARA", "", "Mango", "mangó"})
	assert.Equal(t, []string{"zara", "mango"}, got)
}

func TestCompactKey(t *testing.T) {
	assert.Equal(t, "cocacola", CompactKey("Coca Cola"))
	assert.Equal(t, "cocacola", CompactKey("#CocaCola"))
}

func TestTokensDropsStopwordsAndShortWords(t *testing.T) {
	got := Tokens("The energy of padel, with an urban & playful tone")
	assert.Equal(t, []string{"energy", "padel", "urban", "playful", "tone"}, got)
}

func TestParseInputList(t *testing.T) {
	assert.Equal(t, []string{"padel", "tennis"}, ParseInputList([]string{" Padel", "padel", "", "TENNIS"}))
}
