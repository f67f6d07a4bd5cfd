package preview

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func section(t *testing.T, kind string, fields any) Section {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return Section{Type: kind, Fields: raw}
}

func TestResolveRoute(t *testing.T) {
	require.Equal(t, "/pricing", ResolveRoute("pages", "pricing"))
	require.Equal(t, "/", ResolveRoute("pages", "home"))
	require.Equal(t, "/", ResolveRoute("pages", ""))
	require.Equal(t, "/landing/spring-sale", ResolveRoute("landing-pages", "spring-sale"))
	require.Equal(t, "/c/q3-push", ResolveRoute("campaigns", "q3-push"))
	require.Empty(t, ResolveRoute("blog-posts", "anything"))
	require.Empty(t, ResolveRoute("landing-pages", ""))
}

func TestNormalizeTypedBlocks(t *testing.T) {
	sections := []Section{
		section(t, KindHero, HeroBlock{Headline: "Grow faster", Subheadline: "Loyalty that pays"}),
		section(t, KindCTA, CTABlock{Label: "Start now", Href: "/signup"}),
		section(t, KindPricing, PricingBlock{Tiers: []PricingTier{{Name: "Starter", Price: "$9"}}}),
		section(t, KindTestimonial, TestimonialBlock{Quote: "Doubled our repeat orders", Author: "Dana"}),
		section(t, KindRichText, RichTextBlock{Text: "Fine print."}),
	}

	blocks, validation, diagnostics := Normalize(sections)

	require.Len(t, blocks, 5)
	require.Equal(t, Validation{Total: 5, Rendered: 5, Skipped: 0}, validation)
	require.Empty(t, diagnostics)
	require.Equal(t, []string{KindHero, KindCTA, KindPricing, KindTestimonial, KindRichText}, BlockKinds(blocks))
}

func TestNormalizeSkipsInvalidSectionsKeepsSiblings(t *testing.T) {
	sections := []Section{
		section(t, KindHero, HeroBlock{}), // missing headline
		section(t, KindCTA, CTABlock{Label: "Start now", Href: "/signup"}),
		section(t, "video", map[string]string{"src": "x"}),
		{Type: KindRichText, Fields: json.RawMessage(`{"text": 42}`)},
	}

	blocks, validation, diagnostics := Normalize(sections)

	require.Len(t, blocks, 1)
	require.Equal(t, KindCTA, blocks[0].Kind)
	require.Equal(t, Validation{Total: 4, Rendered: 1, Skipped: 3}, validation)
	require.Len(t, diagnostics, 3)
	require.Contains(t, diagnostics[0], "headline is required")
	require.Contains(t, diagnostics[1], "unknown section type")
}

func TestNormalizeHeroWarnsOnDanglingCTA(t *testing.T) {
	sections := []Section{
		section(t, KindHero, HeroBlock{Headline: "Grow faster", CTALabel: "Start"}),
	}

	blocks, validation, diagnostics := Normalize(sections)

	require.Len(t, blocks, 1)
	require.Equal(t, 1, validation.Rendered)
	require.Len(t, diagnostics, 1)
	require.Contains(t, diagnostics[0], "ctaLabel set without ctaHref")
	require.Empty(t, blocks[0].Hero.CTALabel)
}

func TestNormalizePricingDropsBadTiers(t *testing.T) {
	sections := []Section{
		section(t, KindPricing, PricingBlock{Tiers: []PricingTier{
			{Name: "Starter", Price: "$9"},
			{Name: "", Price: "$19"},
		}}),
	}

	blocks, validation, diagnostics := Normalize(sections)

	require.Len(t, blocks, 1)
	require.Len(t, blocks[0].Pricing.Tiers, 1)
	require.Equal(t, 1, validation.Rendered)
	require.Len(t, diagnostics, 1)
}

func TestNormalizeEmptyInput(t *testing.T) {
	blocks, validation, diagnostics := Normalize(nil)

	require.Empty(t, blocks)
	require.Equal(t, Validation{}, validation)
	require.NotNil(t, diagnostics)
	require.Empty(t, diagnostics)
}

func TestRenderEscapesContent(t *testing.T) {
	blocks := []Block{
		{Kind: KindHero, Hero: &HeroBlock{Headline: `<script>alert("x")</script>`}},
		{Kind: KindRichText, RichText: &RichTextBlock{Text: "First.\n\nSecond."}},
	}

	markup := Render(blocks)

	require.NotContains(t, markup, "<script>")
	require.Contains(t, markup, "&lt;script&gt;")
	require.Equal(t, 2, strings.Count(markup, "<section"))
	require.Contains(t, markup, "<p>First.</p><p>Second.</p>")
}
