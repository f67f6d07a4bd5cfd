package preview

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Route collections the storefront can resolve. Anything else is rejected
// before normalization runs.
var routePatterns = map[string]string{
	"pages":         "/%s",
	"landing-pages": "/landing/%s",
	"campaigns":     "/c/%s",
}

// ResolveRoute maps a CMS collection and slug to the storefront path the
// preview frame navigates to. An unknown collection resolves to "".
func ResolveRoute(collection, slug string) string {
	pattern, ok := routePatterns[collection]
	if !ok {
		return ""
	}
	slug = strings.Trim(slug, "/")
	if slug == "" || slug == "home" {
		if collection == "pages" {
			return "/"
		}
		return ""
	}
	return fmt.Sprintf(pattern, slug)
}

// Normalize converts lexical sections into typed marketing blocks. A section
// that fails validation is skipped with a diagnostic; its siblings still
// normalize.
func Normalize(sections []Section) ([]Block, Validation, []string) {
	blocks := make([]Block, 0, len(sections))
	diagnostics := []string{}

	for i, section := range sections {
		block, warns, err := normalizeSection(section)
		for _, w := range warns {
			diagnostics = append(diagnostics, fmt.Sprintf("section %d (%s): %s", i, section.Type, w))
		}
		if err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("section %d (%s): %s", i, section.Type, err))
			continue
		}
		blocks = append(blocks, block)
	}

	validation := Validation{
		Total:    len(sections),
		Rendered: len(blocks),
		Skipped:  len(sections) - len(blocks),
	}
	return blocks, validation, diagnostics
}

func normalizeSection(section Section) (Block, []string, error) {
	switch section.Type {
	case KindHero:
		var hero HeroBlock
		if err := json.Unmarshal(section.Fields, &hero); err != nil {
			return Block{}, nil, fmt.Errorf("malformed fields: %w", err)
		}
		if strings.TrimSpace(hero.Headline) == "" {
			return Block{}, nil, fmt.Errorf("headline is required")
		}
		var warns []string
		if hero.CTALabel != "" && hero.CTAHref == "" {
			warns = append(warns, "ctaLabel set without ctaHref, call to action omitted")
			hero.CTALabel = ""
		}
		return Block{Kind: KindHero, Hero: &hero}, warns, nil

	case KindCTA:
		var cta CTABlock
		if err := json.Unmarshal(section.Fields, &cta); err != nil {
			return Block{}, nil, fmt.Errorf("malformed fields: %w", err)
		}
		if strings.TrimSpace(cta.Label) == "" || strings.TrimSpace(cta.Href) == "" {
			return Block{}, nil, fmt.Errorf("label and href are required")
		}
		return Block{Kind: KindCTA, CTA: &cta}, nil, nil

	case KindPricing:
		var pricing PricingBlock
		if err := json.Unmarshal(section.Fields, &pricing); err != nil {
			return Block{}, nil, fmt.Errorf("malformed fields: %w", err)
		}
		var warns []string
		tiers := pricing.Tiers[:0]
		for _, tier := range pricing.Tiers {
			if strings.TrimSpace(tier.Name) == "" || strings.TrimSpace(tier.Price) == "" {
				warns = append(warns, "tier missing name or price, dropped")
				continue
			}
			tiers = append(tiers, tier)
		}
		pricing.Tiers = tiers
		if len(pricing.Tiers) == 0 {
			return Block{}, warns, fmt.Errorf("no valid pricing tiers")
		}
		return Block{Kind: KindPricing, Pricing: &pricing}, warns, nil

	case KindTestimonial:
		var testimonial TestimonialBlock
		if err := json.Unmarshal(section.Fields, &testimonial); err != nil {
			return Block{}, nil, fmt.Errorf("malformed fields: %w", err)
		}
		if strings.TrimSpace(testimonial.Quote) == "" {
			return Block{}, nil, fmt.Errorf("quote is required")
		}
		return Block{Kind: KindTestimonial, Testimonial: &testimonial}, nil, nil

	case KindRichText:
		var rich RichTextBlock
		if err := json.Unmarshal(section.Fields, &rich); err != nil {
			return Block{}, nil, fmt.Errorf("malformed fields: %w", err)
		}
		if strings.TrimSpace(rich.Text) == "" {
			return Block{}, nil, fmt.Errorf("text is empty")
		}
		return Block{Kind: KindRichText, RichText: &rich}, nil, nil

	default:
		return Block{}, nil, fmt.Errorf("unknown section type")
	}
}

// BlockKinds lists the kind of each block in order, for the broadcast
// envelope and delta history.
func BlockKinds(blocks []Block) []string {
	kinds := make([]string, 0, len(blocks))
	for _, b := range blocks {
		kinds = append(kinds, b.Kind)
	}
	return kinds
}
