package preview

import (
	"fmt"
	"html"
	"strings"
)

// Render produces the static markup broadcast to preview clients. Rendering
// happens once per publish, not per connected client.
func Render(blocks []Block) string {
	var b strings.Builder
	for _, block := range blocks {
		switch block.Kind {
		case KindHero:
			renderHero(&b, block.Hero)
		case KindCTA:
			renderCTA(&b, block.CTA)
		case KindPricing:
			renderPricing(&b, block.Pricing)
		case KindTestimonial:
			renderTestimonial(&b, block.Testimonial)
		case KindRichText:
			renderRichText(&b, block.RichText)
		}
	}
	return b.String()
}

func renderHero(b *strings.Builder, hero *HeroBlock) {
	b.WriteString(`<section class="hero">`)
	fmt.Fprintf(b, "<h1>%s</h1>", html.EscapeString(hero.Headline))
	if hero.Subheadline != "" {
		fmt.Fprintf(b, "<p>%s</p>", html.EscapeString(hero.Subheadline))
	}
	if hero.ImageURL != "" {
		fmt.Fprintf(b, `<img src="%s" alt=""/>`, html.EscapeString(hero.ImageURL))
	}
	if hero.CTALabel != "" && hero.CTAHref != "" {
		fmt.Fprintf(b, `<a class="hero-cta" href="%s">%s</a>`, html.EscapeString(hero.CTAHref), html.EscapeString(hero.CTALabel))
	}
	b.WriteString(`</section>`)
}

func renderCTA(b *strings.Builder, cta *CTABlock) {
	style := cta.Style
	if style == "" {
		style = "primary"
	}
	fmt.Fprintf(b, `<section class="cta cta-%s"><a href="%s">%s</a></section>`,
		html.EscapeString(style), html.EscapeString(cta.Href), html.EscapeString(cta.Label))
}

func renderPricing(b *strings.Builder, pricing *PricingBlock) {
	b.WriteString(`<section class="pricing">`)
	if pricing.Title != "" {
		fmt.Fprintf(b, "<h2>%s</h2>", html.EscapeString(pricing.Title))
	}
	for _, tier := range pricing.Tiers {
		b.WriteString(`<div class="tier">`)
		fmt.Fprintf(b, "<h3>%s</h3><p>%s</p>", html.EscapeString(tier.Name), html.EscapeString(tier.Price))
		if len(tier.Features) > 0 {
			b.WriteString("<ul>")
			for _, feature := range tier.Features {
				fmt.Fprintf(b, "<li>%s</li>", html.EscapeString(feature))
			}
			b.WriteString("</ul>")
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</section>`)
}

func renderTestimonial(b *strings.Builder, t *TestimonialBlock) {
	b.WriteString(`<section class="testimonial">`)
	fmt.Fprintf(b, "<blockquote>%s</blockquote>", html.EscapeString(t.Quote))
	if t.Author != "" {
		attribution := t.Author
		if t.Role != "" {
			attribution += ", " + t.Role
		}
		fmt.Fprintf(b, "<cite>%s</cite>", html.EscapeString(attribution))
	}
	b.WriteString(`</section>`)
}

func renderRichText(b *strings.Builder, rich *RichTextBlock) {
	b.WriteString(`<section class="rich-text">`)
	for _, paragraph := range strings.Split(rich.Text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		fmt.Fprintf(b, "<p>%s</p>", html.EscapeString(paragraph))
	}
	b.WriteString(`</section>`)
}
