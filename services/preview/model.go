package preview

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Block kinds produced by normalization.
const (
	KindHero        = "hero"
	KindCTA         = "cta"
	KindPricing     = "pricing"
	KindTestimonial = "testimonial"
	KindRichText    = "rich_text"
)

// Envelope is the CMS editor payload posted on every draft save.
type Envelope struct {
	Collection   string    `json:"collection"`
	Slug         string    `json:"slug"`
	Persona      string    `json:"persona"`
	Campaign     string    `json:"campaign"`
	FeatureFlags []string  `json:"featureFlags"`
	Sections     []Section `json:"sections"`
}

// Section is one lexical content section. Fields stays raw until the
// section type is known.
type Section struct {
	Type   string          `json:"type"`
	Fields json.RawMessage `json:"fields"`
}

type HeroBlock struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	CTALabel    string `json:"ctaLabel,omitempty"`
	CTAHref     string `json:"ctaHref,omitempty"`
}

type CTABlock struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Style string `json:"style,omitempty"`
}

type PricingTier struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Features []string `json:"features,omitempty"`
}

type PricingBlock struct {
	Title string        `json:"title,omitempty"`
	Tiers []PricingTier `json:"tiers"`
}

type TestimonialBlock struct {
	Quote  string `json:"quote"`
	Author string `json:"author,omitempty"`
	Role   string `json:"role,omitempty"`
}

type RichTextBlock struct {
	Text string `json:"text"`
}

// Block is the tagged union a section normalizes into. Exactly one of the
// kind fields is set, matching Kind.
type Block struct {
	Kind        string            `json:"kind"`
	Hero        *HeroBlock        `json:"hero,omitempty"`
	CTA         *CTABlock         `json:"cta,omitempty"`
	Pricing     *PricingBlock     `json:"pricing,omitempty"`
	Testimonial *TestimonialBlock `json:"testimonial,omitempty"`
	RichText    *RichTextBlock    `json:"richText,omitempty"`
}

// Validation summarizes how many sections survived normalization.
type Validation struct {
	Total    int `json:"total"`
	Rendered int `json:"rendered"`
	Skipped  int `json:"skipped"`
}

// Broadcast is the event envelope pushed to every connected preview client.
type Broadcast struct {
	Route       string     `json:"route"`
	Variant     string     `json:"variant"`
	BlockKinds  []string   `json:"blockKinds"`
	Validation  Validation `json:"validation"`
	Diagnostics []string   `json:"diagnostics"`
	Markup      string     `json:"markup"`
	PublishedAt time.Time  `json:"publishedAt"`
}

// PublishResponse is the HTTP reply to the CMS after a broadcast.
type PublishResponse struct {
	Acknowledged bool       `json:"acknowledged"`
	Validation   Validation `json:"validation"`
	Diagnostics  []string   `json:"diagnostics"`
	Variant      string     `json:"variant"`
}

// Delta is the compact audit row persisted after each broadcast.
type Delta struct {
	ID         string         `gorm:"column:id;primaryKey"`
	Variant    string         `gorm:"column:variant;index"`
	Route      string         `gorm:"column:route"`
	Collection string         `gorm:"column:collection"`
	Slug       string         `gorm:"column:slug"`
	BlockKinds datatypes.JSON `gorm:"column:block_kinds"`
	Rendered   int            `gorm:"column:rendered"`
	Skipped    int            `gorm:"column:skipped"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
}

func (Delta) TableName() string {
	return "marketing_preview_deltas"
}
