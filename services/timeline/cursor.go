package timeline

import (
	"encoding/base64"
	"encoding/json"
)

// Cursor holds one independent resume position per source stream. Empty
// fields mean the stream is either exhausted or never paginated (nudges and
// guardrails are snapshot sources and keep no position).
type Cursor struct {
	Ledger      string `json:"ledger,omitempty"`
	Redemptions string `json:"redemptions,omitempty"`
	Referrals   string `json:"referrals,omitempty"`
	Nudges      string `json:"nudges,omitempty"`
	Guardrails  string `json:"guardrails,omitempty"`
}

// IsZero reports whether no stream carries a resume position.
func (c Cursor) IsZero() bool {
	return c == Cursor{}
}

// EncodeCursor serialises the five-stream cursor into one opaque token.
func EncodeCursor(c Cursor) string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeCursor decodes a token back into the cursor it was encoded from.
// Malformed tokens decode to nil, which callers treat as "start from the
// beginning" rather than an error.
func DecodeCursor(token string) *Cursor {
	if token == "" {
		return nil
	}

	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil
	}

	return &cursor
}
