package timeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	cursors := []Cursor{
		{},
		{Ledger: "lg-10"},
		{Ledger: "lg-10", Redemptions: "rd-4", Referrals: "rf-2"},
		{Ledger: "lg-10", Redemptions: "rd-4", Referrals: "rf-2", Nudges: "nd-1", Guardrails: "go-9"},
	}

	for _, cursor := range cursors {
		decoded := DecodeCursor(EncodeCursor(cursor))
		require.NotNil(t, decoded)
		require.Equal(t, cursor, *decoded)
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	require.Nil(t, DecodeCursor(""))
	require.Nil(t, DecodeCursor("not-base64!!"))
	require.Nil(t, DecodeCursor("bm90LWpzb24="))        // base64("not-json")
	require.Nil(t, DecodeCursor("WyJhcnJheSJd"))        // base64(`["array"]`)
	require.NotNil(t, DecodeCursor(EncodeCursor(Cursor{Ledger: "x"})))
}
