package preview

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/gosimple/slug"
)

// VariantDescriptor derives a stable key from the persona, campaign and
// feature-flag context. The same combination always hashes to the same key,
// which is what the delta history is bucketed by. It is not a uniqueness or
// security guarantee.
func VariantDescriptor(persona, campaign string, flags []string) string {
	parts := make([]string, 0, len(flags)+2)
	if persona != "" {
		parts = append(parts, "p:"+slug.Make(persona))
	}
	if campaign != "" {
		parts = append(parts, "c:"+slug.Make(campaign))
	}

	sorted := make([]string, len(flags))
	copy(sorted, flags)
	sort.Strings(sorted)
	for _, flag := range sorted {
		if flag == "" {
			continue
		}
		parts = append(parts, "f:"+slug.Make(flag))
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("v-%08x", h.Sum32())
}
