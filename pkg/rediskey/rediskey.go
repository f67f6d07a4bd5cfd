package rediskey

import "fmt"

// Preview keys (global convention across services)
const (
	PreviewDeltaPrefix  = "marketing:preview:delta"
	PreviewClientPrefix = "marketing:preview:client"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildPreviewDeltaKey returns "marketing:preview:delta:{variant}"
func BuildPreviewDeltaKey(variant string) string {
	return NamespaceKey(PreviewDeltaPrefix, variant)
}

// BuildPreviewClientKey returns "marketing:preview:client:{clientID}"
func BuildPreviewClientKey(clientID string) string {
	return NamespaceKey(PreviewClientPrefix, clientID)
}
