package model

import "strings"

// Separator between namespace and logical key. Never escaped.
const Separator = ":"

// Chars with special meaning in KEYS patterns.
const patternMeta = `*?[]{}\`

// FullKey builds the store key for a logical key.
func FullKey(namespace, key string) string {
	return namespace + Separator + key
}

// NamespacePattern is the KEYS pattern matching every key of namespace.
// Pattern meta chars of the namespace are backslash-escaped.
func NamespacePattern(namespace string) string {
	var sb strings.Builder
	for _, r := range namespace {
		if strings.ContainsRune(patternMeta, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String() + Separator + "*"
}

// LogicalKey strips the namespace prefix and separator from a full key.
// Returns false if fullKey does not belong to namespace.
func LogicalKey(namespace, fullKey string) (string, bool) {
	return strings.CutPrefix(fullKey, namespace+Separator)
}
