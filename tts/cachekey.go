package tts

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// ContentHash returns the hex MD5 of the NFC-normalized text.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(norm.NFC.String(text))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// CacheKey returns the cache key for the whole text of the document at uri.
func CacheKey(uri, text string) string {
	return uri + "_" + ContentHash(text)
}

// SelectionCacheKey returns the cache key for a selection within the
// document at uri.
func SelectionCacheKey(uri, text string) string {
	return uri + "_selection_" + ContentHash(text)
}
