// Package dedupe assigns cards a content-derived identity so the same
// card produced twice — generated again from the same journal entry, or
// re-parsed from an unchanged source file — collapses to one record.
package dedupe

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/cardgenie/cardgenie/internal/domain"
)

// Normalize returns the canonical text form of a card: each field
// lowercased, trimmed and with line endings unified, joined by newlines
// so fields can never run together.
func Normalize(card domain.Card) string {
	parts := []string{card.Front, card.Back, card.Notes}
	for i, p := range parts {
		p = strings.ToLower(p)
		p = strings.TrimSpace(p)
		parts[i] = strings.ReplaceAll(p, "\r\n", "\n")
	}
	return strings.Join(parts, "\n")
}

// Hash returns the card's identity: the SHA-256 of its normalized
// content, hex encoded.
func Hash(card domain.Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return fmt.Sprintf("%x", sum)
}
