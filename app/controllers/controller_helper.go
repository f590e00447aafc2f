package controllers

import (
	"strings"
	"unicode"

	"github.com/gofiber/fiber/v2"
)

// firstHeaderValue returns the first non-empty header among keys.
func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}

// normalizeFolio strips every whitespace rune from a caller-supplied folio.
// Folios are pasted from receipts and emails and arrive with stray spaces.
func normalizeFolio(folio string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folio)
}
