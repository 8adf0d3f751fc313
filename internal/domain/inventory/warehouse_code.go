package inventory

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	warehouseCodePrefixLen = 4
	warehouseCodeFallback  = "BOD"

	// MaxWarehouseCodeAttempts sufijos probados antes de rendirse ante colisiones.
	MaxWarehouseCodeAttempts = 50
)

// WarehouseCodeBase genera el código base: prefijo alfanumérico del nombre (sin tildes,
// en mayúsculas, hasta 4 caracteres) + "-" + AAMM. Ej: "Bodega Bogotá", oct-2026 → "BODE-2610".
func WarehouseCodeBase(name string, at time.Time) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(folded) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == warehouseCodePrefixLen {
				break
			}
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = warehouseCodeFallback
	}
	return fmt.Sprintf("%s-%s", prefix, at.Format("0601"))
}

// WarehouseCodeCandidate devuelve el intento n (1 = base, 2 = base-2, ...).
func WarehouseCodeCandidate(base string, attempt int) string {
	if attempt <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}
