package inventory

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// Descripciones por defecto cuando el actor no indica motivo.
const (
	DefaultSetReason      = "Actualización manual de stock"
	DefaultTransferReason = "Transferencia entre bodegas"
)

// MovementTypeFor clasifica el cambio: IN si sube, OUT en otro caso.
// Una cantidad igual a la anterior se registra como OUT.
func MovementTypeFor(previousQty, newQty int) string {
	if newQty > previousQty {
		return entity.MovementTypeIN
	}
	return entity.MovementTypeOUT
}

// IsValidMovementType valida el filtro de tipo del historial.
func IsValidMovementType(t string) bool {
	return t == entity.MovementTypeIN || t == entity.MovementTypeOUT
}

// ReasonOrDefault recorta reason y devuelve def si queda vacío.
func ReasonOrDefault(reason, def string) string {
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return def
}

// TransferOutDescription descripción del débito en la bodega origen.
func TransferOutDescription(targetCode, reason string) string {
	return fmt.Sprintf("Transferencia a %s: %s", targetCode, ReasonOrDefault(reason, DefaultTransferReason))
}

// TransferInDescription descripción del crédito en la bodega destino.
func TransferInDescription(sourceCode, reason string) string {
	return fmt.Sprintf("Transferencia desde %s: %s", sourceCode, ReasonOrDefault(reason, DefaultTransferReason))
}
