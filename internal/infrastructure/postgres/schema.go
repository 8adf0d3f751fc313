package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// SchemaSQL devuelve el DDL del servicio (idempotente).
func SchemaSQL() string { return schemaSQL }

// EnsureSchema aplica schema.sql. Se ejecuta al arrancar si DB_AUTO_MIGRATE=true.
func EnsureSchema(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("aplicar schema: %w", err)
	}
	return nil
}
