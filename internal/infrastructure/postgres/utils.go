package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isConstraintViolation verifica si err es una violación de unicidad sobre el constraint indicado.
func isConstraintViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// whereBuilder acumula condiciones con placeholders posicionales; nunca interpola valores.
type whereBuilder struct {
	conds []string
	args  []any
}

// add agrega "column op $n" con su argumento.
func (b *whereBuilder) add(column, op string, arg any) {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, fmt.Sprintf("%s %s $%d", column, op, len(b.args)))
}

// next reserva el siguiente placeholder para arg (LIMIT/OFFSET).
func (b *whereBuilder) next(arg any) string {
	b.args = append(b.args, arg)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) sql() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}
