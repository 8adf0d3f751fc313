package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidOperation  = errors.New("operación inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrPersistence       = errors.New("no se pudo completar la operación")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrDuplicatePrimary  = errors.New("ya existe una bodega principal")
)

// OperationError error de validación con mensaje legible; Kind es uno de los sentinelas de arriba.
type OperationError struct {
	Kind    error
	Message string
}

func (e *OperationError) Error() string { return e.Message }
func (e *OperationError) Unwrap() error { return e.Kind }

// NotFound construye un error ErrNotFound con mensaje.
func NotFound(format string, args ...any) error {
	return &OperationError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Invalid construye un error ErrInvalidOperation con mensaje.
func Invalid(format string, args ...any) error {
	return &OperationError{Kind: ErrInvalidOperation, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError indica que la bodega origen no cubre la cantidad pedida.
// Available se devuelve al cliente para mostrar el disponible real.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// PersistenceError envuelve un fallo de infraestructura (BD, commit, constraint).
// Error() no expone el detalle; Err queda accesible con errors.As / errors.Is.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + ErrPersistence.Error()
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Persistence envuelve err como PersistenceError salvo que ya sea un error de dominio.
func Persistence(op string, err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsDomainError indica si err pertenece a la taxonomía de dominio.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidOperation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrPersistence)
}
