package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-stock/internal/domain"
)

func TestInsufficientStockError_IsSentinela(t *testing.T) {
	err := fmt.Errorf("transferir: %w", &domain.InsufficientStockError{Available: 3, Requested: 5})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 3, ise.Available)
	assert.Equal(t, 5, ise.Requested)
	assert.Contains(t, err.Error(), "disponible 3")
}

func TestOperationError_Kinds(t *testing.T) {
	assert.ErrorIs(t, domain.NotFound("producto %s no existe", "p1"), domain.ErrNotFound)
	assert.ErrorIs(t, domain.Invalid("cantidad inválida"), domain.ErrInvalidOperation)
	assert.Equal(t, "producto p1 no existe", domain.NotFound("producto %s no existe", "p1").Error())
}

func TestPersistence_EnvuelveSoloErroresDeInfraestructura(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := domain.Persistence("set stock", cause)

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, cause, "la causa debe seguir accesible")
	assert.NotContains(t, err.Error(), "connection reset", "el mensaje no debe filtrar detalles")

	notFound := domain.NotFound("bodega no existe")
	assert.Same(t, notFound, domain.Persistence("set stock", notFound), "los errores de dominio no se re-envuelven")
	assert.NoError(t, domain.Persistence("noop", nil))
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, domain.IsDomainError(domain.Invalid("x")))
	assert.True(t, domain.IsDomainError(&domain.InsufficientStockError{}))
	assert.False(t, domain.IsDomainError(errors.New("boom")))
	assert.False(t, domain.IsDomainError(domain.ErrDuplicate))
}
