package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	tok, err := Generate("secret", "user-1", RoleBodeguero, "inventario-stock", 5)
	require.NoError(t, err)

	userID, role, err := Parse("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, RoleBodeguero, role)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := Generate("secret", "user-1", RoleAdmin, "inventario-stock", 5)
	require.NoError(t, err)

	_, _, err = Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := Generate("secret", "user-1", RoleAdmin, "inventario-stock", -1)
	require.NoError(t, err)

	_, _, err = Parse("secret", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", "user-1", RoleAdmin, "x", 5)
	assert.Error(t, err)
}
