package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizpin-api/internal/domain/entity"
)

func TestNewJWTService_RequiresSecret(t *testing.T) {
	// Act
	svc, err := NewJWTService("", 24)

	// Assert
	assert.Error(t, err, "Пустой секрет должен отклоняться")
	assert.Nil(t, svc)
}

func TestJWTService_GenerateAndParse(t *testing.T) {
	// Arrange
	svc, err := NewJWTService("test-secret-key", 24)
	require.NoError(t, err)

	host := &entity.Host{
		ID:    "host-1",
		Email: "host@example.com",
	}

	// Act
	token, err := svc.GenerateToken(host)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "host-1", claims.HostID)
	assert.Equal(t, "host@example.com", claims.Email)
	assert.Equal(t, "host-1", claims.Subject)
}

func TestJWTService_ParseToken_WrongSecret(t *testing.T) {
	// Arrange: токен подписан одним секретом, проверяется другим
	issuer, err := NewJWTService("секрет-раз", 24)
	require.NoError(t, err)
	verifier, err := NewJWTService("секрет-два", 24)
	require.NoError(t, err)

	token, err := issuer.GenerateToken(&entity.Host{ID: "host-1", Email: "host@example.com"})
	require.NoError(t, err)

	// Act
	claims, err := verifier.ParseToken(token)

	// Assert
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestJWTService_ParseToken_Garbage(t *testing.T) {
	// Arrange
	svc, err := NewJWTService("test-secret-key", 24)
	require.NoError(t, err)

	// Act
	claims, err := svc.ParseToken("не.токен.вовсе")

	// Assert
	assert.Error(t, err)
	assert.Nil(t, claims)
}
