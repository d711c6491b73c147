package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json string", `"Credenciales inválidas"`, "Credenciales inválidas"},
		{"message field", `{"message": "Stock insuficiente"}`, "Stock insuficiente"},
		{"error field", `{"error": "Error al obtener productos"}`, "Error al obtener productos"},
		{"body string", `{"body": "Usuario no existe"}`, "Usuario no existe"},
		{"nested body", `{"body": {"message": "nested"}}`, "nested"},
		{"empty", ``, ""},
		{"not json", `Internal Server Error`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage([]byte(tt.body)))
		})
	}
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, 2024, parseDate("2024-05-28").Year())
	assert.Equal(t, 15, parseDate("2024-05-28 15:04:05").Hour())
	assert.False(t, parseDate("2024-05-28T10:00:00Z").IsZero())
	assert.True(t, parseDate("yesterday").IsZero())
}
