package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "SALDO", "saldo"},
		{"strips accents", "sáldo", "saldo"},
		{"strips tilde n", "nómina", "nomina"},
		{"keeps enie folded", "Señal", "senal"},
		{"drops question marks", "¿Qué tipo de cuenta ofrecéis?", "que tipo de cuenta ofreceis"},
		{"collapses whitespace", "  abrir   cuenta  ", "abrir cuenta"},
		{"punctuation becomes boundary", "luz,agua;internet", "luz agua internet"},
		{"keeps digits", "2fa", "2fa"},
		{"empty", "", ""},
		{"only punctuation", "¿¡...!?", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestWords(t *testing.T) {
	assert.Nil(t, Words(""))
	assert.Equal(t, []string{"abrir", "cuenta", "nueva"}, Words("abrir cuenta nueva"))
}
