package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbank/agente-ia/pkg/domain"
	"github.com/mockbank/agente-ia/pkg/responder"
)

func builtinClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(responder.BuiltinTables())
	require.NoError(t, err)
	return c
}

func TestClassify_RoutesIdentityQuestions(t *testing.T) {
	c := builtinClassifier(t)

	got := c.Classify("Por favor verifica mi DNI")
	assert.Equal(t, domain.DominioIdentidad, got.Domain)
	assert.True(t, got.Matched)
}

func TestClassify_RoutesAccountQuestions(t *testing.T) {
	c := builtinClassifier(t)

	got := c.Classify("¿Qué tipo de cuenta ofrecéis?")
	assert.Equal(t, domain.DominioCuentas, got.Domain)
}

func TestClassify_RoutesBalanceQuestions(t *testing.T) {
	c := builtinClassifier(t)

	got := c.Classify("¿Cuál fue mi último movimiento bancario?")
	assert.Equal(t, domain.DominioConsultas, got.Domain)
}

func TestClassify_UnmatchedGoesToIA(t *testing.T) {
	c := builtinClassifier(t)

	got := c.Classify("¿Cuál es el color del cielo?")
	assert.Equal(t, domain.DominioIA, got.Domain)
	assert.False(t, got.Matched)
	assert.Zero(t, got.Confidence)
}

func TestClassify_TieBreakFollowsDomainPriority(t *testing.T) {
	c := builtinClassifier(t)

	// "tarjeta" matches one keyword in consultas and one in ia; the
	// priority order puts consultas ahead of the general-AI domain.
	got := c.Classify("una pregunta sobre mi tarjeta")
	assert.Equal(t, domain.DominioConsultas, got.Domain)

	// "comisión" matches both cuentas and ia; cuentas outranks ia.
	got = c.Classify("¿Qué comisión tiene?")
	assert.Equal(t, domain.DominioCuentas, got.Domain)

	// "oficina" matches consultas and ia; consultas outranks ia.
	got = c.Classify("¿Dónde hay una oficina?")
	assert.Equal(t, domain.DominioConsultas, got.Domain)
}

func TestClassify_HigherScoreBeatsPriority(t *testing.T) {
	c := builtinClassifier(t)

	// Two cuentas apertura triggers ("abrir cuenta" + "cuenta nueva")
	// outscore any single-keyword hit elsewhere.
	got := c.Classify("Quiero abrir cuenta nueva")
	assert.Equal(t, domain.DominioCuentas, got.Domain)
	assert.GreaterOrEqual(t, got.MatchCount, 2)
}

func TestClassify_RouterSynonymsWidenRouting(t *testing.T) {
	c := builtinClassifier(t)

	// These phrasings only hit router-only synonyms; they must still
	// route to the owning domain even though the specialist answers
	// them with its fallback.
	cases := []struct {
		pregunta string
		want     domain.Dominio
	}{
		{"¿Hubo algún acceso sospechoso?", domain.DominioConsultas},
		{"¿Qué documentación necesito?", domain.DominioCuentas},
		{"¿Cuánto tiempo tarda?", domain.DominioCuentas},
		{"Actívame el doble factor", domain.DominioIdentidad},
	}
	for _, tc := range cases {
		got := c.Classify(tc.pregunta)
		assert.Equal(t, tc.want, got.Domain, "query %q", tc.pregunta)
		assert.True(t, got.Matched, "query %q", tc.pregunta)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := builtinClassifier(t)

	first := c.Classify("verificar identidad por sms")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Classify("verificar identidad por sms"))
	}
	assert.Equal(t, domain.DominioIdentidad, first.Domain)
}

func TestNewClassifier_RequiresAllDomains(t *testing.T) {
	tables := responder.BuiltinTables()
	_, err := NewClassifier(tables[:len(tables)-1])
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestNewClassifier_RejectsDuplicates(t *testing.T) {
	tables := responder.BuiltinTables()
	tables = append(tables, tables[0])
	_, err := NewClassifier(tables)
	require.Error(t, err)
}
