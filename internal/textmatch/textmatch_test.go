package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "cuanto cuesta", Normalize("Cuánto CUESTA"))
	assert.Equal(t, "hocaba", Normalize("Hocabá"))
	assert.Equal(t, "manana", Normalize("mañana"))
	assert.Equal(t, "", Normalize(""))
}

func TestContainsWord(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		message string
		alias   string
		want    bool
	}{
		{name: "exact token", message: "hola soy Daniel del IMET", alias: "daniel", want: true},
		{name: "accented alias", message: "habla el director jose", alias: "José", want: true},
		{name: "start of message", message: "Daniel aquí", alias: "daniel", want: true},
		{name: "multi word alias", message: "le saluda el director de alba", alias: "Director de ALBA", want: true},
		{name: "substring of longer word", message: "me gusta la banana", alias: "ana", want: false},
		{name: "prefix of longer word", message: "danielito llegó", alias: "daniel", want: false},
		{name: "empty alias", message: "hola", alias: "  ", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ContainsWord(tc.message, tc.alias))
		})
	}
}

func TestContainsAny(t *testing.T) {
	t.Parallel()

	assert.True(t, ContainsAny("Hazme un ANÁLISIS de seguridad", []string{"analisis"}))
	assert.False(t, ContainsAny("hola", []string{"reporte", ""}))
}

func TestTokens(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"cuesta", "el", "servicio"}, Tokens("el servicio, ¿cuesta el SERVICIO?"))
	assert.Empty(t, Tokens("¿¡!?"))
}

func TestTokenSetRatio(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100, TokenSetRatio("cuanto cuesta el servicio", "cuánto cuesta el servicio"))
	assert.Equal(t, 100, TokenSetRatio("el servicio cuesta cuanto", "cuanto cuesta el servicio"))
	assert.Equal(t, 100, TokenSetRatio("cuanto cuesta", "cuanto cuesta el servicio"))
	assert.Greater(t, TokenSetRatio("hoocaba", "Hocabá"), 70)
	assert.Less(t, TokenSetRatio("xyz123", "Hocabá"), 70)
	assert.Less(t, TokenSetRatio("donde queda la oficina de turismo", "cuanto cuesta el servicio"), 75)
	assert.Equal(t, 0, TokenSetRatio("", "algo"))
}

func TestRatio(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100, Ratio("hocaba", "hocaba"))
	assert.Equal(t, 92, Ratio("hoocaba", "hocaba"))
	assert.Equal(t, 0, Ratio("", "hocaba"))
	assert.Equal(t, 0, Ratio("abc", "xyz"))
	// 2*2/(4+4): half-way scores round to even like Python's round.
	assert.Equal(t, 50, Ratio("abcd", "abxy"))
}

func TestTokenSetRatioScale(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{a: "hola como te va", b: "hola como estas", want: 80},
		{a: "cuanto cuesta la entrada", b: "cuanto cuesta el boleto", want: 77},
		{a: "hoocaba", b: "Hocabá", want: 92},
		{a: "hola", b: "hola maleon que onda", want: 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TokenSetRatio(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
		assert.Equal(t, tc.want, TokenSetRatio(tc.b, tc.a), "%q vs %q", tc.b, tc.a)
	}
}

func TestBestMatch(t *testing.T) {
	t.Parallel()

	best, score, ok := BestMatch("merida", []string{"Hocabá", "Mérida", "Tizimín"})
	assert.True(t, ok)
	assert.Equal(t, "Mérida", best)
	assert.Equal(t, 100, score)

	_, _, ok = BestMatch("merida", nil)
	assert.False(t, ok)
}
