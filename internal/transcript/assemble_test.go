package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleNormalizesWhitespaceAndSentenceCase(t *testing.T) {
	t.Parallel()

	got := Assemble([]string{" hello", "world.", "\nfrom", "the team"}, Options{CapitalizeSentences: true})
	require.Equal(t, "Hello world. From the team", got)
}

func TestAssembleWithoutFormatting(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello world", Assemble([]string{"hello", "", "world "}, Options{}))
}

func TestAssembleEmptyInput(t *testing.T) {
	t.Parallel()

	require.Empty(t, Assemble(nil, ForLanguage("en-US")))
	require.Empty(t, Assemble([]string{"  ", "\n\t"}, ForLanguage("en-US")))
}

func TestAssembleJoinsUnspacedScriptsDirectly(t *testing.T) {
	t.Parallel()

	got := Assemble([]string{"自己紹介をします。", "私は"}, ForLanguage("ja-JP"))
	require.Equal(t, "自己紹介をします。私は", got)
}

func TestAssembleCapitalizesPronounIForEnglish(t *testing.T) {
	t.Parallel()

	got := Assemble([]string{"when i speak i'm clearer. i think i will keep using it."}, ForLanguage("en-US"))
	require.Equal(t, "When I speak I'm clearer. I think I will keep using it.", got)

	got = Assemble([]string{"i am here"}, ForLanguage("fr-FR"))
	require.Equal(t, "I am here", got)
	got = Assemble([]string{"oui, i think"}, ForLanguage("fr-FR"))
	require.Equal(t, "Oui, i think", got)
}

func TestAssembleKeepsAbbreviationsAndDecimals(t *testing.T) {
	t.Parallel()

	opts := ForLanguage("en-US")
	require.Equal(t,
		"We cut latency by 2.5 seconds, e.g. on checkout. Then we shipped.",
		Assemble([]string{"we cut latency by 2.5 seconds, e.g. on checkout. then we shipped."}, opts),
	)
	require.Equal(t,
		"I met Dr. smith at the office.",
		Assemble([]string{"i met Dr. smith at the office."}, opts),
	)
	require.Equal(t,
		"e.g. the billing service",
		Assemble([]string{"e.g. the billing service"}, opts),
	)
	require.Equal(t,
		"Use the version i.e. the latest one",
		Assemble([]string{"use the version i.e. the latest one"}, opts),
	)
}

func TestAssembleCapitalizesAfterQuestionAndQuotes(t *testing.T) {
	t.Parallel()

	got := Assemble([]string{`why? "because it scaled." and so on`}, ForLanguage("en-US"))
	require.Equal(t, `Why? "Because it scaled." And so on`, got)
}

func TestAssembleIdempotentForNormalizedOutput(t *testing.T) {
	t.Parallel()

	opts := ForLanguage("en-US")
	first := Assemble([]string{"hello world. this is rehearse and i'm ready"}, opts)
	require.Equal(t, first, Assemble([]string{first}, opts))
}
