package seed

import (
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TextGenerator produces alt text and centre names.
type TextGenerator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
	title cases.Caser
}

// NewTextGenerator returns a generator seeded from r.
func NewTextGenerator(r *Rand) *TextGenerator {
	return &TextGenerator{
		faker: gofakeit.New(r.Uint64()),
		title: cases.Title(language.Und, cases.NoLower),
	}
}

// AltText returns n lorem words separated by spaces.
func (g *TextGenerator) AltText(n int) string {
	if n <= 0 {
		return ""
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	words := make([]string, n)
	for i := range words {
		words[i] = g.faker.LoremIpsumWord()
	}
	return strings.Join(words, " ")
}

// CompanyName returns a title-cased company-style name such as
// "Robust Web Services". Acronyms keep their casing.
func (g *TextGenerator) CompanyName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	raw := g.faker.BuzzWord() + " " + g.faker.BS()
	return g.title.String(strings.Join(strings.Fields(raw), " "))
}
