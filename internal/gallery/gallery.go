package gallery

import (
	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// Entry agrupa os embeddings cadastrados para uma identidade.
type Entry struct {
	Identity   string
	Embeddings []domain.Embedding
}

// Gallery é o conjunto de identidades cadastradas e seus embeddings.
// A ordem de inserção das identidades é preservada: ela define o desempate
// determinístico do matching e a ordem do snapshot persistido.
//
// Uma Gallery nunca é mutada depois de publicada; o treinamento constrói
// uma nova e a troca por inteiro.
type Gallery struct {
	order   []string
	entries map[string]*Entry
}

// New creates an empty gallery.
func New() *Gallery {
	return &Gallery{
		entries: make(map[string]*Entry),
	}
}

// Add enrolls one embedding under the given identity, creating the entry on
// first use. Identities appear in first-Add order.
func (g *Gallery) Add(identity string, embedding domain.Embedding) {
	entry, ok := g.entries[identity]
	if !ok {
		entry = &Entry{Identity: identity}
		g.entries[identity] = entry
		g.order = append(g.order, identity)
	}
	entry.Embeddings = append(entry.Embeddings, embedding)
}

// Identities returns the identity labels in insertion order.
func (g *Gallery) Identities() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Entry returns the entry for an identity, if present.
func (g *Gallery) Entry(identity string) (*Entry, bool) {
	e, ok := g.entries[identity]
	return e, ok
}

// People returns the number of enrolled identities.
func (g *Gallery) People() int {
	return len(g.order)
}

// Size returns the total number of enrolled embeddings.
func (g *Gallery) Size() int {
	total := 0
	for _, e := range g.entries {
		total += len(e.Embeddings)
	}
	return total
}

// Empty reports whether the gallery has no embeddings at all.
func (g *Gallery) Empty() bool {
	return g.Size() == 0
}
