package index

import "github.com/dkarmanov/docuchat/internal/core/domain"

// Catalog pairs the immutable chunk arena with both derived indices. The
// three structures are built together from the same slice and share position
// numbering; nothing reorders them afterwards.
type Catalog struct {
	chunks  []domain.Chunk
	dense   *Dense
	lexical *Lexical
	tables  []string
}

func BuildCatalog(chunks []domain.Chunk) *Catalog {
	texts := make([]string, len(chunks))
	seen := make(map[string]struct{})
	var tables []string
	for i, chunk := range chunks {
		texts[i] = chunk.Text
		if _, ok := seen[chunk.SourceID]; !ok {
			seen[chunk.SourceID] = struct{}{}
			tables = append(tables, chunk.SourceID)
		}
	}

	return &Catalog{
		chunks:  chunks,
		dense:   BuildDense(chunks),
		lexical: BuildLexical(texts),
		tables:  tables,
	}
}

func (c *Catalog) Len() int                   { return len(c.chunks) }
func (c *Catalog) Tables() []string           { return c.tables }
func (c *Catalog) Chunk(pos int) domain.Chunk { return c.chunks[pos] }
func (c *Catalog) Dense() *Dense              { return c.dense }
func (c *Catalog) Lexical() *Lexical          { return c.lexical }
