package ingest

import (
	"strings"
	"unicode"
)

// Page is one page of extracted document text, 1-based.
type Page struct {
	Number int
	Text   string
}

// Chunk is a bounded slice of one page's text; chunks never span pages.
type Chunk struct {
	PageNumber int
	Text       string
}

type ChunkConfig struct {
	ChunkSize       int
	ChunkOverlap    int
	MinChunkChars   int
	MaxChunksPerDoc int
}

// Chunker splits page text into overlapping word-aligned windows. It is a
// pure function of its input and configuration: same pages in, same chunks
// out, in page order then left to right within a page.
type Chunker struct {
	cfg ChunkConfig
}

func NewChunker(cfg ChunkConfig) *Chunker {
	return &Chunker{cfg: cfg}
}

// Chunk walks a window of ChunkSize runes over each page with stride
// max(1, ChunkSize-ChunkOverlap). The right edge snaps back to the nearest
// space when the window would cut a word; the left edge snaps back likewise
// when the previous window's snap left it mid-word, skipping the window
// entirely when the fixed start would reach the end. Chunks shorter than
// MinChunkChars after trimming are dropped (page-footer noise); they do not
// count against MaxChunksPerDoc.
func (c *Chunker) Chunk(pages []Page) []Chunk {
	step := c.cfg.ChunkSize - c.cfg.ChunkOverlap
	if step < 1 {
		step = 1
	}

	var chunks []Chunk
	for _, page := range pages {
		text := []rune(strings.TrimSpace(page.Text))
		if len(text) == 0 {
			continue
		}
		start := 0
		for start < len(text) {
			end := start + c.cfg.ChunkSize
			if end > len(text) {
				end = len(text)
			}

			// Snap the right edge to a word boundary. A window that ends
			// inside an unbroken token longer than the window stays as-is.
			if end < len(text) && isWordChar(text[end]) {
				if lastSpace := lastSpaceIn(text, start, end); lastSpace > start {
					end = lastSpace + 1
				}
			}

			// Snap the left edge when the previous window left us mid-word.
			if start > 0 && isWordChar(text[start-1]) {
				if prevSpace := lastSpaceIn(text, 0, start); prevSpace >= 0 {
					start = prevSpace + 1
					if start >= end {
						start += step
						continue
					}
				}
			}

			chunk := strings.TrimSpace(string(text[start:end]))
			if chunk != "" && len([]rune(chunk)) >= c.cfg.MinChunkChars {
				chunks = append(chunks, Chunk{PageNumber: page.Number, Text: chunk})
			}
			start += step
		}
	}

	if c.cfg.MaxChunksPerDoc > 0 && len(chunks) > c.cfg.MaxChunksPerDoc {
		chunks = chunks[:c.cfg.MaxChunksPerDoc]
	}
	return chunks
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_'
}

// lastSpaceIn returns the highest index of a space in text[from:to), or -1.
func lastSpaceIn(text []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if text[i] == ' ' {
			return i
		}
	}
	return -1
}
