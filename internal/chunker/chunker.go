// Package chunker splits document text into overlapping, size-bounded
// semantic units.
package chunker

import (
	"regexp"
	"strings"

	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/logger"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultMinChunkSize is the smallest chunk worth emitting. Trailing
// buffers below this are silently dropped.
const DefaultMinChunkSize = 100

var (
	controlRe   = regexp.MustCompile(`[\f\v]`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
	intraWSRe   = regexp.MustCompile(`[ \t]+`)
	paragraphRe = regexp.MustCompile(`\n\s*\n|--- Page \d+ ---|\n+`)
	sentenceRe  = regexp.MustCompile(`[.!?]\s+`)
)

// Chunker splits normalised text on paragraph boundaries, greedily
// accumulating paragraphs up to the chunk size and seeding each new
// chunk with an overlap suffix of the previous one.
//
// Split is a pure function of its input: chunking never fails on
// well-formed text, and empty or too-short input yields no chunks.
type Chunker struct {
	chunkSize    int
	overlap      int
	minChunkSize int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinChunkSize sets the minimum viable chunk size in characters.
func WithMinChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.minChunkSize = size
		}
	}
}

// Metadata carries optional provenance copied onto every chunk.
type Metadata struct {
	PageNumber int
	Section    string
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:    DefaultChunkSize,
		overlap:      DefaultChunkOverlap,
		minChunkSize: DefaultMinChunkSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Split chunks the given text. Chunk ids are derived from the document id
// and the chunk's ordinal, so splitting the same input always produces
// the same ids.
func (c *Chunker) Split(text, docID, docName string, meta Metadata) []domain.Chunk {
	if len(strings.TrimSpace(text)) < c.minChunkSize {
		logger.Debug("Text too short to chunk: %d chars", len(text))
		return nil
	}

	text = c.normalise(text)
	paragraphs := c.splitParagraphs(text)

	var chunks []domain.Chunk
	current := ""
	currentStart := 0
	ordinal := 0

	emit := func() {
		trimmed := strings.TrimSpace(current)
		chunks = append(chunks, domain.Chunk{
			ID:           domain.ChunkID(docID, ordinal),
			DocumentID:   docID,
			DocumentName: docName,
			Ordinal:      ordinal,
			Text:         trimmed,
			StartOffset:  currentStart,
			EndOffset:    currentStart + len(current),
			PageNumber:   meta.PageNumber,
			Section:      meta.Section,
		})
		ordinal++
	}

	// Seeds the next buffer with the overlap suffix of the current one.
	carryOverlap := func() {
		overlap := c.overlapText(current)
		currentStart += len(current) - len(overlap)
		current = overlap
	}

	for _, para := range paragraphs {
		// A single paragraph larger than the chunk size cannot be
		// accumulated whole; flush the buffer and hard-split the
		// paragraph into chunk-size windows with the same overlap
		// seeding.
		if len(para) > c.chunkSize {
			if len(strings.TrimSpace(current)) >= c.minChunkSize {
				emit()
				carryOverlap()
			}
			for len(current)+len(para) > c.chunkSize {
				take := c.chunkSize - len(current)
				if take <= 0 {
					emit()
					carryOverlap()
					continue
				}
				current += para[:take]
				para = para[take:]
				emit()
				carryOverlap()
			}
			current += para
			continue
		}

		// Emit when the next paragraph would overflow the buffer, but
		// keep accumulating while the buffer is below the minimum.
		if len(current)+len(para) > c.chunkSize &&
			len(strings.TrimSpace(current)) >= c.minChunkSize {
			emit()
			carryOverlap()
		}
		current += para
	}

	// Trailing buffer below the minimum size is dropped, not merged.
	if len(strings.TrimSpace(current)) >= c.minChunkSize {
		emit()
	}

	logger.Debug("Split document %q into %d chunks", docName, len(chunks))
	return chunks
}

// normalise collapses whitespace while preserving paragraph boundaries.
func (c *Chunker) normalise(text string) string {
	text = controlRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	text = intraWSRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// splitParagraphs splits on blank-line and page-marker boundaries.
// Very short fragments are folded away rather than kept as paragraphs.
func (c *Chunker) splitParagraphs(text string) []string {
	parts := paragraphRe.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > 20 {
			paragraphs = append(paragraphs, p+"\n\n")
		}
	}
	if len(paragraphs) == 0 {
		// No paragraph structure at all; treat the whole text as one.
		if t := strings.TrimSpace(text); t != "" {
			paragraphs = append(paragraphs, t)
		}
	}
	return paragraphs
}

// overlapText returns the overlap suffix of a chunk, trimmed to the
// nearest sentence boundary when one exists inside the overlap region.
func (c *Chunker) overlapText(text string) string {
	if len(text) <= c.overlap {
		return text
	}

	region := text[len(text)-c.overlap:]
	sentences := sentenceRe.Split(region, -1)
	if len(sentences) > 1 {
		return sentences[len(sentences)-1]
	}
	return region
}
