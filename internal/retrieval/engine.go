// Package retrieval produces best-effort knowledge context for a generation
// job through three fallback tiers: vector similarity over stored chunk
// embeddings, plain ordered chunks, and raw file reads. Every downgrade is
// recorded in the result's provenance metadata, never silently taken.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/brandmill/brandmill-backend/internal/logger"
	"github.com/brandmill/brandmill-backend/internal/repos"
	"github.com/brandmill/brandmill-backend/internal/storage"
	"github.com/brandmill/brandmill-backend/internal/types"
)

type Mode string

const (
	ModeVector    Mode = "vector"
	ModeVectorSet Mode = "vector_set"
	ModeChunk     Mode = "chunk"
	ModeChunkSet  Mode = "chunk_set"
	ModeRaw       Mode = "raw"
	ModeRawSet    Mode = "raw_set"
	ModeError     Mode = "error"
	ModeNone      Mode = "none"
)

const (
	// MaxContentLength is the hard ceiling on concatenated context.
	MaxContentLength = 8000
	// TopKChunks bounds both the vector tier's ranking and the chunk tier's
	// ordered prefix.
	TopKChunks = 5

	snippetLength      = 160
	rawReadConcurrency = 4
)

// Scope identifies what to retrieve over: exactly one of DocumentID or
// KnowledgeSetID. Mutual exclusion is validated at enqueue time.
type Scope struct {
	OwnerUserID    uuid.UUID
	DocumentID     *uuid.UUID
	KnowledgeSetID *uuid.UUID
}

func (s Scope) Empty() bool {
	return s.DocumentID == nil && s.KnowledgeSetID == nil
}

type ChunkStats struct {
	ChunkCount    int `json:"chunk_count"`
	EmbeddedCount int `json:"embedded_count"`
	TotalLength   int `json:"total_length"`
}

type Snippet struct {
	DocumentName string `json:"document_name"`
	Preview      string `json:"preview"`
}

type Result struct {
	Content        string         `json:"content"`
	Truncated      bool           `json:"truncated"`
	OriginalLength int            `json:"original_length"`
	Snippets       []Snippet      `json:"snippets"`
	Mode           Mode           `json:"retrieval_mode"`
	ChunkStats     ChunkStats     `json:"chunk_stats"`
	SchemaMetadata map[string]any `json:"schema_metadata,omitempty"`
	Source         string         `json:"source"`
}

// Embedder is the slice of the llm client the engine needs.
type Embedder interface {
	EmbedConfigured() bool
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Engine struct {
	log      *logger.Logger
	docs     repos.DocumentRepo
	chunks   repos.DocumentChunkRepo
	sets     repos.KnowledgeSetRepo
	files    storage.FileStore
	embedder Embedder
}

func NewEngine(
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	chunks repos.DocumentChunkRepo,
	sets repos.KnowledgeSetRepo,
	files storage.FileStore,
	embedder Embedder,
) *Engine {
	return &Engine{
		log:      baseLog.With("component", "RetrievalEngine"),
		docs:     docs,
		chunks:   chunks,
		sets:     sets,
		files:    files,
		embedder: embedder,
	}
}

// FetchContext runs the tiers in strict precedence for the scope. It never
// returns an error: any total failure yields ModeError with empty content and
// the pipeline continues without knowledge context.
func (e *Engine) FetchContext(ctx context.Context, tx *gorm.DB, scope Scope, queryText string) *Result {
	if scope.Empty() {
		return &Result{Mode: ModeNone}
	}

	docs, source, ok := e.resolveDocuments(ctx, tx, scope)
	if !ok {
		return &Result{Mode: ModeError, Source: source}
	}
	isSet := scope.KnowledgeSetID != nil

	chunks, err := e.loadOrderedChunks(ctx, tx, docs)
	if err != nil {
		e.log.Warn("Chunk load failed, falling back to raw tier", "source", source, "error", err)
		chunks = nil
	}

	stats := aggregateStats(chunks)
	docNames := documentNameIndex(docs)

	// Tier 1: vector similarity, only with an embedder and stored embeddings.
	if e.embedder != nil && e.embedder.EmbedConfigured() && stats.EmbeddedCount > 0 {
		if ranked, ok := e.rankByDistance(ctx, chunks, queryText); ok && len(ranked) > 0 {
			res := assembleFromChunks(ranked, docNames, isSet, modeFor(ModeVector, isSet))
			res.ChunkStats = stats
			res.Source = source
			res.SchemaMetadata = mergeSchemaMetadata(docs)
			return res
		}
	}

	// Tier 2: ordered chunk prefix.
	if stats.ChunkCount > 0 {
		n := TopKChunks
		if n > len(chunks) {
			n = len(chunks)
		}
		res := assembleFromChunks(chunks[:n], docNames, isSet, modeFor(ModeChunk, isSet))
		res.ChunkStats = stats
		res.Source = source
		res.SchemaMetadata = mergeSchemaMetadata(docs)
		return res
	}

	// Tier 3: raw file reads.
	res := e.assembleFromFiles(ctx, docs, isSet)
	res.ChunkStats = stats
	res.Source = source
	if res.Mode != ModeError {
		res.SchemaMetadata = mergeSchemaMetadata(docs)
	}
	return res
}

func (e *Engine) resolveDocuments(ctx context.Context, tx *gorm.DB, scope Scope) ([]*types.Document, string, bool) {
	if scope.DocumentID != nil {
		doc, err := e.docs.GetByIDForUser(ctx, tx, *scope.DocumentID, scope.OwnerUserID)
		if err != nil {
			e.log.Warn("Document lookup failed", "document_id", *scope.DocumentID, "error", err)
			return nil, "", false
		}
		if doc == nil {
			return nil, "", false
		}
		return []*types.Document{doc}, doc.Name, true
	}

	set, err := e.sets.GetByIDForUser(ctx, tx, *scope.KnowledgeSetID, scope.OwnerUserID)
	if err != nil {
		e.log.Warn("Knowledge set lookup failed", "knowledge_set_id", *scope.KnowledgeSetID, "error", err)
		return nil, "", false
	}
	if set == nil {
		return nil, "", false
	}
	docs, err := e.sets.GetDocuments(ctx, tx, set.ID)
	if err != nil {
		e.log.Warn("Knowledge set documents load failed", "knowledge_set_id", set.ID, "error", err)
		return nil, set.Name, false
	}
	if len(docs) == 0 {
		return nil, set.Name, false
	}
	return docs, set.Name, true
}

// loadOrderedChunks returns the scope's chunks ordered by the scope's document
// order, then chunk index within each document.
func (e *Engine) loadOrderedChunks(ctx context.Context, tx *gorm.DB, docs []*types.Document) ([]*types.DocumentChunk, error) {
	ids := make([]uuid.UUID, 0, len(docs))
	position := make(map[uuid.UUID]int, len(docs))
	for i, d := range docs {
		ids = append(ids, d.ID)
		position[d.ID] = i
	}
	chunks, err := e.chunks.GetByDocumentIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		pi, pj := position[chunks[i].DocumentID], position[chunks[j].DocumentID]
		if pi != pj {
			return pi < pj
		}
		return chunks[i].Index < chunks[j].Index
	})
	return chunks, nil
}

// rankByDistance embeds the query and orders embedded chunks by ascending
// cosine distance, keeping the top K. An embedding failure reports not-ok so
// the caller downgrades to the chunk tier.
func (e *Engine) rankByDistance(ctx context.Context, chunks []*types.DocumentChunk, queryText string) ([]*types.DocumentChunk, bool) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, false
	}
	vecs, err := e.embedder.Embed(ctx, []string{queryText})
	if err != nil || len(vecs) == 0 {
		e.log.Warn("Query embedding failed, downgrading to chunk tier", "error", err)
		return nil, false
	}
	query := vecs[0]

	type scored struct {
		chunk    *types.DocumentChunk
		distance float64
	}
	ranked := make([]scored, 0, len(chunks))
	for _, ch := range chunks {
		vec := ch.EmbeddingVector()
		if vec == nil {
			continue
		}
		ranked = append(ranked, scored{chunk: ch, distance: CosineDistance(query, vec)})
	}
	if len(ranked) == 0 {
		return nil, false
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].distance < ranked[j].distance })

	n := TopKChunks
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]*types.DocumentChunk, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].chunk
	}
	return out, true
}

func assembleFromChunks(chunks []*types.DocumentChunk, docNames map[uuid.UUID]string, isSet bool, mode Mode) *Result {
	var parts []string
	var snippets []Snippet
	var lastDoc uuid.UUID
	for _, ch := range chunks {
		name := docNames[ch.DocumentID]
		if isSet && ch.DocumentID != lastDoc {
			parts = append(parts, fmt.Sprintf("## %s", name))
			lastDoc = ch.DocumentID
		}
		parts = append(parts, ch.Text)
		snippets = append(snippets, Snippet{DocumentName: name, Preview: preview(ch.Text)})
	}
	content := strings.Join(parts, "\n\n")
	return truncateResult(&Result{
		Content:  content,
		Snippets: snippets,
		Mode:     mode,
	})
}

// assembleFromFiles reads each document's raw bytes concurrently (bounded),
// reassembling in document order. Unreadable documents are skipped; if none
// survive the result is ModeError.
func (e *Engine) assembleFromFiles(ctx context.Context, docs []*types.Document, isSet bool) *Result {
	texts := make([]string, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rawReadConcurrency)
	for i, doc := range docs {
		if doc.StoragePath == "" {
			continue
		}
		g.Go(func() error {
			data, err := e.files.Read(gctx, doc.StoragePath)
			if err != nil {
				e.log.Warn("Raw document read failed", "document_id", doc.ID, "path", doc.StoragePath, "error", err)
				return nil
			}
			texts[i] = Sanitize(string(data))
			return nil
		})
	}
	_ = g.Wait()

	var parts []string
	var snippets []Snippet
	for i, doc := range docs {
		if texts[i] == "" {
			continue
		}
		if isSet {
			parts = append(parts, fmt.Sprintf("## %s", doc.Name))
		}
		parts = append(parts, texts[i])
		snippets = append(snippets, Snippet{DocumentName: doc.Name, Preview: preview(texts[i])})
	}
	if len(parts) == 0 {
		return &Result{Mode: ModeError}
	}
	return truncateResult(&Result{
		Content:  strings.Join(parts, "\n\n"),
		Snippets: snippets,
		Mode:     modeFor(ModeRaw, isSet),
	})
}

func truncateResult(res *Result) *Result {
	res.OriginalLength = len(res.Content)
	if len(res.Content) > MaxContentLength {
		res.Content = cutAtRune(res.Content, MaxContentLength)
		res.Truncated = true
	}
	return res
}

// cutAtRune cuts at most max bytes, backing up to a rune boundary so the
// truncated string stays valid UTF-8.
func cutAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func modeFor(base Mode, isSet bool) Mode {
	if !isSet {
		return base
	}
	switch base {
	case ModeVector:
		return ModeVectorSet
	case ModeChunk:
		return ModeChunkSet
	case ModeRaw:
		return ModeRawSet
	}
	return base
}

func aggregateStats(chunks []*types.DocumentChunk) ChunkStats {
	var stats ChunkStats
	for _, ch := range chunks {
		stats.ChunkCount++
		stats.TotalLength += len(ch.Text)
		if ch.EmbeddingVector() != nil {
			stats.EmbeddedCount++
		}
	}
	return stats
}

func documentNameIndex(docs []*types.Document) map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(docs))
	for _, d := range docs {
		out[d.ID] = d.Name
	}
	return out
}

// mergeSchemaMetadata shallow-merges document schema metadata in document
// order; later documents win on key collisions.
func mergeSchemaMetadata(docs []*types.Document) map[string]any {
	var out map[string]any
	for _, d := range docs {
		if len(d.SchemaMetadata) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(d.SchemaMetadata, &m); err != nil || len(m) == 0 {
			continue
		}
		if out == nil {
			out = map[string]any{}
		}
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func preview(text string) string {
	return cutAtRune(strings.TrimSpace(text), snippetLength)
}

// Sanitize strips control characters and normalizes line endings in raw file
// content before it enters a prompt.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f || r == 0xFFFD {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
