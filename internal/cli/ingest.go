package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
)

// DefaultIngestBatch is the number of documents sent per Upsert call.
const DefaultIngestBatch = 32

// Ingest splits r into paragraphs separated by blank lines and indexes each
// one as a document. Document ids are "<source>#<n>" so re-ingesting the same
// file overwrites the earlier points. It returns the number of documents
// written.
func Ingest(ctx context.Context, indexer ports.Indexer, r io.Reader, source string, batch int) (int, error) {
	if indexer == nil {
		return 0, errors.New("no vector database configured")
	}
	if batch <= 0 {
		batch = DefaultIngestBatch
	}
	if err := indexer.EnsureCollection(ctx); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}

	paragraphs, err := splitParagraphs(r)
	if err != nil {
		return 0, err
	}

	written := 0
	for start := 0; start < len(paragraphs); start += batch {
		end := min(start+batch, len(paragraphs))
		docs := make([]ports.Document, 0, end-start)
		for i := start; i < end; i++ {
			docs = append(docs, ports.Document{
				ID:       fmt.Sprintf("%s#%d", source, i),
				Content:  paragraphs[i],
				Metadata: map[string]any{"source": source, "chunk": i},
			})
		}
		if err := indexer.Upsert(ctx, docs); err != nil {
			return written, fmt.Errorf("upsert %s[%d:%d]: %w", source, start, end, err)
		}
		written += len(docs)
	}
	return written, nil
}

func splitParagraphs(r io.Reader) ([]string, error) {
	var (
		out     []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.Join(current, "\n"))
			current = current[:0]
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}
