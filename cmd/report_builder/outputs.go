package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/metamendmarketing/reportbuilderv3/internal/pipeline"
)

// Output file names written by generate and render
const (
	htmlFile     = "monthly_seo_update.html"
	previewFile  = "monthly_seo_update.preview.html"
	emlFile      = "monthly_seo_update.eml"
	pdfFile      = "monthly_seo_update.pdf"
	draftFile    = "draft.json"
	evidenceFile = "evidence.json"
	rawEvidence  = "raw_evidence.txt"
	rawDraft     = "raw_draft.txt"
)

// writeOutputs writes the session's artifacts into dir and returns the
// paths written, sorted.
func writeOutputs(dir string, s *pipeline.Session, withEvidence, showRaw bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files := map[string][]byte{
		htmlFile:    []byte(s.Output.HTML),
		previewFile: []byte(s.Output.PreviewHTML),
		emlFile:     s.Output.EML,
	}

	draftJSON, err := json.MarshalIndent(s.Draft, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	files[draftFile] = draftJSON

	if withEvidence {
		evidenceJSON, err := json.MarshalIndent(s.Evidence.Bundle, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal evidence: %w", err)
		}
		files[evidenceFile] = evidenceJSON
	}
	if len(s.Output.PDF) > 0 {
		files[pdfFile] = s.Output.PDF
	}
	if showRaw {
		files[rawEvidence] = []byte(s.Evidence.Raw)
		files[rawDraft] = []byte(s.Raw.Raw)
	}

	written := make([]string, 0, len(files))
	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, path)
	}
	sort.Strings(written)
	return written, nil
}
