// Package file implements driven.PageStore as the on-disk layout spec §6
// names: one document_analysis.json and custom_prompt.md at the document
// root, one page_NNN.png per source page, and one page_NNN/ directory per
// page holding iteration_KK.html, rendered_KK.png, feedback_KK.json, and
// the promoted final.html. Grounded on the teacher's file ConfigStore
// (internal/adapters/driven/config/file/configstore.go) for its
// MkdirAll/WriteFile-with-restricted-permissions style; this store has no
// single flat key-value file, so it forgoes that file's in-memory cache
// and writes each artifact straight through.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driven"
)

var _ driven.PageStore = (*PageStore)(nil)

// PageStore roots every artifact under dir, one directory per document.
type PageStore struct {
	dir string
}

// New creates a PageStore rooted at dir, creating it if necessary.
func New(dir string) (*PageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &PageStore{dir: dir}, nil
}

func (s *PageStore) analysisPath() string { return filepath.Join(s.dir, "document_analysis.json") }
func (s *PageStore) addendumPath() string { return filepath.Join(s.dir, "custom_prompt.md") }
func (s *PageStore) summaryPath() string  { return filepath.Join(s.dir, "summary.json") }
func (s *PageStore) pageImagePath(i int) string {
	return filepath.Join(s.dir, fmt.Sprintf("page_%03d.png", i))
}
func (s *PageStore) pageDir(i int) string { return filepath.Join(s.dir, fmt.Sprintf("page_%03d", i)) }
func (s *PageStore) finalPath(i int) string {
	return filepath.Join(s.pageDir(i), "final.html")
}
func (s *PageStore) iterationHTMLPath(pageIndex, iteration int) string {
	return filepath.Join(s.pageDir(pageIndex), fmt.Sprintf("iteration_%02d.html", iteration))
}
func (s *PageStore) feedbackPath(pageIndex, iteration int) string {
	return filepath.Join(s.pageDir(pageIndex), fmt.Sprintf("feedback_%02d.json", iteration))
}

// SaveDocumentAnalysis writes document_analysis.json and custom_prompt.md
// at the document root.
func (s *PageStore) SaveDocumentAnalysis(analysis domain.DocumentAnalysis, addendum domain.PromptAddendum) error {
	if err := writeJSON(s.analysisPath(), analysis); err != nil {
		return fmt.Errorf("writing document_analysis.json: %w", err)
	}
	if err := os.WriteFile(s.addendumPath(), []byte(addendum.Text), 0o644); err != nil {
		return fmt.Errorf("writing custom_prompt.md: %w", err)
	}
	return nil
}

// LoadDocumentAnalysis reads back a previously saved analysis, if any.
func (s *PageStore) LoadDocumentAnalysis() (domain.DocumentAnalysis, domain.PromptAddendum, bool, error) {
	var analysis domain.DocumentAnalysis
	found, err := readJSON(s.analysisPath(), &analysis)
	if err != nil || !found {
		return domain.DocumentAnalysis{}, domain.PromptAddendum{}, false, err
	}

	text, err := os.ReadFile(s.addendumPath())
	if err != nil && !os.IsNotExist(err) {
		return domain.DocumentAnalysis{}, domain.PromptAddendum{}, false, fmt.Errorf("reading custom_prompt.md: %w", err)
	}
	return analysis, domain.PromptAddendum{Text: string(text)}, true, nil
}

// SavePageImage writes the rasterized source page.
func (s *PageStore) SavePageImage(pageIndex int, png []byte) error {
	if err := os.WriteFile(s.pageImagePath(pageIndex), png, 0o644); err != nil {
		return fmt.Errorf("writing page_%03d.png: %w", pageIndex, err)
	}
	return nil
}

// HasFinal reports whether page_NNN/final.html already exists.
func (s *PageStore) HasFinal(pageIndex int) (bool, error) {
	_, err := os.Stat(s.finalPath(pageIndex))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking final.html for page %d: %w", pageIndex, err)
}

// SaveIteration writes one iteration's HTML, rendered screenshot (if the
// render step produced one), and feedback JSON under page_NNN/.
func (s *PageStore) SaveIteration(pageIndex int, rec domain.IterationRecord) error {
	if err := os.MkdirAll(s.pageDir(pageIndex), 0o755); err != nil {
		return fmt.Errorf("creating page_%03d directory: %w", pageIndex, err)
	}

	if rec.HTML != "" {
		path := s.iterationHTMLPath(pageIndex, rec.IterationNumber)
		if err := os.WriteFile(path, []byte(rec.HTML), 0o644); err != nil {
			return fmt.Errorf("writing iteration_%02d.html for page %d: %w", rec.IterationNumber, pageIndex, err)
		}
	}

	if len(rec.RenderedImage) > 0 {
		path := filepath.Join(s.pageDir(pageIndex), fmt.Sprintf("rendered_%02d.png", rec.IterationNumber))
		if err := os.WriteFile(path, rec.RenderedImage, 0o644); err != nil {
			return fmt.Errorf("writing rendered_%02d.png for page %d: %w", rec.IterationNumber, pageIndex, err)
		}
	}

	if rec.Feedback != nil {
		if err := writeJSON(s.feedbackPath(pageIndex, rec.IterationNumber), rec.Feedback); err != nil {
			return fmt.Errorf("writing feedback_%02d.json for page %d: %w", rec.IterationNumber, pageIndex, err)
		}
	}

	return nil
}

// PromoteFinal copies the chosen iteration's HTML to page_NNN/final.html.
func (s *PageStore) PromoteFinal(pageIndex int, iterationNumber int) (string, error) {
	src := s.iterationHTMLPath(pageIndex, iterationNumber)
	html, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("reading iteration_%02d.html for page %d: %w", iterationNumber, pageIndex, err)
	}

	dst := s.finalPath(pageIndex)
	if err := os.WriteFile(dst, html, 0o644); err != nil {
		return "", fmt.Errorf("writing final.html for page %d: %w", pageIndex, err)
	}
	return dst, nil
}

// SaveSummary writes the end-of-run summary report.
func (s *PageStore) SaveSummary(summary domain.Summary) error {
	if err := writeJSON(s.summaryPath(), summary); err != nil {
		return fmt.Errorf("writing summary.json: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}
