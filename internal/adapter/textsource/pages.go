package textsource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/adapter/fs"
	"github.com/jbravobr/Inventory-Analyzer-sub000/internal/domain"
)

// pageRecord is one page entry in a pages JSON file.
type pageRecord struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

type pagesFile struct {
	Pages []pageRecord `json:"pages"`
}

// JSONSource reads a document from a single pages JSON file.
type JSONSource struct {
	path string
}

func NewJSONSource(path string) *JSONSource {
	return &JSONSource{path: path}
}

func (s *JSONSource) Pages() ([]domain.Page, error) {
	return LoadPagesJSON(s.path)
}

// DirSource reads a document from a directory of text files, one page per
// file.
type DirSource struct {
	dir      string
	includes []string
	excludes []string
}

func NewDirSource(dir string, includes, excludes []string) *DirSource {
	return &DirSource{dir: dir, includes: includes, excludes: excludes}
}

func (s *DirSource) Pages() ([]domain.Page, error) {
	return LoadPagesDir(s.dir, s.includes, s.excludes)
}

// ParsePages decodes pages from JSON holding either a bare array of
// {"page", "text"} objects or a {"pages": [...]} wrapper. Page numbers must
// be 1 or greater; the result is sorted by page number.
func ParsePages(data []byte) ([]domain.Page, error) {
	var records []pageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		var wrapper pagesFile
		if err2 := json.Unmarshal(data, &wrapper); err2 != nil {
			return nil, fmt.Errorf("parse pages: %w", err)
		}
		records = wrapper.Pages
	}

	pages := make([]domain.Page, 0, len(records))
	for i, rec := range records {
		if rec.Page < 1 {
			return nil, fmt.Errorf("entry %d has page number %d, pages start at 1", i, rec.Page)
		}
		pages = append(pages, domain.Page{Number: rec.Page, Text: rec.Text})
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Number < pages[j].Number
	})
	return pages, nil
}

// LoadPagesJSON reads and parses a pages JSON file.
func LoadPagesJSON(path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pages file: %w", err)
	}
	pages, err := ParsePages(data)
	if err != nil {
		return nil, fmt.Errorf("pages file %s: %w", path, err)
	}
	return pages, nil
}

// LoadPagesDir reads one page per matching file under dir. Files sort by
// name; a page number is taken from trailing digits in the file stem
// ("page_12.txt" becomes page 12), files without one are numbered by their
// position. The result is sorted by page number.
func LoadPagesDir(dir string, includes, excludes []string) ([]domain.Page, error) {
	if len(includes) == 0 {
		includes = []string{"**/*.txt"}
	}

	paths, err := fs.NewWalker(includes, excludes).Walk(dir)
	if err != nil {
		return nil, fmt.Errorf("scan pages dir: %w", err)
	}

	pages := make([]domain.Page, 0, len(paths))
	for i, path := range paths {
		text, err := fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read page file %s: %w", path, err)
		}

		number := i + 1
		if n, ok := trailingNumber(path); ok {
			number = n
		}
		pages = append(pages, domain.Page{Number: number, Text: text})
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].Number < pages[j].Number
	})
	return pages, nil
}

// trailingNumber extracts a page number from digits at the end of the file
// stem. Zero is not a page number.
func trailingNumber(path string) (int, bool) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	end := len(stem)
	start := end
	for start > 0 && unicode.IsDigit(rune(stem[start-1])) {
		start--
	}
	if start == end {
		return 0, false
	}

	n, err := strconv.Atoi(stem[start:end])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
