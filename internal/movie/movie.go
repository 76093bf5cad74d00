package movie

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

var ErrEmptyCatalog = errors.New("no movie data found")

// Record is one movie as loaded from the dataset file.
type Record struct {
	Title  string
	Plot   string
	Poster string
}

// Catalog is the ordered, read-only set of records served by the search
// endpoint. It is never empty and never changes after construction.
type Catalog struct {
	records []Record
}

// NewCatalog copies records into a catalog, dropping untitled entries.
func NewCatalog(records []Record) (*Catalog, error) {
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Title == "" {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Catalog{records: kept}, nil
}

func (c *Catalog) Len() int { return len(c.records) }

func (c *Catalog) At(i int) Record { return c.records[i] }

// Load reads a gzip-compressed JSON array of movie objects.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("gunzip dataset %s: %w", path, err)
	}
	defer zr.Close()

	c, err := Decode(zr)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return c, nil
}

// Decode parses an uncompressed JSON array of movie objects.
func Decode(r io.Reader) (*Catalog, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	records := make([]Record, 0, len(raw))
	for _, obj := range raw {
		title, _ := obj["title"].(string)
		if title == "" {
			continue
		}
		plot, _ := obj["plot"].(string)
		poster, _ := obj["poster"].(string)
		records = append(records, Record{Title: title, Plot: plot, Poster: poster})
	}
	return NewCatalog(records)
}
