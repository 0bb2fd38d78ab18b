package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the name WriteDataset uses under its output directory.
const FileName = "books.json"

// WriteDataset serializes books into books.json under dir and returns the path.
func WriteDataset(books []Book, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(books); err != nil {
		return "", fmt.Errorf("encode json for %s: %w", path, err)
	}
	return path, nil
}

// ReadDataset decodes a file written by WriteDataset.
func ReadDataset(path string) ([]Book, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var books []Book
	if err := json.NewDecoder(file).Decode(&books); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return books, nil
}
