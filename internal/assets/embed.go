// ABOUTME: Sample RDF documents embedded via go:embed
// ABOUTME: Used by the tutorial scenarios and the samples command

package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/2389/agclient/pkg/agclient"
)

//go:embed data
var dataFS embed.FS

// Names lists the embedded documents, sorted.
func Names() []string {
	entries, err := fs.ReadDir(dataFS, "data")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Read returns the text of an embedded document.
func Read(name string) (string, error) {
	data, err := fs.ReadFile(dataFS, path.Join("data", name))
	if err != nil {
		return "", fmt.Errorf("sample %q: %w", name, err)
	}
	return string(data), nil
}

// FormatFor maps a document name onto the load format its extension implies.
func FormatFor(name string) (string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".nt", ".nq", ".ntriples":
		return agclient.FormatNTriples, nil
	case ".rdf", ".xml", ".owl":
		return agclient.FormatRDFXML, nil
	default:
		return "", &agclient.UnsupportedFormatError{Format: path.Ext(name)}
	}
}

// Extract writes every embedded document into dir and returns their paths.
func Extract(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	var paths []string
	for _, name := range Names() {
		text, err := Read(name)
		if err != nil {
			return nil, err
		}
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
