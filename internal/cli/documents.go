package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/variantlab/varq/internal/queryir"
)

// loadQueryDoc reads one YAML query document from a file. JSON works
// too, being a YAML subset.
func loadQueryDoc(path string) (queryir.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return queryir.Query{}, fmt.Errorf("read query document: %w", err)
	}

	q := queryir.NewQuery()
	if err := yaml.Unmarshal(data, &q); err != nil {
		return queryir.Query{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return q, nil
}

// loadRecordDocs reads record documents from a YAML file. The file may
// be a multi-document stream of record mappings, a single list of
// record mappings, or both mixed; document order is preserved.
func loadRecordDocs(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	var docs []map[string]any
	for {
		var raw any
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		switch v := raw.(type) {
		case nil:
			// Empty document, skip.
		case map[string]any:
			docs = append(docs, v)
		case []any:
			for i, item := range v {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("parse %s: record %d: expected mapping, got %T", path, i, item)
				}
				docs = append(docs, m)
			}
		default:
			return nil, fmt.Errorf("parse %s: expected mapping or list, got %T", path, raw)
		}
	}
	return docs, nil
}
