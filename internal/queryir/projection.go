package queryir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SampleFields lists the projected genotype fields of one sample.
type SampleFields struct {
	Name   string
	Fields []string
}

// Projection lists the fields a query returns, grouped by table. Order
// is significant everywhere: variant fields come first in the SELECT
// list, then annotation fields, then sample fields in Samples order.
type Projection struct {
	Variant    []string
	Annotation []string
	Samples    []SampleFields
}

// IsEmpty reports whether the projection names no fields at all.
func (p Projection) IsEmpty() bool {
	return len(p.Variant) == 0 && len(p.Annotation) == 0 && len(p.Samples) == 0
}

// SampleNames returns the projected sample names in projection order.
func (p Projection) SampleNames() []string {
	names := make([]string, 0, len(p.Samples))
	for _, s := range p.Samples {
		names = append(names, s.Name)
	}
	return names
}

// ValidateProjection checks field and sample names for characters that
// would break identifier quoting.
func ValidateProjection(p Projection) error {
	for _, f := range p.Variant {
		if err := checkFieldName("variant", f); err != nil {
			return err
		}
	}
	for _, f := range p.Annotation {
		if err := checkFieldName("annotation", f); err != nil {
			return err
		}
	}
	for _, s := range p.Samples {
		if s.Name == "" {
			return parseErrorf("sample", "empty sample name")
		}
		if strings.ContainsAny(s.Name, "`'") {
			return parseErrorf("sample", "invalid sample name %q", s.Name)
		}
		for _, f := range s.Fields {
			if err := checkFieldName("sample."+s.Name, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkFieldName(path, name string) error {
	if name == "" {
		return parseErrorf(path, "empty field name")
	}
	if strings.Contains(name, "`") {
		return parseErrorf(path, "invalid field name %q", name)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. The document form is
//
//	variant: [chr, pos]
//	annotation: [gene]
//	sample:
//	  TUMOR: [gt, dp]
//
// Sample order follows the document, which is why this walks the
// mapping nodes instead of decoding into a map.
func (p *Projection) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return parseErrorf("", "projection must be a mapping, got %s", yamlKind(node.Kind))
	}

	out := Projection{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "variant":
			if err := val.Decode(&out.Variant); err != nil {
				return parseErrorf("variant", "%v", err)
			}
		case "annotation":
			if err := val.Decode(&out.Annotation); err != nil {
				return parseErrorf("annotation", "%v", err)
			}
		case "sample":
			samples, err := sampleFieldsFromYAML(val)
			if err != nil {
				return err
			}
			out.Samples = samples
		default:
			return parseErrorf(key.Value, "unknown projection table")
		}
	}

	*p = out
	return nil
}

func sampleFieldsFromYAML(node *yaml.Node) ([]SampleFields, error) {
	if node.Kind != yaml.MappingNode {
		return nil, parseErrorf("sample", "expected a mapping of sample names, got %s", yamlKind(node.Kind))
	}

	samples := make([]SampleFields, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var fields []string
		if err := val.Decode(&fields); err != nil {
			return nil, parseErrorf("sample."+key.Value, "%v", err)
		}
		samples = append(samples, SampleFields{Name: key.Value, Fields: fields})
	}
	return samples, nil
}

func yamlKind(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// UnmarshalJSON implements json.Unmarshaler. Object key order carries
// the sample order, so this walks decoder tokens instead of decoding
// into a map.
func (p *Projection) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return parseErrorf("", "projection must be an object: %v", err)
	}

	out := Projection{}
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return parseErrorf("", "%v", err)
		}
		switch key {
		case "variant":
			if err := dec.Decode(&out.Variant); err != nil {
				return parseErrorf("variant", "%v", err)
			}
		case "annotation":
			if err := dec.Decode(&out.Annotation); err != nil {
				return parseErrorf("annotation", "%v", err)
			}
		case "sample":
			samples, err := sampleFieldsFromJSON(dec)
			if err != nil {
				return err
			}
			out.Samples = samples
		default:
			return parseErrorf(key, "unknown projection table")
		}
	}

	*p = out
	return nil
}

func sampleFieldsFromJSON(dec *json.Decoder) ([]SampleFields, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, parseErrorf("sample", "expected an object of sample names: %v", err)
	}

	var samples []SampleFields
	for dec.More() {
		name, err := stringToken(dec)
		if err != nil {
			return nil, parseErrorf("sample", "%v", err)
		}
		var fields []string
		if err := dec.Decode(&fields); err != nil {
			return nil, parseErrorf("sample."+name, "%v", err)
		}
		samples = append(samples, SampleFields{Name: name, Fields: fields})
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, parseErrorf("sample", "%v", err)
	}
	return samples, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected string key, got %v", tok)
	}
	return s, nil
}
