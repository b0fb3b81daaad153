package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type document struct {
	Intents []Intent `json:"intents" yaml:"intents"`
}

// Read decodes intents from r. The document is either a list of intents or an
// object with an "intents" list. Missing ids are assigned with [AssignIDs].
func Read(r io.Reader, format string) ([]Intent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Decode(data, format)
}

// Decode is [Read] for an in-memory document.
func Decode(data []byte, format string) ([]Intent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var (
		intents []Intent
		err     error
	)
	switch format {
	case FormatJSON, "":
		intents, err = decodeJSON(data)
	case FormatYAML:
		intents, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", formatName(format), err)
	}
	AssignIDs(intents)
	return intents, nil
}

func decodeJSON(data []byte) ([]Intent, error) {
	if data[0] == '[' {
		var list []Intent
		err := json.Unmarshal(data, &list)
		return list, err
	}
	var doc document
	err := json.Unmarshal(data, &doc)
	return doc.Intents, err
}

func decodeYAML(data []byte) ([]Intent, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var list []Intent
		err := node.Decode(&list)
		return list, err
	}
	var doc document
	err := node.Decode(&doc)
	return doc.Intents, err
}

// ReadFile reads intents from path, inferring the format from the extension.
// A path of "-" reads JSON from standard input.
func ReadFile(path string) ([]Intent, error) {
	if path == "-" {
		return Read(os.Stdin, FormatJSON)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, FormatFromPath(path))
}

// FormatFromPath maps a file extension to a document format.
// Unknown extensions are treated as JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// WriteJSON encodes intents as an indented JSON list.
func WriteJSON(w io.Writer, intents []Intent) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(intents); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func formatName(format string) string {
	if format == "" {
		return FormatJSON
	}
	return format
}
