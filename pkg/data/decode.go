package data

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a data document.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat picks the format from the location's extension. Anything that
// is not CSV or YAML is treated as JSON.
func DetectFormat(location string) Format {
	if idx := strings.IndexAny(location, "?#"); idx >= 0 && strings.Contains(location, "://") {
		location = location[:idx]
	}
	switch strings.ToLower(path.Ext(strings.ReplaceAll(location, "\\", "/"))) {
	case ".csv":
		return FormatCSV
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a document using the format implied by its location.
func Decode(doc Document) (any, error) {
	return DecodeBytes(doc.Raw(), DetectFormat(doc.Location()))
}

// DecodeBytes parses raw data in the given format. A leading UTF-8 byte order
// mark is ignored. CSV input becomes a slice of objects keyed by the header
// row, with every value kept as a string.
func DecodeBytes(raw []byte, format Format) (any, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	switch format {
	case FormatCSV:
		return decodeCSV(raw)
	case FormatYAML:
		return decodeYAML(raw)
	case FormatJSON, "":
		return decodeJSON(raw)
	default:
		return nil, fmt.Errorf("data: unsupported format %q", format)
	}
}

// decodeJSON keeps numbers as json.Number so integers and IDs render with
// their original digits.
func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("data: json parse failed, first line %q: %w", firstLine(raw), err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("data: json parse failed, first line %q: unexpected data after top-level value", firstLine(raw))
	}
	return out, nil
}

func decodeYAML(raw []byte) (any, error) {
	var out any
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("data: yaml parse failed: %w", err)
	}
	return Normalize(out), nil
}

func decodeCSV(raw []byte) (any, error) {
	// Every row must have as many fields as the header row.
	reader := csv.NewReader(bytes.NewReader(raw))

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []any{}, nil
		}
		return nil, fmt.Errorf("data: csv: failed to read headers: %w", err)
	}
	headers = append([]string(nil), headers...)

	rows := make([]any, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.StartLine
			}
			return nil, fmt.Errorf("data: csv: error on line %d: %w", line, err)
		}

		row := make(map[string]any, len(headers))
		for i, header := range headers {
			row[header] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Normalize converts map[any]any nodes produced by YAML for non-string keys
// into map[string]any so lookups behave the same as for JSON input.
func Normalize(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for key, value := range node {
			node[key] = Normalize(value)
		}
		return node
	case map[any]any:
		out := make(map[string]any, len(node))
		for key, value := range node {
			out[fmt.Sprint(key)] = Normalize(value)
		}
		return out
	case []any:
		for i, value := range node {
			node[i] = Normalize(value)
		}
		return node
	default:
		return v
	}
}

func firstLine(raw []byte) string {
	line, _, _ := bytes.Cut(raw, []byte("\n"))
	return strings.TrimRight(string(line), "\r")
}
