package ingest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dvloznov/moneymagic/internal/domain"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Parser turns raw upload bytes into canonical transactions.
type Parser interface {
	Parse(data []byte) ([]domain.Transaction, error)
}

// ParserFunc adapts a plain function to Parser.
type ParserFunc func(data []byte) ([]domain.Transaction, error)

func (f ParserFunc) Parse(data []byte) ([]domain.Transaction, error) {
	return f(data)
}

var parsers = map[string]Parser{}

// RegisterParser registers a parser under a format name.
func RegisterParser(format string, p Parser) {
	parsers[format] = p
}

// GetParser returns the parser registered for format.
func GetParser(format string) (Parser, error) {
	p, ok := parsers[format]
	if !ok {
		return nil, fmt.Errorf("unknown upload format: %s (available: %v)", format, AvailableFormats())
	}
	return p, nil
}

// AvailableFormats lists registered format names, sorted.
func AvailableFormats() []string {
	formats := make([]string, 0, len(parsers))
	for name := range parsers {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

// DetectFormat picks a format from the file name, then the content type,
// then the file's magic bytes. CSV is the default.
func DetectFormat(filename, contentType string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv", ".txt":
		return FormatCSV
	}
	if strings.Contains(contentType, "spreadsheetml") {
		return FormatXLSX
	}
	// xlsx files are zip archives
	if len(data) >= 4 && string(data[:4]) == "PK\x03\x04" {
		return FormatXLSX
	}
	return FormatCSV
}

// Parse parses data with the parser registered for format.
func Parse(format string, data []byte) ([]domain.Transaction, error) {
	p, err := GetParser(format)
	if err != nil {
		return nil, &ParseError{Msg: "Unsupported file type.", Err: err}
	}
	return p.Parse(data)
}

func init() {
	RegisterParser(FormatCSV, ParserFunc(ParseCSV))
	RegisterParser(FormatXLSX, ParserFunc(ParseXLSX))
}
