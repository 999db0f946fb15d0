package currency

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// DefaultCodes are accepted when no currency list file is configured
var DefaultCodes = []string{"IDR", "SGD", "THB", "USD", "VND"}

// Registry holds the currency codes transactions may be recorded in
type Registry struct {
	codes map[string]struct{}
}

// NewRegistry builds a registry from the given ISO 4217 alphabetic codes
func NewRegistry(codes ...string) (*Registry, error) {
	r := &Registry{codes: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !isAlphaCode(code) {
			return nil, fmt.Errorf("invalid currency code %q", code)
		}
		r.codes[code] = struct{}{}
	}
	if len(r.codes) == 0 {
		return nil, fmt.Errorf("no currency codes given")
	}
	return r, nil
}

// Default returns the registry of DefaultCodes
func Default() *Registry {
	r, _ := NewRegistry(DefaultCodes...)
	return r
}

// LoadFile reads an ISO 4217 list file, or returns Default when path is empty
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open currency file: %w", err)
	}
	defer f.Close()
	return LoadISO4217(f)
}

// LoadISO4217 parses the published ISO 4217 XML list (list one).
// Entries without an alphabetic code, such as Antarctica, are skipped
func LoadISO4217(r io.Reader) (*Registry, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	entries := doc.FindElements("//CcyTbl/CcyNtry")
	if len(entries) == 0 {
		return nil, fmt.Errorf("no currency entries found in XML")
	}

	var codes []string
	for _, entry := range entries {
		ccy := entry.FindElement("./Ccy")
		if ccy == nil {
			continue
		}
		codes = append(codes, ccy.Text())
	}
	return NewRegistry(codes...)
}

// Supports reports whether code is accepted. Matching is exact: codes are upper case
func (r *Registry) Supports(code string) bool {
	_, ok := r.codes[code]
	return ok
}

// Codes returns the accepted codes in sorted order
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.codes))
	for code := range r.codes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func isAlphaCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
