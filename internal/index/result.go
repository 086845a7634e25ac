package index

import (
	"encoding/json"
	"fmt"
	"slices"
)

// SupportedVersions is the allow-list of result schema versions, oldest first.
var SupportedVersions = []string{"0.0.0", "1.0.0", "1.1.0"}

// CurrentVersion is the newest schema version; it adds Identifiers.
const CurrentVersion = "1.1.0"

// ParseError is a problem the parser found in the file's content.
type ParseError struct {
	Message  string   `json:"Message"`
	Location Location `json:"Location"`
}

// Section is one declaration block. Type is empty for untyped blocks
// (variables, outputs, modules).
type Section struct {
	Name     string   `json:"Name"`
	Type     string   `json:"Type,omitempty"`
	Location Location `json:"Location"`
}

// Reference groups every use of one target identifier within a file.
type Reference struct {
	Name      string     `json:"Name"`
	Type      string     `json:"Type"`
	Locations []Location `json:"Locations"`

	// Identifiers, when present, is parallel to Locations and holds the
	// start of the bare identifier at each site.
	Identifiers []Location `json:"Identifiers,omitempty"`
}

// identifier returns the identifier start for site i, if known.
func (r *Reference) identifier(i int) (Location, bool) {
	if i < len(r.Identifiers) {
		return r.Identifiers[i], true
	}
	return Location{}, false
}

// FileResult is the parser's structured output for a single file.
type FileResult struct {
	Version          string                `json:"Version,omitempty"`
	Errors           []ParseError          `json:"Errors"`
	Variables        []Section             `json:"Variables"`
	DefaultProviders []Section             `json:"DefaultProviders"`
	Providers        []Section             `json:"Providers"`
	Resources        []Section             `json:"Resources"`
	DataResources    []Section             `json:"DataResources"`
	Modules          []Section             `json:"Modules"`
	Outputs          []Section             `json:"Outputs"`
	References       map[string]*Reference `json:"References"`
}

// categories returns the declaration lists in table order together with the
// kind each list declares.
func (r *FileResult) categories() []struct {
	kind     SymbolKind
	sections []Section
} {
	return []struct {
		kind     SymbolKind
		sections []Section
	}{
		{KindVariable, r.Variables},
		{KindProvider, r.DefaultProviders},
		{KindProvider, r.Providers},
		{KindResource, r.Resources},
		{KindData, r.DataResources},
		{KindModule, r.Modules},
		{KindOutput, r.Outputs},
	}
}

// DecodeResult parses raw parser output. supported is the version allow-list,
// oldest first; a nil list means SupportedVersions.
//
// Output without a version is treated as the oldest supported version, and
// references without a type hint are assumed to be variable references.
func DecodeResult(data []byte, supported []string) (*FileResult, error) {
	if supported == nil {
		supported = SupportedVersions
	}
	if len(supported) == 0 {
		return nil, fmt.Errorf("%w: empty version allow-list", ErrUnsupportedVersion)
	}

	var result FileResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	if result.Version == "" {
		result.Version = supported[0]
	}
	if !slices.Contains(supported, result.Version) {
		return nil, &UnsupportedVersionError{
			Version:   result.Version,
			Supported: slices.Clone(supported),
		}
	}

	result.normalize()
	return &result, nil
}

// normalize back-fills fields older parser versions leave out.
func (r *FileResult) normalize() {
	if r.References == nil {
		r.References = make(map[string]*Reference)
	}
	for id, ref := range r.References {
		if ref == nil {
			delete(r.References, id)
			continue
		}
		if ref.Type == "" {
			ref.Type = string(KindVariable)
		}
		if ref.Name == "" {
			ref.Name = id
		}
	}
}
