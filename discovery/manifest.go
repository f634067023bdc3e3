package discovery

// manifest.go discovers sub-tests from a declarative list of options, such as
// the push-file options of an Android test configuration.

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultDirective is the option name that registers a test binary.
const DefaultDirective = "push-file"

// Option is one declarative record of a manifest.
type Option struct {
	Name  string `yaml:"name" xml:"name,attr"`
	Key   string `yaml:"key,omitempty" xml:"key,attr"`
	Value string `yaml:"value,omitempty" xml:"value,attr"`
}

// Manifest discovers one sub-test per matching option of the file at Path.
// Files ending in .yaml or .yml are read as YAML, anything else as XML.
type Manifest struct {
	Logger zerolog.Logger
	Path   string
	// Directive selects the options to use, DefaultDirective when empty.
	Directive string
}

// Discover implements Discoverer. Each matching option's value names both the
// sub-test and the binary that runs it; its key, when present alongside the
// value, is kept as the local source file of the binary.
func (m *Manifest) Discover(ctx context.Context) ([]Subtest, error) {
	f, err := os.Open(m.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	var options []Option
	switch strings.ToLower(filepath.Ext(m.Path)) {
	case ".yaml", ".yml":
		options, err = ParseYAMLOptions(f)
	default:
		options, err = ParseXMLOptions(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", m.Path, err)
	}

	directive := m.Directive
	if directive == "" {
		directive = DefaultDirective
	}

	var subtests []Subtest
	for _, opt := range options {
		if opt.Name != directive {
			continue
		}
		sub := Subtest{Name: opt.Value, Binary: opt.Value, Source: opt.Key}
		if opt.Value == "" {
			sub = Subtest{Name: opt.Key, Binary: opt.Key}
		}
		if sub.Name == "" {
			m.Logger.Warn().Str("directive", directive).Msg("Ignoring option without value")
			continue
		}
		subtests = append(subtests, sub)
	}
	subtests = dedupe(m.Logger, subtests)

	m.Logger.Debug().
		Str("manifest", m.Path).
		Str("directive", directive).
		Int("count", len(subtests)).
		Msg("Discovered sub-tests from manifest")
	return subtests, nil
}

// ParseXMLOptions returns every <option> element of an XML document in
// document order, at any nesting depth.
func ParseXMLOptions(r io.Reader) ([]Option, error) {
	dec := xml.NewDecoder(r)
	var options []Option
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return options, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "option" {
			continue
		}
		var opt Option
		if err := dec.DecodeElement(&opt, &start); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
}

type yamlManifest struct {
	Options []Option `yaml:"options"`
}

// ParseYAMLOptions reads options from a YAML document that is either a
// sequence of options or a mapping with an "options" sequence.
func ParseYAMLOptions(r io.Reader) ([]Option, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var options []Option
		if err := root.Decode(&options); err != nil {
			return nil, err
		}
		return options, nil
	case yaml.MappingNode:
		var m yamlManifest
		if err := root.Decode(&m); err != nil {
			return nil, err
		}
		return m.Options, nil
	}
	return nil, fmt.Errorf("unexpected YAML document at line %d", root.Line)
}
