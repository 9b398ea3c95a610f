package build

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/ulikunitz/xz"
	yamlv3 "gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/open-edge-platform/rpmdeps-verifier/internal/deprule"
)

// Manifest is the YAML description of one or two builds, an alternative
// input to directories of rpm files. It is mainly useful for CI jobs
// that already have the dependency listings extracted.
type Manifest struct {
	Before *ManifestBuild `yaml:"before,omitempty" json:"before,omitempty"`
	After  *ManifestBuild `yaml:"after,omitempty" json:"after,omitempty"`

	// Rebase overrides rebase detection when set.
	Rebase *bool `yaml:"rebase,omitempty" json:"rebase,omitempty"`

	Subpackages []ManifestSubpackage `yaml:"subpackages" json:"subpackages"`
}

// ManifestBuild carries build-level metadata of one side.
type ManifestBuild struct {
	Version string `yaml:"version" json:"version"`
}

// ManifestSubpackage is one subpackage entry. The nevra fields describe
// the after build; the before build contributes only its rule listings.
type ManifestSubpackage struct {
	Name    string   `yaml:"name" json:"name"`
	Arch    string   `yaml:"arch" json:"arch"`
	Epoch   uint64   `yaml:"epoch,omitempty" json:"epoch,omitempty"`
	Version string   `yaml:"version" json:"version"`
	Release string   `yaml:"release" json:"release"`
	Files   []string `yaml:"files,omitempty" json:"files,omitempty"`

	Before *ManifestRules `yaml:"before,omitempty" json:"before,omitempty"`
	After  ManifestRules  `yaml:"after" json:"after"`
}

// ManifestRules lists dependency declarations grouped by class, each
// entry in "NAME" or "NAME OP VERSION" form.
type ManifestRules struct {
	Requires    []string `yaml:"requires,omitempty" json:"requires,omitempty"`
	Provides    []string `yaml:"provides,omitempty" json:"provides,omitempty"`
	Conflicts   []string `yaml:"conflicts,omitempty" json:"conflicts,omitempty"`
	Obsoletes   []string `yaml:"obsoletes,omitempty" json:"obsoletes,omitempty"`
	Recommends  []string `yaml:"recommends,omitempty" json:"recommends,omitempty"`
	Suggests    []string `yaml:"suggests,omitempty" json:"suggests,omitempty"`
	Supplements []string `yaml:"supplements,omitempty" json:"supplements,omitempty"`
	Enhances    []string `yaml:"enhances,omitempty" json:"enhances,omitempty"`
}

const manifestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["subpackages"],
  "properties": {
    "before": {"$ref": "#/$defs/buildMeta"},
    "after": {"$ref": "#/$defs/buildMeta"},
    "rebase": {"type": "boolean"},
    "subpackages": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "arch", "version", "release", "after"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "arch": {"type": "string", "minLength": 1},
          "epoch": {"type": "integer", "minimum": 0},
          "version": {"type": "string", "minLength": 1},
          "release": {"type": "string", "minLength": 1},
          "files": {"type": "array", "items": {"type": "string"}},
          "before": {"$ref": "#/$defs/rules"},
          "after": {"$ref": "#/$defs/rules"}
        }
      }
    }
  },
  "$defs": {
    "buildMeta": {
      "type": "object",
      "required": ["version"],
      "properties": {"version": {"type": "string", "minLength": 1}}
    },
    "rules": {
      "type": "object",
      "properties": {
        "requires": {"$ref": "#/$defs/ruleList"},
        "provides": {"$ref": "#/$defs/ruleList"},
        "conflicts": {"$ref": "#/$defs/ruleList"},
        "obsoletes": {"$ref": "#/$defs/ruleList"},
        "recommends": {"$ref": "#/$defs/ruleList"},
        "suggests": {"$ref": "#/$defs/ruleList"},
        "supplements": {"$ref": "#/$defs/ruleList"},
        "enhances": {"$ref": "#/$defs/ruleList"}
      },
      "additionalProperties": false
    },
    "ruleList": {"type": "array", "items": {"type": "string", "minLength": 1}}
  }
}`

var compiledManifestSchema = jsonschema.MustCompileString("manifest.schema.json", manifestSchema)

// LoadManifest reads, validates and decodes a build manifest. Files
// ending in .gz, .zst or .xz are decompressed transparently.
func LoadManifest(path string) (*Manifest, error) {
	data, err := readMaybeCompressed(path)
	if err != nil {
		return nil, err
	}

	if err := validateManifest(data); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yamlv3.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	return &m, nil
}

func readMaybeCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip manifest: %w", err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd manifest: %w", err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("xz manifest: %w", err)
		}
		r = xr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return data, nil
}

// validateManifest checks the YAML document against the manifest schema
// before decoding, so schema violations surface with a useful message
// instead of a half-populated build.
func validateManifest(data []byte) error {
	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("converting to json: %w", err)
	}

	var instance any
	if err := json.Unmarshal(jsonData, &instance); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}

	if err := compiledManifestSchema.Validate(instance); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

// Build converts a decoded manifest into the verification input,
// parsing rule listings and peer-linking before/after rules.
func (m *Manifest) Build() (*Build, error) {
	b := &Build{}

	if m.After != nil {
		b.AfterVersion = m.After.Version
	}
	if m.Before != nil {
		b.BeforeVersion = m.Before.Version
	}

	for _, ms := range m.Subpackages {
		sub := &Subpackage{
			Name:    ms.Name,
			Arch:    ms.Arch,
			Epoch:   ms.Epoch,
			Version: ms.Version,
			Release: ms.Release,
			Files:   ms.Files,
		}

		rules, err := ms.After.parse()
		if err != nil {
			return nil, fmt.Errorf("subpackage %s: %w", ms.Name, err)
		}
		sub.AfterRules = rules

		if ms.Before != nil {
			rules, err := ms.Before.parse()
			if err != nil {
				return nil, fmt.Errorf("subpackage %s (before): %w", ms.Name, err)
			}
			if rules == nil {
				rules = []*deprule.Rule{}
			}
			sub.BeforeRules = rules
		}

		b.Subpackages = append(b.Subpackages, sub)
	}

	if b.AfterVersion == "" {
		b.AfterVersion = buildVersion(b.Subpackages)
	}

	if m.Rebase != nil {
		b.Rebase = *m.Rebase
	} else {
		b.Rebase = DetectRebase(b.BeforeVersion, b.AfterVersion)
	}

	b.LinkPeers()
	return b, nil
}

func (r *ManifestRules) parse() ([]*deprule.Rule, error) {
	groups := []struct {
		kind  deprule.Kind
		lines []string
	}{
		{deprule.KindRequires, r.Requires},
		{deprule.KindProvides, r.Provides},
		{deprule.KindConflicts, r.Conflicts},
		{deprule.KindObsoletes, r.Obsoletes},
		{deprule.KindRecommends, r.Recommends},
		{deprule.KindSuggests, r.Suggests},
		{deprule.KindSupplements, r.Supplements},
		{deprule.KindEnhances, r.Enhances},
	}

	var rules []*deprule.Rule
	for _, g := range groups {
		for _, line := range g.lines {
			rule, err := deprule.Parse(g.kind, line)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
	}
	return rules, nil
}
