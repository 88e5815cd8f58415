package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var defaultRegionsYAML []byte

// Region identifies one DPC region or autonomous province.
type Region struct {
	Name       string `yaml:"name"`
	Population int    `yaml:"population"`
}

// DirName is the region name made safe for use as a single path element.
func (r Region) DirName() string {
	return strings.NewReplacer("/", "-", `\`, "-").Replace(r.Name)
}

// Dir is the region's output directory below root.
func (r Region) Dir(root string) string {
	return filepath.Join(root, r.DirName())
}

type regionFile struct {
	Regions []Region `yaml:"regions"`
}

// LoadRegions reads a YAML region list from path, or the embedded list of the
// 21 DPC regions when path is empty.
func LoadRegions(path string) ([]Region, error) {
	data := defaultRegionsYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read regions file: %w", err)
		}
		data = b
	}
	return parseRegions(data)
}

func parseRegions(data []byte) ([]Region, error) {
	var f regionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}
	if len(f.Regions) == 0 {
		return nil, errors.New("parse regions: no regions defined")
	}

	seen := make(map[string]bool, len(f.Regions))
	for _, r := range f.Regions {
		if strings.TrimSpace(r.Name) == "" {
			return nil, errors.New("parse regions: region with empty name")
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("parse regions: duplicate region %q", r.Name)
		}
		seen[r.Name] = true
	}
	return f.Regions, nil
}

// SelectRegions returns the regions named in names, in the order of all.
// An empty names list selects every region. Unknown names are an error.
func SelectRegions(all []Region, names []string) ([]Region, error) {
	if len(names) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var out []Region
	for _, r := range all {
		if want[r.Name] {
			out = append(out, r)
			delete(want, r.Name)
		}
	}
	if len(want) > 0 {
		var unknown []string
		for _, n := range names {
			if want[n] {
				unknown = append(unknown, n)
			}
		}
		return nil, fmt.Errorf("unknown regions: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
