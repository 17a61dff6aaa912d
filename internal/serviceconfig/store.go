package serviceconfig

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

//go:embed gmfetch.ini
var defaultConfig []byte

// DefaultPath is reported as the origin of the embedded configuration.
const DefaultPath = "<builtin>/gmfetch.ini"

// Store is a sectioned key/value configuration source.
// Option names are matched case-insensitively; section names are not.
type Store interface {
	// Sections returns the section names in file order.
	Sections() []string
	HasSection(section string) bool
	Get(section, key string) (string, bool)
	// Keys lists the options defined in section, for diagnostics.
	Keys(section string) []string
	// Path is where the configuration was read from.
	Path() string
}

// OpenStore reads the configuration at path. Files ending in .yaml or .yml
// are parsed as YAML, everything else as INI.
func OpenStore(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, err := parseYAML(path, data)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := parseINI(path, data)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// DefaultStore returns the built-in service configuration.
func DefaultStore() Store {
	s, err := parseINI(DefaultPath, defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("embedded service config is invalid: %v", err))
	}
	return s
}

type iniStore struct {
	path string
	file *ini.File
}

var iniOptions = ini.LoadOptions{
	InsensitiveKeys: true,
	// Header values such as "application/xml;q=0.9" contain ';'.
	IgnoreInlineComment: true,
}

func parseINI(path string, data []byte) (*iniStore, error) {
	f, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service config %s: %w", path, err)
	}
	return &iniStore{path: path, file: f}, nil
}

func (s *iniStore) Sections() []string {
	var names []string
	for _, name := range s.file.SectionStrings() {
		if name == ini.DefaultSection {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (s *iniStore) HasSection(section string) bool {
	if section == ini.DefaultSection {
		return false
	}
	_, err := s.file.GetSection(section)
	return err == nil
}

func (s *iniStore) Get(section, key string) (string, bool) {
	sec, err := s.file.GetSection(section)
	if err != nil {
		return "", false
	}
	k, err := sec.GetKey(key)
	if err != nil {
		return "", false
	}
	return k.String(), true
}

func (s *iniStore) Keys(section string) []string {
	sec, err := s.file.GetSection(section)
	if err != nil {
		return nil
	}
	return sec.KeyStrings()
}

func (s *iniStore) Path() string {
	return s.path
}

// yamlStore holds a top-level mapping of service name to string options:
//
//	WDC:
//	  Hostname: http://app.geomag.bgs.ac.uk
//	  Route: wdc/datasets/download
type yamlStore struct {
	path     string
	sections []string
	options  map[string]map[string]string
	keys     map[string][]string
}

func parseYAML(path string, data []byte) (*yamlStore, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse service config %s: %w", path, err)
	}

	s := &yamlStore{
		path:    path,
		options: make(map[string]map[string]string),
		keys:    make(map[string][]string),
	}
	if len(doc.Content) == 0 {
		return s, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse service config %s: top level must be a mapping of services", path)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		name, body := root.Content[i].Value, root.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("failed to parse service config %s: service %q must be a mapping of options", path, name)
		}
		opts := make(map[string]string)
		var keys []string
		for j := 0; j+1 < len(body.Content); j += 2 {
			k, v := body.Content[j], body.Content[j+1]
			if v.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("failed to parse service config %s: option %s.%s must be a string", path, name, k.Value)
			}
			key := strings.ToLower(k.Value)
			if _, dup := opts[key]; !dup {
				keys = append(keys, key)
			}
			opts[key] = v.Value
		}
		if _, dup := s.options[name]; !dup {
			s.sections = append(s.sections, name)
		}
		s.options[name] = opts
		s.keys[name] = keys
	}
	return s, nil
}

func (s *yamlStore) Sections() []string {
	return append([]string(nil), s.sections...)
}

func (s *yamlStore) HasSection(section string) bool {
	_, ok := s.options[section]
	return ok
}

func (s *yamlStore) Get(section, key string) (string, bool) {
	opts, ok := s.options[section]
	if !ok {
		return "", false
	}
	v, ok := opts[strings.ToLower(key)]
	return v, ok
}

func (s *yamlStore) Keys(section string) []string {
	return append([]string(nil), s.keys[section]...)
}

func (s *yamlStore) Path() string {
	return s.path
}
