package fields

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type fileEntry struct {
	Abbrev string `yaml:"abbrev"`
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
}

type file struct {
	Fields []fileEntry `yaml:"fields"`
}

// Load reads a registry dump. Entries are registered in file order, so
// repeated abbreviations build same-name chains:
//
//	fields:
//	  - abbrev: ip.addr
//	    name: Source or Destination Address
//	    type: FT_IPv4
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding field registry: %w", err)
	}
	t := NewTable()
	for i, e := range f.Fields {
		if e.Abbrev == "" {
			return nil, fmt.Errorf("field registry entry %d: missing abbrev", i)
		}
		t.Register(e.Abbrev, e.Name, e.Type)
	}
	return t, nil
}

// LoadFile reads a registry dump from the named file.
func LoadFile(path string) (*Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	t, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
