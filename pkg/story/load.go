package story

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/kataru/pkg/value"
)

// Parse decodes a single YAML story document.
func Parse(data []byte) (*Story, error) {
	s := &Story{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing story: %w", err)
	}
	s.normalize()
	return s, nil
}

// Load reads a story from a YAML file, or from every .yml/.yaml file under a
// directory merged in lexical path order.
func Load(path string) (*Story, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading story: %w", err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading story: %w", err)
		}
		return Parse(data)
	}

	files, err := Files(path)
	if err != nil {
		return nil, err
	}

	merged := &Story{}
	merged.normalize()
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading story: %w", err)
		}
		part, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if err := merged.merge(part); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}
	return merged, nil
}

// Files lists the story files under dir in lexical order.
func Files(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yml", ".yaml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing story files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func (s *Story) normalize() {
	if s.Namespaces == nil {
		s.Namespaces = make(map[string]*Namespace)
	}
	if _, ok := s.Namespaces[GlobalNamespace]; !ok {
		s.Namespaces[GlobalNamespace] = &Namespace{}
	}
	for name, ns := range s.Namespaces {
		if ns == nil {
			ns = &Namespace{}
			s.Namespaces[name] = ns
		}
		ns.normalize()
	}
}

func (n *Namespace) normalize() {
	if n.State == nil {
		n.State = make(map[string]value.Value)
	}
	if n.Commands == nil {
		n.Commands = make(map[string]Params)
	}
	if n.Passages == nil {
		n.Passages = make(map[string]Passage)
	}
}

func (s *Story) merge(other *Story) error {
	if other.Start != "" {
		if s.Start != "" && s.Start != other.Start {
			return fmt.Errorf("conflicting start passages %q and %q", s.Start, other.Start)
		}
		s.Start = other.Start
	}

	for name, src := range other.Namespaces {
		dst, ok := s.Namespaces[name]
		if !ok {
			s.Namespaces[name] = src
			continue
		}
		for key, v := range src.State {
			if _, dup := dst.State[key]; dup {
				return fmt.Errorf("variable %q declared twice", Qualify(name, key))
			}
			dst.State[key] = v
		}
		for key, params := range src.Commands {
			if _, dup := dst.Commands[key]; dup {
				return fmt.Errorf("command %q declared twice", Qualify(name, key))
			}
			dst.Commands[key] = params
		}
		for key, lines := range src.Passages {
			if _, dup := dst.Passages[key]; dup {
				return fmt.Errorf("passage %q declared twice", Qualify(name, key))
			}
			dst.Passages[key] = lines
		}
		dst.Characters = append(dst.Characters, src.Characters...)
	}
	return nil
}
