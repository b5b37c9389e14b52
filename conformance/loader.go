package conformance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadedCase is a case with the suite and file it came from
type LoadedCase struct {
	File  string
	Suite string
	Case  Case
}

// LoadDir loads every .yaml file under dir, in lexical order
func LoadDir(dir string) ([]LoadedCase, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || (filepath.Ext(path) != ".yaml" && filepath.Ext(path) != ".yml") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)

	var loaded []LoadedCase
	for _, path := range files {
		cases, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		rel, _ := filepath.Rel(dir, path)
		for _, c := range cases {
			c.File = rel
			loaded = append(loaded, c)
		}
	}
	return loaded, nil
}

// LoadFile parses a single suite
func LoadFile(path string) ([]LoadedCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	cases := make([]LoadedCase, 0, len(suite.Cases))
	for _, c := range suite.Cases {
		if (c.Program == "") == (c.Bytecode == "") {
			return nil, fmt.Errorf("%s: case %q needs exactly one of program or bytecode", path, c.Name)
		}
		cases = append(cases, LoadedCase{
			File:  path,
			Suite: suite.Name,
			Case:  c,
		})
	}
	return cases, nil
}
