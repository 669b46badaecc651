package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/skillswap/skillswap-hub/internal/domain/skill"
)

// affinityFile is the on-disk format of the category affinity table:
//
//	{
//	  "same_category": {"Programming": 0.6},
//	  "cross_category": [{"a": "Programming", "b": "Data Science", "affinity": 0.9}]
//	}
type affinityFile struct {
	SameCategory  map[string]float64 `json:"same_category"`
	CrossCategory []struct {
		A        string  `json:"a"`
		B        string  `json:"b"`
		Affinity float64 `json:"affinity"`
	} `json:"cross_category"`
}

// LoadAffinityTable reads the affinity table from path. An empty path
// returns the built-in table.
func LoadAffinityTable(path string) (*skill.AffinityTable, error) {
	if path == "" {
		return skill.DefaultAffinityTable(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open affinity file: %w", err)
	}
	defer f.Close()

	t, err := ParseAffinityTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseAffinityTable decodes a table. Unknown fields are rejected so a
// typo does not silently fall back to defaults.
func ParseAffinityTable(r io.Reader) (*skill.AffinityTable, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var file affinityFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode affinity table: %w", err)
	}

	t := skill.NewAffinityTable()
	for category, v := range file.SameCategory {
		if err := t.SetSameCategory(skill.Category(category), v); err != nil {
			return nil, fmt.Errorf("same_category %q: %w", category, err)
		}
	}
	for i, e := range file.CrossCategory {
		if e.A == "" || e.B == "" {
			return nil, fmt.Errorf("cross_category[%d]: both categories are required", i)
		}
		if err := t.SetCrossCategory(skill.Category(e.A), skill.Category(e.B), e.Affinity); err != nil {
			return nil, fmt.Errorf("cross_category[%d]: %w", i, err)
		}
	}
	return t, nil
}
