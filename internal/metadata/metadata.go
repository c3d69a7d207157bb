// Package metadata reads the game metadata document (param.json) found
// under the source root and exposes the two fields the packer needs: the
// title identifier and a display title resolved through the locale map.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// RelPath is the fixed location of the metadata document relative to the
// source root. Its presence is what marks a directory as a game-data root.
const RelPath = "sce_sys/param.json"

// fallbackLanguage is tried when the declared default language has no
// entry of its own.
const fallbackLanguage = "en-US"

var (
	ErrNoTitleID = errors.New("metadata has no titleId")
	ErrNoTitle   = errors.New("metadata has no localized title")
)

// Param is the parsed metadata document.
type Param struct {
	TitleID         string
	DefaultLanguage string
	Titles          map[string]string // locale -> display title
}

// --- wire types ---

type paramDoc struct {
	TitleID             string          `json:"titleId"`
	LocalizedParameters json.RawMessage `json:"localizedParameters"`
}

type localizedEntry struct {
	TitleName string `json:"titleName"`
}

// Exists reports whether root carries the metadata marker.
func Exists(root string) bool {
	fi, err := os.Stat(filepath.Join(root, RelPath))
	return err == nil && fi.Mode().IsRegular()
}

// Load reads and parses the metadata document under root.
func Load(root string) (*Param, error) {
	path := filepath.Join(root, RelPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return p, nil
}

// Parse converts a raw param.json document into a Param. The
// localizedParameters object mixes the defaultLanguage indicator with
// locale-keyed entries, so it is decoded as a raw map first.
func Parse(data []byte) (*Param, error) {
	var doc paramDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.TitleID == "" {
		return nil, ErrNoTitleID
	}

	p := &Param{
		TitleID: doc.TitleID,
		Titles:  map[string]string{},
	}

	if len(doc.LocalizedParameters) > 0 {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(doc.LocalizedParameters, &raw); err != nil {
			return nil, fmt.Errorf("localizedParameters: %w", err)
		}
		for key, val := range raw {
			if key == "defaultLanguage" {
				// Ignore a malformed indicator; fallback resolution still applies.
				_ = json.Unmarshal(val, &p.DefaultLanguage)
				continue
			}
			var entry localizedEntry
			if err := json.Unmarshal(val, &entry); err != nil {
				continue
			}
			if entry.TitleName != "" {
				p.Titles[key] = entry.TitleName
			}
		}
	}
	return p, nil
}

// DisplayTitle resolves the display title: the default-language entry when
// present, then en-US, then the lexicographically first locale so the result
// is deterministic. Returns ErrNoTitle when no locale carries a title.
func (p *Param) DisplayTitle() (string, error) {
	if t, ok := p.Titles[p.DefaultLanguage]; ok {
		return t, nil
	}
	if t, ok := p.Titles[fallbackLanguage]; ok {
		return t, nil
	}
	if len(p.Titles) == 0 {
		return "", ErrNoTitle
	}
	locales := make([]string, 0, len(p.Titles))
	for k := range p.Titles {
		locales = append(locales, k)
	}
	sort.Strings(locales)
	return p.Titles[locales[0]], nil
}
