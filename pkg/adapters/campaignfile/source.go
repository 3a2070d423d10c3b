// Package campaignfile loads campaign definitions from YAML documents.
// One file per campaign holds the transition table, per-state prompt text
// by language, and the reply-option menus. A directory of files becomes a
// TransitionSource, a PromptLookup and an OptionStrategy in one load.
package campaignfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of one campaign file.
type document struct {
	Campaign    string                              `mapstructure:"campaign"`
	Transitions []transitionRow                     `mapstructure:"transitions"`
	Prompts     map[string]map[string]string        `mapstructure:"prompts"` // state -> language -> text
	Options     map[string]map[string][]replyOption `mapstructure:"options"` // state -> language -> menu
}

type transitionRow struct {
	Source  string `mapstructure:"source"`
	Trigger string `mapstructure:"trigger"`
	Dest    string `mapstructure:"dest"`
	Guard   string `mapstructure:"guard"`
	Action  string `mapstructure:"action"`
}

type replyOption struct {
	Text    string `mapstructure:"text"`
	Trigger string `mapstructure:"trigger"`
}

// Source holds every campaign loaded from a directory.
type Source struct {
	docs map[string]document
}

// Load reads every .yml/.yaml file under dir. Files are decoded loosely
// first and then mapped onto the typed document so unknown keys fail with
// a field path instead of silently disappearing.
func Load(dir string) (*Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read campaign dir: %w", err)
	}

	src := &Source{docs: make(map[string]document)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		doc, err := parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if _, dup := src.docs[doc.Campaign]; dup {
			return nil, fmt.Errorf("%s: campaign %q defined twice", entry.Name(), doc.Campaign)
		}
		src.docs[doc.Campaign] = doc
	}
	return src, nil
}

// Parse builds a Source from a single in-memory document. Used by tests
// and by the validate command for stdin input.
func Parse(raw []byte) (*Source, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return &Source{docs: map[string]document{doc.Campaign: doc}}, nil
}

func parse(raw []byte) (document, error) {
	var loose map[string]any
	if err := yaml.Unmarshal(raw, &loose); err != nil {
		return document{}, fmt.Errorf("yaml: %w", err)
	}

	var doc document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
	})
	if err != nil {
		return document{}, err
	}
	if err := dec.Decode(loose); err != nil {
		return document{}, fmt.Errorf("decode: %w", err)
	}

	if doc.Campaign == "" {
		return document{}, fmt.Errorf("missing campaign name")
	}
	if len(doc.Transitions) == 0 {
		return document{}, fmt.Errorf("campaign %q has no transitions", doc.Campaign)
	}
	return doc, nil
}
