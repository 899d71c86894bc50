package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Behaviors maps handler names referenced by manifests to Go behaviors.
type Behaviors map[string]command.Behavior

// manifestFile is the on-disk shape of a command declaration.
type manifestFile struct {
	Name          string           `toml:"name" yaml:"name" json:"name"`
	Description   string           `toml:"description" yaml:"description" json:"description"`
	Options       []map[string]any `toml:"options" yaml:"options" json:"options"`
	TestingPhase  bool             `toml:"testing_phase" yaml:"testing_phase" json:"testing_phase"`
	DevsOnly      bool             `toml:"devs_only" yaml:"devs_only" json:"devs_only"`
	PrefixOnly    bool             `toml:"prefix_only" yaml:"prefix_only" json:"prefix_only"`
	Deleted       bool             `toml:"deleted" yaml:"deleted" json:"deleted"`
	Reply         string           `toml:"reply" yaml:"reply" json:"reply"`
	PrefixHandler string           `toml:"prefix_handler" yaml:"prefix_handler" json:"prefix_handler"`
	SlashHandler  string           `toml:"slash_handler" yaml:"slash_handler" json:"slash_handler"`
}

// manifestCommand adapts a decoded manifest to command.Describable.
type manifestCommand struct {
	file    manifestFile
	options []command.OptionSpec
	prefix  command.Behavior
	slash   command.Behavior
}

var (
	_ command.Describable = (*manifestCommand)(nil)
	_ command.Flagged     = (*manifestCommand)(nil)
)

func (m *manifestCommand) Name() string                  { return m.file.Name }
func (m *manifestCommand) Description() string           { return m.file.Description }
func (m *manifestCommand) Options() []command.OptionSpec { return m.options }
func (m *manifestCommand) TestingPhase() bool            { return m.file.TestingPhase }
func (m *manifestCommand) DevsOnly() bool                { return m.file.DevsOnly }
func (m *manifestCommand) PrefixOnly() bool              { return m.file.PrefixOnly }
func (m *manifestCommand) Deleted() bool                 { return m.file.Deleted }

func (m *manifestCommand) Behavior(mode command.Mode) command.Behavior {
	switch mode {
	case command.ModePrefix:
		return m.prefix
	case command.ModeSlash:
		return m.slash
	}
	return nil
}

// ReplyBehavior returns a behavior that answers with fixed text.
func ReplyBehavior(text string) command.Behavior {
	return func(ctx context.Context, inv *command.Invocation) error {
		return inv.Reply(ctx, text)
	}
}

type dirNamespace struct {
	root      string
	behaviors Behaviors
}

// Dir returns a namespace reading manifests from root/<category>/<file>.
// Supported extensions are .toml, .yaml, .yml, .json and .jsonc; other
// files and anything directly under root are ignored.
func Dir(root string, behaviors Behaviors) Namespace {
	return &dirNamespace{root: root, behaviors: behaviors}
}

func (d *dirNamespace) Name() string { return "dir:" + d.root }

// Candidates lists categories and files in lexical order. A missing root
// yields no candidates.
func (d *dirNamespace) Candidates(ctx context.Context) ([]Candidate, error) {
	var out []Candidate
	err := walkManifests(ctx, d.root, func(category, path string, err error) {
		if err != nil {
			out = append(out, Candidate{Category: category, Source: path, Err: err})
			return
		}
		value, err := d.load(path)
		out = append(out, Candidate{Category: category, Source: path, Value: value, Err: err})
	})
	return out, err
}

// walkManifests calls fn for every manifest file under root/<category>/, in
// lexical order. An unreadable category is reported to fn with its
// directory as path.
func walkManifests(ctx context.Context, root string, fn func(category, path string, err error)) error {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read manifest dir: %w", err)
	}
	for _, cat := range entries {
		if !cat.IsDir() {
			continue
		}
		catDir := filepath.Join(root, cat.Name())
		files, err := os.ReadDir(catDir)
		if err != nil {
			fn(cat.Name(), catDir, err)
			continue
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if f.IsDir() || !SupportedManifest(f.Name()) {
				continue
			}
			fn(cat.Name(), filepath.Join(catDir, f.Name()), nil)
		}
	}
	return nil
}

// SupportedManifest reports whether name has a manifest extension.
func SupportedManifest(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml", ".yaml", ".yml", ".json", ".jsonc":
		return true
	}
	return false
}

// decodeManifest reads path into v using the decoder for its extension.
func decodeManifest(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, v)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(jsonc.ToJSON(data), v)
	}
	if err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	return nil
}

func (d *dirNamespace) load(path string) (command.Describable, error) {
	var mf manifestFile
	if err := decodeManifest(path, &mf); err != nil {
		return nil, err
	}

	mc := &manifestCommand{file: mf}
	var err error
	if mc.options, err = command.OptionsFromMaps(mf.Options); err != nil {
		return nil, err
	}
	if mf.Reply != "" {
		reply := ReplyBehavior(mf.Reply)
		mc.prefix, mc.slash = reply, reply
	}
	if mf.PrefixHandler != "" {
		if mc.prefix, err = d.behavior(mf.PrefixHandler); err != nil {
			return nil, err
		}
	}
	if mf.SlashHandler != "" {
		if mc.slash, err = d.behavior(mf.SlashHandler); err != nil {
			return nil, err
		}
	}
	return mc, nil
}

func (d *dirNamespace) behavior(name string) (command.Behavior, error) {
	return d.behaviors.lookup(name)
}

func (b Behaviors) lookup(name string) (command.Behavior, error) {
	fn, ok := b[name]
	if !ok || fn == nil {
		return nil, fmt.Errorf("unknown handler %q", name)
	}
	return fn, nil
}
