package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/cristianoliveira/cmdsync/internal/logging"
)

// ErrDuplicateButton marks a button whose custom ID was already declared.
var ErrDuplicateButton = errors.New("duplicate button custom ID")

// Button is a component handler declared in a manifest under
// <root>/<category>/<file>.
type Button struct {
	CustomID string
	Category string
	Source   string
	Behavior command.Behavior
}

type buttonFile struct {
	CustomID string `toml:"custom_id" yaml:"custom_id" json:"custom_id"`
	Reply    string `toml:"reply" yaml:"reply" json:"reply"`
	Handler  string `toml:"handler" yaml:"handler" json:"handler"`
}

// LoadButtons reads button manifests from root in lexical order. Each file
// declares a custom_id and either a reply or a handler name resolved through
// behaviors. Invalid files and repeated custom IDs become LoadErrors and are
// skipped; the first declaration of an ID wins.
func LoadButtons(ctx context.Context, logger logging.Logger, root string, behaviors Behaviors) ([]Button, []*LoadError) {
	if logger == nil {
		logger = logging.Discard()
	}
	ns := "buttons:" + root

	var (
		buttons []Button
		errs    []*LoadError
		sources = make(map[string]string)
	)
	reject := func(le *LoadError) {
		logger.Warn("button rejected", "source", le.Source, "custom_id", le.Name, "error", le.Err.Error())
		errs = append(errs, le)
	}

	err := walkManifests(ctx, root, func(category, path string, err error) {
		if err != nil {
			reject(&LoadError{Namespace: ns, Category: category, Source: path, Err: err})
			return
		}
		b, err := loadButton(path, behaviors)
		if err != nil {
			reject(&LoadError{Namespace: ns, Category: category, Source: path, Name: b.CustomID, Err: err})
			return
		}
		if first, dup := sources[b.CustomID]; dup {
			reject(&LoadError{
				Namespace: ns,
				Category:  category,
				Source:    path,
				Name:      b.CustomID,
				Err:       fmt.Errorf("%w: already declared by %s", ErrDuplicateButton, first),
			})
			return
		}
		sources[b.CustomID] = path
		b.Category, b.Source = category, path
		buttons = append(buttons, b)
		logger.Debug("button loaded", "custom_id", b.CustomID, "source", path)
	})
	if err != nil {
		reject(&LoadError{Namespace: ns, Err: err})
	}
	return buttons, errs
}

func loadButton(path string, behaviors Behaviors) (Button, error) {
	var bf buttonFile
	if err := decodeManifest(path, &bf); err != nil {
		return Button{}, err
	}
	b := Button{CustomID: strings.TrimSpace(bf.CustomID)}
	if b.CustomID == "" || strings.ContainsAny(b.CustomID, " \t\n") {
		return b, &command.ValidationError{Field: "custom_id", Value: bf.CustomID, Reason: "must be non-empty and contain no whitespace"}
	}
	switch {
	case bf.Handler != "":
		fn, err := behaviors.lookup(bf.Handler)
		if err != nil {
			return b, err
		}
		b.Behavior = fn
	case bf.Reply != "":
		b.Behavior = ReplyBehavior(bf.Reply)
	default:
		return b, command.ErrNoBehavior
	}
	return b, nil
}
