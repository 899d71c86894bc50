// Package mention parses user and channel mentions in prefix arguments.
package mention

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	userPattern    = regexp.MustCompile(`^<@!?(\d{17,20})>$`)
	channelPattern = regexp.MustCompile(`^<#(\d{17,20})>$`)

	// ErrInvalidMention is returned when the text is not a mention.
	ErrInvalidMention = errors.New("invalid mention")
	// ErrUnknownTarget is returned when a parsed ID does not resolve.
	ErrUnknownTarget = errors.New("mentioned target not found")
)

// User extracts the ID from <@id> or <@!id>.
func User(s string) (string, error) {
	m := userPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: %q is not a user mention", ErrInvalidMention, s)
	}
	return m[1], nil
}

// Channel extracts the ID from <#id>.
func Channel(s string) (string, error) {
	m := channelPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: %q is not a channel mention", ErrInvalidMention, s)
	}
	return m[1], nil
}

// Resolver confirms that IDs exist on the platform.
type Resolver interface {
	UserExists(ctx context.Context, id string) (bool, error)
	ChannelExists(ctx context.Context, id string) (bool, error)
}

// ResolveUser parses a user mention and checks it resolves.
func ResolveUser(ctx context.Context, r Resolver, s string) (string, error) {
	id, err := User(s)
	if err != nil {
		return "", err
	}
	return id, confirm(ctx, r.UserExists, id)
}

// ResolveChannel parses a channel mention and checks it resolves.
func ResolveChannel(ctx context.Context, r Resolver, s string) (string, error) {
	id, err := Channel(s)
	if err != nil {
		return "", err
	}
	return id, confirm(ctx, r.ChannelExists, id)
}

func confirm(ctx context.Context, exists func(context.Context, string) (bool, error), id string) error {
	ok, err := exists(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, id)
	}
	return nil
}
