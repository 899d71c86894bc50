package mention

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"<@123456789012345678>", "123456789012345678", false},
		{"<@!123456789012345678>", "123456789012345678", false},
		{"<@12345678901234567890>", "12345678901234567890", false},
		{"<@1234>", "", true},
		{"<#123456789012345678>", "", true},
		{"123456789012345678", "", true},
		{"<@123456789012345678> extra", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := User(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMention)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannel(t *testing.T) {
	id, err := Channel("<#123456789012345678>")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678", id)

	_, err = Channel("<@123456789012345678>")
	require.ErrorIs(t, err, ErrInvalidMention)
}

type fakeResolver struct {
	users    map[string]bool
	channels map[string]bool
	err      error
}

func (f fakeResolver) UserExists(_ context.Context, id string) (bool, error) {
	return f.users[id], f.err
}

func (f fakeResolver) ChannelExists(_ context.Context, id string) (bool, error) {
	return f.channels[id], f.err
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := fakeResolver{
		users:    map[string]bool{"123456789012345678": true},
		channels: map[string]bool{"223456789012345678": true},
	}

	id, err := ResolveUser(ctx, r, "<@!123456789012345678>")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678", id)

	_, err = ResolveUser(ctx, r, "<@999999999999999999>")
	require.ErrorIs(t, err, ErrUnknownTarget)

	_, err = ResolveChannel(ctx, r, "<#223456789012345678>")
	require.NoError(t, err)

	boom := errors.New("api down")
	_, err = ResolveChannel(ctx, fakeResolver{err: boom}, "<#223456789012345678>")
	require.ErrorIs(t, err, boom)
}
