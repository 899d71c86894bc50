package gate

import (
	"testing"

	"github.com/cristianoliveira/cmdsync/internal/command"
	"github.com/stretchr/testify/assert"
)

func TestTier(t *testing.T) {
	p := NewPolicy([]string{"dev1", " "}, []string{"tester1", "dev1"})
	assert.Equal(t, TierDev, p.Tier("dev1"))
	assert.Equal(t, TierTester, p.Tier("tester1"))
	assert.Equal(t, TierPublic, p.Tier("someone"))
	assert.Equal(t, TierPublic, p.Tier(""))
	assert.Equal(t, TierPublic, Policy{}.Tier("dev1"))
	assert.Equal(t, "dev", TierDev.String())
}

func TestEvaluate(t *testing.T) {
	p := NewPolicy([]string{"dev"}, []string{"tester"})
	plain := command.New().Name("ping").Description("Pong!").MustBuild()
	devsOnly := command.New().Name("eval").Description("Eval").DevsOnly(true).MustBuild()
	beta := command.New().Name("beta").Description("Beta").TestingPhase(true).MustBuild()
	both := command.New().Name("x").Description("X").DevsOnly(true).TestingPhase(true).MustBuild()
	prefixOnly := command.New().Name("whois").Description("Whois").PrefixOnly(true).DevsOnly(true).MustBuild()

	tests := []struct {
		name   string
		def    *command.Definition
		caller string
		mode   command.Mode
		want   Decision
	}{
		{"public plain", plain, "anyone", command.ModeSlash, Allow},
		{"public devs-only", devsOnly, "anyone", command.ModePrefix, Decision{Denial: DenyDevsOnly}},
		{"tester devs-only", devsOnly, "tester", command.ModePrefix, Decision{Denial: DenyDevsOnly}},
		{"dev devs-only", devsOnly, "dev", command.ModeSlash, Allow},
		{"public testing", beta, "anyone", command.ModeSlash, Decision{Denial: DenyTestingPhase}},
		{"tester testing", beta, "tester", command.ModeSlash, Allow},
		{"dev testing", beta, "dev", command.ModeSlash, Allow},
		{"devs-only checked first", both, "anyone", command.ModeSlash, Decision{Denial: DenyDevsOnly}},
		{"prefix-only via slash even for dev", prefixOnly, "dev", command.ModeSlash, Decision{Denial: DenyPrefixOnly}},
		{"prefix-only via slash public", prefixOnly, "anyone", command.ModeSlash, Decision{Denial: DenyPrefixOnly}},
		{"prefix-only via prefix", prefixOnly, "dev", command.ModePrefix, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Evaluate(tt.def, tt.caller, tt.mode))
		})
	}
}

func TestDenialMessages(t *testing.T) {
	assert.Equal(t, "This command can only be used as a prefix command.", DenyPrefixOnly.Message())
	assert.Equal(t, "This command is only available to developers.", DenyDevsOnly.Message())
	assert.Equal(t, "This command is currently in testing phase.", DenyTestingPhase.Message())
	assert.Empty(t, DenyNone.Message())
	assert.Equal(t, "testing-phase", DenyTestingPhase.String())
}

func TestVisible(t *testing.T) {
	p := NewPolicy([]string{"dev"}, nil)
	devsOnly := command.New().Name("eval").Description("Eval").DevsOnly(true).MustBuild()
	assert.True(t, p.Visible(devsOnly, "dev"))
	assert.False(t, p.Visible(devsOnly, "other"))
}
