// Package gate decides whether a caller may run a command in a given mode.
//
// Evaluation never fails: a denial is an expected policy outcome returned
// as a Decision, not an error.
package gate

import (
	"strings"

	"github.com/cristianoliveira/cmdsync/internal/command"
)

// Tier is an access tier. Higher values are more privileged.
type Tier int

const (
	TierPublic Tier = iota
	TierTester
	TierDev
)

func (t Tier) String() string {
	switch t {
	case TierDev:
		return "dev"
	case TierTester:
		return "tester"
	default:
		return "public"
	}
}

// Denial identifies why a decision was negative.
type Denial int

const (
	DenyNone Denial = iota
	DenyPrefixOnly
	DenyDevsOnly
	DenyTestingPhase
)

// Message returns the user-visible text for the denial.
func (d Denial) Message() string {
	switch d {
	case DenyPrefixOnly:
		return "This command can only be used as a prefix command."
	case DenyDevsOnly:
		return "This command is only available to developers."
	case DenyTestingPhase:
		return "This command is currently in testing phase."
	}
	return ""
}

func (d Denial) String() string {
	switch d {
	case DenyPrefixOnly:
		return "prefix-only"
	case DenyDevsOnly:
		return "devs-only"
	case DenyTestingPhase:
		return "testing-phase"
	}
	return "none"
}

// Decision is the result of Evaluate.
type Decision struct {
	Allowed bool
	Denial  Denial
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

func deny(d Denial) Decision { return Decision{Denial: d} }

// Policy holds tier membership by caller ID. The zero Policy treats every
// caller as public.
type Policy struct {
	devs    map[string]struct{}
	testers map[string]struct{}
}

// NewPolicy builds a policy from ID lists. Blank IDs are ignored.
func NewPolicy(devs, testers []string) Policy {
	return Policy{devs: idSet(devs), testers: idSet(testers)}
}

func idSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}

// Tier returns the most privileged tier of caller.
func (p Policy) Tier(caller string) Tier {
	if _, ok := p.devs[caller]; ok {
		return TierDev
	}
	if _, ok := p.testers[caller]; ok {
		return TierTester
	}
	return TierPublic
}

// Evaluate applies the mode gate, then devsOnly, then testingPhase.
// The mode gate applies to every caller, devs included.
func (p Policy) Evaluate(def *command.Definition, caller string, mode command.Mode) Decision {
	if mode == command.ModeSlash && def.PrefixOnly() {
		return deny(DenyPrefixOnly)
	}
	tier := p.Tier(caller)
	if def.DevsOnly() && tier < TierDev {
		return deny(DenyDevsOnly)
	}
	if def.TestingPhase() && tier < TierTester {
		return deny(DenyTestingPhase)
	}
	return Allow
}

// Visible reports whether caller would pass the tier checks for def.
// Used to list commands a caller can run.
func (p Policy) Visible(def *command.Definition, caller string) bool {
	return p.Evaluate(def, caller, command.ModePrefix).Allowed
}
