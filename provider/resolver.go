package provider

import (
	"fmt"
	"strings"
)

// Decision is the output of resolving one capability for one job: the
// chosen provider, its rank in the chain, the full chain considered, and
// whether the choice required falling all the way back to the terminal
// fallback.
type Decision struct {
	Capability   Capability
	ProviderName string
	Rank         int
	Chain        []string
	Reason       string
	IsFallback   bool
	FallbackFrom string
}

// Resolve is pure (no I/O) and total: it returns a Decision or, for the
// documented Pro+offline conflict, a Decision with ProviderName "None" that
// the caller must convert to E_ConfigConflict. It never panics outside
// invariant violations in the chain table itself.
func Resolve(reg *Registry, cap Capability, tier Tier, offlineOnly bool, hw HardwareInfo, specific string) Decision {
	if specific != "" {
		if has(reg, cap, specific) {
			return Decision{
				Capability:   cap,
				ProviderName: normalize(specific),
				Rank:         1,
				Chain:        []string{normalize(specific)},
				Reason:       fmt.Sprintf("caller requested specific provider %q", specific),
			}
		}
		// Falls through to tier logic with a warning folded into Reason.
	}

	chain := Chain(cap, tier, offlineOnly, hw)

	for i, name := range chain {
		if has(reg, cap, name) {
			reason := fmt.Sprintf("first available candidate in %s/%s chain", cap, tier)
			if specific != "" {
				reason = fmt.Sprintf("specific provider %q not registered; %s", specific, reason)
			}
			return Decision{
				Capability:   cap,
				ProviderName: name,
				Rank:         i + 1,
				Chain:        chain,
				Reason:       reason,
			}
		}
	}

	if len(chain) == 0 {
		return Decision{
			Capability:   cap,
			ProviderName: "None",
			Chain:        chain,
			Reason:       fmt.Sprintf("%s tier disallowed with offlineOnly=true", tier),
		}
	}

	if terminal, ok := TerminalFallback[cap]; ok && has(reg, cap, terminal) {
		return Decision{
			Capability:   cap,
			ProviderName: terminal,
			Rank:         len(chain) + 1,
			Chain:        chain,
			Reason:       "no chain candidate registered; terminal fallback used",
			IsFallback:   true,
			FallbackFrom: "All providers",
		}
	}

	return Decision{
		Capability:   cap,
		ProviderName: "None",
		Chain:        chain,
		Reason:       fmt.Sprintf("no candidate in chain [%s] is registered and no terminal fallback is available", strings.Join(chain, ", ")),
	}
}

func has(reg *Registry, cap Capability, name string) bool {
	switch cap {
	case LLM:
		return reg.hasLLM(name)
	case TTS:
		return reg.hasTTS(name)
	case Visuals:
		return reg.hasVisuals(name)
	default:
		return false
	}
}
