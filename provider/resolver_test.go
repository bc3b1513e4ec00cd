package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func registryWithFallbacksOnly() *Registry {
	reg := NewRegistry()
	reg.RegisterLLM(NewRuleBasedLLM())
	reg.RegisterTTS(NewNullTTS())
	return reg
}

func TestResolveFreeTierFallsBackToRuleBased(t *testing.T) {
	reg := registryWithFallbacksOnly()
	d := Resolve(reg, LLM, TierFree, false, HardwareInfo{}, "")
	require.Equal(t, "rulebased", d.ProviderName)
	require.False(t, d.IsFallback)
	require.Equal(t, 2, d.Rank)
}

func TestResolveProOfflineIsConfigConflict(t *testing.T) {
	reg := registryWithFallbacksOnly()
	d := Resolve(reg, LLM, TierPro, true, HardwareInfo{}, "")
	require.Equal(t, "None", d.ProviderName)
	require.Empty(t, d.Chain)
	require.False(t, d.IsFallback)
}

type fakeLLM struct{ name string }

func (f fakeLLM) Name() string { return f.name }
func (f fakeLLM) Available(ctx context.Context) bool { return true }
func (f fakeLLM) Generate(ctx context.Context, sys, user string, params map[string]string) (string, error) {
	return "", nil
}

func TestResolvePrefersFirstChainMatch(t *testing.T) {
	reg := registryWithFallbacksOnly()
	reg.RegisterLLM(fakeLLM{name: "ollama"})
	reg.RegisterLLM(fakeLLM{name: "openai"})

	d := Resolve(reg, LLM, TierPro, false, HardwareInfo{}, "")
	require.Equal(t, "openai", d.ProviderName)
	require.Equal(t, 1, d.Rank)
	require.False(t, d.IsFallback)
}

func TestResolveIsTotalNeverPanics(t *testing.T) {
	reg := NewRegistry() // empty, no terminal fallbacks registered either
	require.NotPanics(t, func() {
		d := Resolve(reg, TTS, TierPro, true, HardwareInfo{}, "")
		require.Equal(t, "None", d.ProviderName)
	})
}

func TestResolveSpecificTierBypassesChain(t *testing.T) {
	reg := registryWithFallbacksOnly()
	reg.RegisterLLM(fakeLLM{name: "openai"})
	reg.RegisterLLM(fakeLLM{name: "ollama"})

	d := Resolve(reg, LLM, TierFree, false, HardwareInfo{}, "OpenAI")
	require.Equal(t, "openai", d.ProviderName)
	require.Equal(t, 1, d.Rank)
}

func TestResolveSpecificUnregisteredFallsThroughToTier(t *testing.T) {
	reg := registryWithFallbacksOnly()
	reg.RegisterLLM(fakeLLM{name: "ollama"})

	d := Resolve(reg, LLM, TierFree, false, HardwareInfo{}, "nonexistent-model")
	require.Equal(t, "ollama", d.ProviderName)
}

func TestMonotonicTierNeverRemovesOptions(t *testing.T) {
	free := Chain(LLM, TierFree, false, HardwareInfo{})
	pro := Chain(LLM, TierPro, false, HardwareInfo{})
	for _, name := range free {
		require.Contains(t, pro, name)
	}
}

func TestVisualsLocalSDOnlyWithQualifyingHardware(t *testing.T) {
	withoutGPU := Chain(Visuals, TierPro, false, HardwareInfo{})
	require.NotContains(t, withoutGPU, "localsd")

	withGPU := Chain(Visuals, TierPro, false, HardwareInfo{HasNvidiaGPU: true, VRAMBytes: 8 << 30})
	require.Contains(t, withGPU, "localsd")

	lowVRAM := Chain(Visuals, TierPro, false, HardwareInfo{HasNvidiaGPU: true, VRAMBytes: 2 << 30})
	require.NotContains(t, lowVRAM, "localsd")
}

func TestNameNormalizationIsSynonymTolerant(t *testing.T) {
	reg := registryWithFallbacksOnly()
	reg.RegisterLLM(fakeLLM{name: "openai"})

	d := Resolve(reg, LLM, TierFree, false, HardwareInfo{}, "ChatGPT")
	require.Equal(t, "openai", d.ProviderName)
}
