package provider

// Tier expresses the caller's preference for which downgrade chain to use.
type Tier string

const (
	TierFree           Tier = "Free"
	TierProIfAvailable Tier = "ProIfAvailable"
	TierPro            Tier = "Pro"
)

// SpecificTier wraps a user-named provider that bypasses the chain entirely
// if registered.
type SpecificTier struct {
	Name string
}

// TerminalFallback is the capability-specific provider name guaranteed to
// always succeed once constructed at startup.
var TerminalFallback = map[Capability]string{
	LLM:     "rulebased",
	TTS:     "null",
	Visuals: "slideshow",
}

type chainKey struct {
	cap     Capability
	tier    Tier
	offline bool
}

// chains is the authored, constant downgrade-chain table. It is never
// computed from provider capabilities at runtime: determinism is required
// for tests and logs, per design notes.
var chains = map[chainKey][]string{
	{LLM, TierPro, false}:              {"openai", "azure", "gemini", "ollama", "rulebased"},
	{LLM, TierPro, true}:               {}, // Pro disallowed offline: explicit error, not fallback
	{LLM, TierProIfAvailable, false}:   {"openai", "azure", "gemini", "ollama", "rulebased"},
	{LLM, TierProIfAvailable, true}:    {"ollama", "rulebased"},
	{LLM, TierFree, false}:             {"ollama", "rulebased"},
	{LLM, TierFree, true}:              {"ollama", "rulebased"},

	{TTS, TierPro, false}:              {"elevenlabs", "playht", "mimic3", "piper", "windows"},
	{TTS, TierPro, true}:               {},
	{TTS, TierProIfAvailable, false}:   {"elevenlabs", "playht", "mimic3", "piper", "windows"},
	{TTS, TierProIfAvailable, true}:    {"mimic3", "piper", "windows"},
	{TTS, TierFree, false}:             {"mimic3", "piper", "windows"},
	{TTS, TierFree, true}:              {"mimic3", "piper", "windows"},

	{Visuals, TierPro, false}:            {"stability", "runway", "localsd", "stock", "slideshow"},
	{Visuals, TierPro, true}:             {},
	{Visuals, TierProIfAvailable, false}: {"stability", "runway", "localsd", "stock", "slideshow"},
	{Visuals, TierProIfAvailable, true}:  {"localsd", "stock", "slideshow"},
	{Visuals, TierFree, false}:           {"stock", "slideshow"},
	{Visuals, TierFree, true}:            {"stock", "slideshow"},
}

// HardwareInfo reports local GPU capability, consulted to decide whether
// "localsd" belongs in a Visuals chain (nvidia-gpu AND VRAM >= 6 GiB).
type HardwareInfo struct {
	HasNvidiaGPU bool
	VRAMBytes    uint64
}

const minLocalSDVRAMBytes = 6 << 30

// Chain builds the canonical downgrade chain for (capability, tier,
// offlineOnly). Online, raising tier can never remove options
// (monotonicity): Free's chain is a suffix of Pro's chain for a given
// capability, by construction of the table above. Offline, the Pro chains
// are empty (the Pro+offline conflict), so the property does not hold there.
func Chain(cap Capability, tier Tier, offlineOnly bool, hw HardwareInfo) []string {
	base := append([]string{}, chains[chainKey{cap, tier, offlineOnly}]...)
	if cap != Visuals {
		return base
	}
	if hw.HasNvidiaGPU && hw.VRAMBytes >= minLocalSDVRAMBytes {
		return base
	}
	// Drop the conditional localsd candidate when hardware doesn't qualify.
	out := make([]string, 0, len(base))
	for _, name := range base {
		if name == "localsd" {
			continue
		}
		out = append(out, name)
	}
	return out
}
