package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/auracorp/aurastudio/config"
)

// Registry holds zero or more providers per capability, keyed by their
// canonical normalized name. It is read-mostly: set once at startup,
// mutated only through the Register* methods under a write lock, read under a
// read lock by the resolver.
type Registry struct {
	mu        sync.RWMutex
	llm       map[string]LLMProvider
	tts       map[string]TTSProvider
	visuals   map[string]VisualsProvider
	available *gocache.Cache
}

func NewRegistry() *Registry {
	return &Registry{
		llm:       map[string]LLMProvider{},
		tts:       map[string]TTSProvider{},
		visuals:   map[string]VisualsProvider{},
		available: gocache.New(config.ProviderAvailabilityCacheTTL, 2*config.ProviderAvailabilityCacheTTL),
	}
}

func (r *Registry) RegisterLLM(p LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[normalize(p.Name())] = p
}

func (r *Registry) RegisterTTS(p TTSProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[normalize(p.Name())] = p
}

func (r *Registry) RegisterVisuals(p VisualsProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visuals[normalize(p.Name())] = p
}

func (r *Registry) hasLLM(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.llm[normalize(name)]
	return ok
}

func (r *Registry) hasTTS(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tts[normalize(name)]
	return ok
}

func (r *Registry) hasVisuals(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.visuals[normalize(name)]
	return ok
}

func (r *Registry) GetLLM(name string) (LLMProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.llm[normalize(name)]
	return p, ok
}

func (r *Registry) GetTTS(name string) (TTSProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.tts[normalize(name)]
	return p, ok
}

func (r *Registry) GetVisuals(name string) (VisualsProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.visuals[normalize(name)]
	return p, ok
}

// Available reports whether a named provider is currently available,
// caching the result per provider instance for config.ProviderAvailabilityCacheTTL
// so rapid admission bursts don't hammer remote APIs.
func (r *Registry) Available(ctx context.Context, cap Capability, name string) bool {
	key := string(cap) + ":" + normalize(name)
	if v, ok := r.available.Get(key); ok {
		return v.(bool)
	}

	var ok bool
	switch cap {
	case LLM:
		if p, found := r.GetLLM(name); found {
			ok = p.Available(ctx)
		}
	case TTS:
		if p, found := r.GetTTS(name); found {
			ok = p.Available(ctx)
		}
	case Visuals:
		if p, found := r.GetVisuals(name); found {
			ok = p.Available(ctx)
		}
	}
	r.available.Set(key, ok, time.Duration(0))
	return ok
}

// synonyms is the fixed, case-insensitive lookup table used to normalize a
// user-supplied provider name before probing the registry.
var synonyms = map[string]string{
	"gpt":        "openai",
	"chatgpt":    "openai",
	"gemini-pro": "gemini",
	"claude":     "anthropic",
	"11labs":     "elevenlabs",
	"eleven":     "elevenlabs",
	"sd":         "stability",
	"stablediffusion": "stability",
}

func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "")
	if canon, ok := synonyms[n]; ok {
		return canon
	}
	return n
}
