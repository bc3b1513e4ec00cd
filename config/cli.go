package config

// Cli holds every flag/env-derived setting the process needs at startup.
// Populated in cmd/aurastudio via peterbourgon/ff, mirroring the flag+env
// merge the upstream studio tooling uses for its own CLI surface.
type Cli struct {
	HTTPAddress string

	OutputDir string

	EncoderPath string

	OfflineOnly bool

	WorkerPoolSize int
	RetentionSize  int

	DefaultTier string

	MetricsAddress string

	HasNvidiaGPU bool
	VRAMBytes    uint64
}
