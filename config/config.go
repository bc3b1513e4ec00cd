package config

import "time"

var Version string

// Clock is indirected so tests can substitute a fixed-time generator instead
// of sprinkling time.Now() through the codebase.
var Clock TimestampGenerator = RealTimestampGenerator{}

// PathEncoderDefault is where we look for the media encoder binary if the
// operator hasn't configured an explicit path and it isn't on PATH.
var PathEncoderDefault = "/usr/local/bin/ffmpeg"

// EncoderMinVersion is the minimum encoder version the validator accepts.
var EncoderMinVersion = "4.0.0"

// DefaultOutputDirName is appended to the user's home/documents directory
// when no output directory override is configured.
const DefaultOutputDirName = "AuraVideos"

// MinFreeDiskBytes is the minimum free space required on the output drive
// before a job is admitted.
const MinFreeDiskBytes = 1 << 30 // 1 GiB

const MinTargetDuration = 10 * time.Second
const MaxTargetDuration = 30 * time.Minute

const MinLogicalCores = 2
const MinRAMBytes = 4 << 30 // 4 GiB, warning-only on first run

// DefaultWorkerPoolSize bounds concurrent job execution when the operator
// hasn't overridden it; resolved against runtime.NumCPU() at startup.
const DefaultWorkerPoolSize = 4

// DefaultRetentionBound is how many terminal jobs (per job type) are kept
// in memory/disk index before the oldest are trimmed.
const DefaultRetentionBound = 50

// HeartbeatInterval is the keep-alive cadence emitted while a stage awaits
// a single long call.
const HeartbeatInterval = 30 * time.Second

// ProgressCoalesceInterval bounds how often a stage may push a progress
// update into the runner's sink.
const ProgressCoalesceInterval = 100 * time.Millisecond

// Per-stage timeouts, per spec.
const (
	StageTimeoutLLM           = 15 * time.Minute
	StageTimeoutTTS           = 10 * time.Minute
	StageTimeoutVisualsPerImg = 5 * time.Minute
	StageTimeoutVisualsTotal  = 20 * time.Minute
)

// HTTPClientTimeoutBuffer is added on top of a stage timeout to build the
// total timeout used by the HTTP client a provider is handed; a client
// configured with a shorter total timeout would race its own stage and is
// considered a configuration bug.
const HTTPClientTimeoutBuffer = 5 * time.Minute

// ProviderAvailabilityCacheTTL is how long a provider's available() result
// is trusted before re-probing.
const ProviderAvailabilityCacheTTL = 30 * time.Second

// ProcessKillGrace is how long Kill() waits after a terminate signal before
// escalating to a hard kill.
const ProcessKillGrace = 5 * time.Second

// ShutdownSubprocessBudget bounds how long the shutdown coordinator waits
// for KillAll() to finish draining subprocesses.
const ShutdownSubprocessBudget = 30 * time.Second

// NarrationWordsPerMinute drives the Null TTS fallback's estimated duration.
const NarrationWordsPerMinute = 150
