package job

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"

	"github.com/auracorp/aurastudio/artifact"
	"github.com/auracorp/aurastudio/config"
	apierrors "github.com/auracorp/aurastudio/errors"
	"github.com/auracorp/aurastudio/log"
	"github.com/auracorp/aurastudio/process"
	"github.com/auracorp/aurastudio/provider"
	"github.com/auracorp/aurastudio/stage"
)

// Runner executes a single job's stage sequence, resolving a provider per
// stage, retrying recoverable errors with backoff, and reporting progress
// and terminal outcomes to an EventSink.
type Runner struct {
	Supervisor    *process.Supervisor
	Registry      *provider.Registry
	ArtifactStore *artifact.Store
	EncoderName   string
	OfflineOnly   bool
	Hardware      provider.HardwareInfo
	Clock         clock.Clock

	// Tier is the downgrade chain every stage resolves against. Empty
	// defaults to ProIfAvailable, the same default the runner always used
	// before this became configurable.
	Tier provider.Tier
}

func NewRunner(sup *process.Supervisor, reg *provider.Registry, store *artifact.Store, encoderName string, offlineOnly bool, hw provider.HardwareInfo) *Runner {
	return &Runner{
		Supervisor:    sup,
		Registry:      reg,
		ArtifactStore: store,
		EncoderName:   encoderName,
		OfflineOnly:   offlineOnly,
		Hardware:      hw,
		Clock:         clock.New(),
	}
}

func (r *Runner) tier() provider.Tier {
	if r.Tier == "" {
		return provider.TierProIfAvailable
	}
	return r.Tier
}

// AdmissionConflict reports the first capability whose downgrade chain is
// empty for the runner's configured tier and offline-only setting (the
// Pro+offline case spec.md requires rejecting at admission, before a job
// is ever created, rather than letting it run to a terminal fallback).
func (r *Runner) AdmissionConflict() (provider.Capability, bool) {
	for _, cap := range []provider.Capability{provider.LLM, provider.TTS, provider.Visuals} {
		if len(provider.Chain(cap, r.tier(), r.OfflineOnly, r.Hardware)) == 0 {
			return cap, true
		}
	}
	return "", false
}

// Run works j from Queued to a terminal state. It never panics: every
// stage error is classified and recorded before Run returns.
func (r *Runner) Run(ctx context.Context, j *Job, sink EventSink) {
	if j.Cancelled() {
		return
	}
	j.transitionRunning()
	sink.Publish(Event{JobID: j.ID, Type: EventJobStatus, Stage: j.Stage(), Timestamp: r.Clock.Now()})

	if j.Kind == KindExport {
		r.runExportOnly(ctx, j, sink)
		return
	}

	workDir, err := r.ArtifactStore.JobDir(j.ID)
	if err != nil {
		r.terminalFail(j, sink, StageScript, apierrors.EInternal, err.Error())
		return
	}

	var cleanedScript string
	var headingCount int
	var narrationPath string
	var imagePaths []string

	for {
		if j.Cancelled() {
			j.cancelFromRunning()
			sink.Publish(Event{JobID: j.ID, Type: EventJobStatus, Stage: j.Stage(), Timestamp: r.Clock.Now()})
			return
		}

		switch j.Stage() {
		case StageScript:
			out, err := r.runScriptRetrying(ctx, j, sink)
			if err != nil {
				r.classifyAndFail(j, sink, StageScript, err)
				return
			}
			cleanedScript = out.Cleaned
			headingCount = out.HeadingCount
			r.recordArtifact(j, artifact.TypeScript, filepath.Join(workDir, "script.txt"), []byte(cleanedScript))

		case StageNarration:
			out, err := r.runNarrationRetrying(ctx, j, sink, cleanedScript, workDir)
			if err != nil {
				r.classifyAndFail(j, sink, StageNarration, err)
				return
			}
			narrationPath = out.AudioPath
			r.recordArtifactPath(j, artifact.TypeAudio, narrationPath)

		case StageVisuals:
			out, err := r.runVisualsRetrying(ctx, j, sink, cleanedScript, headingCount)
			if err != nil {
				r.classifyAndFail(j, sink, StageVisuals, err)
				return
			}
			imagePaths = out.ImagePaths
			for _, p := range imagePaths {
				r.recordArtifactPath(j, artifact.TypeVisualSet, p)
			}

		case StageTimelineRender:
			out, err := stage.RunTimelineRender(ctx, r.Supervisor, r.EncoderName, narrationPath, imagePaths, j.Plan, j.Render, workDir, r.jobSink(j, sink, StageTimelineRender))
			if err != nil {
				r.classifyAndFail(j, sink, StageTimelineRender, err)
				return
			}
			r.recordArtifactPath(j, artifact.TypeIntermediateVideo, out.VideoPath)
			r.recordArtifactPath(j, artifact.TypeFinalVideo, out.VideoPath)
			j.succeed()
			r.ArtifactStore.RecordCompleted(j.ID, j.CorrelationID, j.FinishedAt())
			sink.Publish(Event{JobID: j.ID, Type: EventJobCompleted, Stage: StageComplete, Percent: 100, Timestamp: r.Clock.Now()})
			return
		}

		next, ok := j.Stage().Next()
		if !ok {
			return
		}
		j.advanceStage(next)
		sink.Publish(Event{JobID: j.ID, Type: EventJobStatus, Stage: next, Timestamp: r.Clock.Now()})
	}
}

func (r *Runner) runExportOnly(ctx context.Context, j *Job, sink EventSink) {
	workDir, err := r.ArtifactStore.JobDir(j.ID)
	if err != nil {
		r.terminalFail(j, sink, StageExport, apierrors.EInternal, err.Error())
		return
	}

	out, err := stage.RunExport(ctx, r.Supervisor, r.EncoderName, j.InputFile, j.PresetName, workDir, r.jobSink(j, sink, StageExport))
	if err != nil {
		r.classifyAndFail(j, sink, StageExport, err)
		return
	}

	r.recordArtifactPath(j, artifact.TypeFinalVideo, out.VideoPath)
	j.succeed()
	r.ArtifactStore.RecordCompleted(j.ID, j.CorrelationID, j.FinishedAt())
	sink.Publish(Event{JobID: j.ID, Type: EventJobCompleted, Stage: StageComplete, Percent: 100, Timestamp: r.Clock.Now()})
}

// jobSink adapts the runner's EventSink to the coalescing stage.Sink each
// pipeline stage function reports progress through.
func (r *Runner) jobSink(j *Job, sink EventSink, s Stage) stage.Sink {
	return stage.NewCoalescingSink(stage.SinkFunc(func(u stage.Update) {
		j.reportProgress(u.Percent)
		sink.Publish(Event{JobID: j.ID, Type: EventStepProgress, Stage: s, Percent: u.Percent, Message: u.Message, Timestamp: r.Clock.Now()})
	}))
}

func (r *Runner) runScriptRetrying(ctx context.Context, j *Job, sink EventSink) (stage.ScriptOutput, error) {
	decision := provider.Resolve(r.Registry, provider.LLM, r.tier(), r.OfflineOnly, r.Hardware, "")
	sink.Publish(Event{JobID: j.ID, Type: EventStepStatus, Stage: StageScript, Provider: decision.ProviderName, Message: decision.Reason, Timestamp: r.Clock.Now()})

	llm, ok := r.Registry.GetLLM(decision.ProviderName)
	if !ok {
		return stage.ScriptOutput{}, fmt.Errorf("%w: %s", newError(apierrors.EProviderUnavailable), decision.Reason)
	}

	var out stage.ScriptOutput
	op := func() error {
		stageCtx, cancel := context.WithTimeout(ctx, stageTimeoutLLM())
		defer cancel()
		var err error
		err = withHeartbeat(r.Clock, j, sink, StageScript, func() error {
			out, err = stage.RunScript(stageCtx, llm, j.Brief, j.Plan, r.jobSink(j, sink, StageScript))
			return err
		})
		return err
	}
	err := r.retry(j, op)
	return out, err
}

func (r *Runner) runNarrationRetrying(ctx context.Context, j *Job, sink EventSink, cleanedScript, workDir string) (stage.NarrationOutput, error) {
	decision := provider.Resolve(r.Registry, provider.TTS, r.tier(), r.OfflineOnly, r.Hardware, "")
	sink.Publish(Event{JobID: j.ID, Type: EventStepStatus, Stage: StageNarration, Provider: decision.ProviderName, Message: decision.Reason, Timestamp: r.Clock.Now()})

	tts, ok := r.Registry.GetTTS(decision.ProviderName)
	if !ok {
		return stage.NarrationOutput{}, fmt.Errorf("%w: %s", newError(apierrors.EProviderUnavailable), decision.Reason)
	}

	outPath := filepath.Join(workDir, "narration.wav")
	var out stage.NarrationOutput
	op := func() error {
		stageCtx, cancel := context.WithTimeout(ctx, stageTimeoutTTS())
		defer cancel()
		var err error
		err = withHeartbeat(r.Clock, j, sink, StageNarration, func() error {
			out, err = stage.RunNarration(stageCtx, tts, cleanedScript, j.Voice, outPath, r.jobSink(j, sink, StageNarration))
			return err
		})
		return err
	}
	err := r.retry(j, op)
	return out, err
}

func (r *Runner) runVisualsRetrying(ctx context.Context, j *Job, sink EventSink, cleanedScript string, headingCount int) (stage.VisualsOutput, error) {
	decision := provider.Resolve(r.Registry, provider.Visuals, r.tier(), r.OfflineOnly, r.Hardware, "")
	sink.Publish(Event{JobID: j.ID, Type: EventStepStatus, Stage: StageVisuals, Provider: decision.ProviderName, Message: decision.Reason, Timestamp: r.Clock.Now()})

	visuals, ok := r.Registry.GetVisuals(decision.ProviderName)
	if !ok {
		return stage.VisualsOutput{}, fmt.Errorf("%w: %s", newError(apierrors.EProviderUnavailable), decision.Reason)
	}

	var out stage.VisualsOutput
	op := func() error {
		stageCtx, cancel := context.WithTimeout(ctx, stageTimeoutVisualsTotal())
		defer cancel()
		var err error
		err = withHeartbeat(r.Clock, j, sink, StageVisuals, func() error {
			out, err = stage.RunVisuals(stageCtx, visuals, cleanedScript, headingCount, j.Brief, r.jobSink(j, sink, StageVisuals))
			return err
		})
		return err
	}
	err := r.retry(j, op)
	return out, err
}

// retry runs op up to 3 additional times on failure with 2s/4s/8s
// backoff, using a stage-local timer independent of the caller's context so
// an unrelated upstream deadline can't abort a legitimately slow provider.
// An error carrying a taxonomy code that apierrors.Retryable rejects stops
// the loop at once. Every retry bumps j.Attempt() and appends a job-log
// line, both surfaced on GET /jobs/{id}.
func (r *Runner) retry(j *Job, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.Multiplier = 2
	b.MaxInterval = 8 * time.Second
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0
	classified := func() error {
		err := op()
		var ce codedError
		if err != nil && stderrors.As(err, &ce) && !apierrors.Retryable(ce.code) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(classified, backoff.WithMaxRetries(b, 3), func(err error, _ time.Duration) {
		j.incrementAttempt()
		j.AppendLog(fmt.Sprintf("retrying after error: %s", err.Error()))
	})
}

// classifyAndFail maps a stage error to the job's failure taxonomy and
// transitions the job to Failed.
func (r *Runner) classifyAndFail(j *Job, sink EventSink, s Stage, err error) {
	code := apierrors.EInternal
	var ce codedError
	if stderrors.As(err, &ce) {
		code = ce.code
	}
	r.terminalFail(j, sink, s, code, err.Error())
}

func (r *Runner) terminalFail(j *Job, sink EventSink, s Stage, code apierrors.Code, message string) {
	fd := FailureDetails{
		Stage:            s,
		Code:             code,
		Message:          message,
		SuggestedActions: apierrors.SuggestedActions(code),
		FailedAt:         r.Clock.Now(),
	}
	j.recordError(JobError{Code: code, Message: message, Remediation: apierrors.Remediation(code), Stage: s, OccurredAt: r.Clock.Now()})
	j.fail(fd)
	sink.Publish(Event{JobID: j.ID, Type: EventJobFailed, Stage: s, Message: message, Timestamp: r.Clock.Now()})
	log.Error(context.Background(), "job failed", stderrors.New(message), "jobId", j.ID, "stage", string(s), "code", string(code))
}

func (r *Runner) recordArtifact(j *Job, t artifact.Type, path string, data []byte) {
	if err := writeFile(path, data); err != nil {
		log.Error(context.Background(), "failed writing artifact", err, "jobId", j.ID, "path", path)
		return
	}
	r.recordArtifactPath(j, t, path)
}

func (r *Runner) recordArtifactPath(j *Job, t artifact.Type, path string) {
	size, err := fileSizeOrZero(path)
	if err != nil {
		log.Error(context.Background(), "failed stat-ing artifact", err, "jobId", j.ID, "path", path)
	}
	a := artifact.Artifact{Type: t, Path: path, SizeBytes: size}
	if err := r.ArtifactStore.Add(j.ID, a); err != nil {
		log.Error(context.Background(), "failed recording artifact", err, "jobId", j.ID, "path", path)
		return
	}
	j.addArtifact(a)
}

// codedError lets classifyAndFail recover the structured error code a
// stage call returned.
type codedError struct {
	code apierrors.Code
}

func (c codedError) Error() string { return string(c.code) }

func newError(code apierrors.Code) error { return codedError{code: code} }

func stageTimeoutLLM() time.Duration          { return config.StageTimeoutLLM }
func stageTimeoutTTS() time.Duration          { return config.StageTimeoutTTS }
func stageTimeoutVisualsTotal() time.Duration { return config.StageTimeoutVisualsTotal }
