// Command aurastudio runs the local video-generation studio as a single
// process: it boots the provider registry, the job queue, and an HTTP API,
// then blocks until a termination signal drains everything in order.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/peterbourgon/ff/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/auracorp/aurastudio/api"
	"github.com/auracorp/aurastudio/artifact"
	"github.com/auracorp/aurastudio/config"
	"github.com/auracorp/aurastudio/job"
	"github.com/auracorp/aurastudio/log"
	"github.com/auracorp/aurastudio/process"
	"github.com/auracorp/aurastudio/provider"
	"github.com/auracorp/aurastudio/queue"
	"github.com/auracorp/aurastudio/shutdown"
	"github.com/auracorp/aurastudio/validate"
)

func main() {
	if err := flag.Set("logtostderr", "true"); err != nil {
		glog.Fatal(err)
	}

	fs := flag.NewFlagSet("aurastudio", flag.ExitOnError)
	cli := config.Cli{}

	version := fs.Bool("version", false, "print application version")
	fs.StringVar(&cli.HTTPAddress, "http-addr", "127.0.0.1:8787", "address to bind the studio's HTTP API")
	fs.StringVar(&cli.MetricsAddress, "metrics-addr", "127.0.0.1:8788", "address to bind the Prometheus metrics endpoint")
	fs.StringVar(&cli.OutputDir, "output-dir", defaultOutputDir(), "directory where rendered videos and intermediates are written")
	fs.StringVar(&cli.EncoderPath, "encoder-path", "", "path to the media encoder binary (defaults to PATH lookup, then the well-known install location)")
	fs.BoolVar(&cli.OfflineOnly, "offline-only", false, "never resolve a provider that requires network access")
	fs.IntVar(&cli.WorkerPoolSize, "worker-pool-size", 0, "number of jobs to run concurrently (defaults to min(runtime.NumCPU(), 4))")
	fs.IntVar(&cli.RetentionSize, "retention-size", 0, "number of terminal jobs retained per kind before the oldest are trimmed")
	fs.StringVar(&cli.DefaultTier, "default-tier", string(provider.TierProIfAvailable), "provider downgrade chain to resolve against: Free, ProIfAvailable, or Pro")
	fs.BoolVar(&cli.HasNvidiaGPU, "has-nvidia-gpu", false, "advertise a local Nvidia GPU for the localsd visuals fallback")
	fs.Uint64Var(&cli.VRAMBytes, "vram-bytes", 0, "local GPU memory in bytes; localsd needs -has-nvidia-gpu and at least 6 GiB")
	verbosity := fs.String("v", "", "log verbosity {1-9}")

	err := ff.Parse(fs, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("AURASTUDIO"),
	)
	if err != nil {
		glog.Fatalf("error parsing cli: %s", err)
	}

	if *version {
		fmt.Printf("aurastudio version: %s\n", config.Version)
		return
	}

	if *verbosity != "" {
		if vFlag := flag.Lookup("v"); vFlag != nil {
			if err := vFlag.Value.Set(*verbosity); err != nil {
				glog.Fatal(err)
			}
		}
	}

	if err := os.MkdirAll(cli.OutputDir, 0o755); err != nil {
		glog.Fatalf("cannot prepare output dir %q: %v", cli.OutputDir, err)
	}

	ctx := context.Background()

	sup := process.New()
	reg := provider.NewRegistry()
	if err := provider.Bootstrap(reg, sup, cli.EncoderPath, cli.OutputDir); err != nil {
		glog.Fatalf("provider bootstrap failed: %v", err)
	}
	provider.RegisterConfigured(reg, sup, cli.OutputDir)

	store := artifact.New(cli.OutputDir)
	validator := validate.New(cli.EncoderPath, cli.OutputDir)
	runner := job.NewRunner(sup, reg, store, cli.EncoderPath, cli.OfflineOnly, provider.HardwareInfo{
		HasNvidiaGPU: cli.HasNvidiaGPU,
		VRAMBytes:    cli.VRAMBytes,
	})
	runner.Tier = provider.Tier(cli.DefaultTier)

	server := &http.Server{Addr: cli.HTTPAddress}
	coordinator := shutdown.New(ctx, server, nil, sup)

	q := queue.New(coordinator.Context(), runner, validator, store, cli.WorkerPoolSize, cli.RetentionSize)
	coordinator.Queue = q

	encoderStatus := api.ProbeEncoderStatus(encoderPathOrDefault(cli.EncoderPath))

	router := api.NewRouter(&api.Server{
		Queue:         q,
		Clock:         clock.New(),
		EncoderStatus: encoderStatus,
		Shutdown:      func() { coordinator.Shutdown() },
	})
	server.Handler = router

	go func() {
		glog.Infof("aurastudio HTTP API listening on %s", cli.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(context.Background(), "HTTP server exited with error", err)
		}
	}()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		glog.Infof("aurastudio metrics listening on %s", cli.MetricsAddress)
		if err := http.ListenAndServe(cli.MetricsAddress, mux); err != nil {
			log.Error(context.Background(), "metrics server exited with error", err)
		}
	}()

	summary := coordinator.WaitForSignal()
	glog.Infof("shutdown complete: cancelledJobs=%d killedProcesses=%d httpShutdownOk=%v duration=%s",
		summary.CancelledJobs, summary.KilledProcs, summary.HTTPShutdownOK, summary.Duration)
}

// defaultOutputDir mirrors the per-OS "Documents"-adjacent default the
// studio falls back to when the operator hasn't configured one.
func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return config.DefaultOutputDirName
	}
	return filepath.Join(home, config.DefaultOutputDirName)
}

func encoderPathOrDefault(configured string) string {
	if configured != "" {
		return configured
	}
	return config.PathEncoderDefault
}
