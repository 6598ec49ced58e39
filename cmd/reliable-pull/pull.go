package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/tshea68/reliable-pull/config"
	"github.com/tshea68/reliable-pull/logger"
	"github.com/tshea68/reliable-pull/metrics"
	"github.com/tshea68/reliable-pull/pkg/archive"
	"github.com/tshea68/reliable-pull/pkg/client"
	"github.com/tshea68/reliable-pull/pkg/diff"
	"github.com/tshea68/reliable-pull/pkg/poller"
	"github.com/tshea68/reliable-pull/pkg/writers"
	"go.uber.org/zap"
)

// PullOptions represents the options for the pull command.
type PullOptions struct {
	Env         string
	BaseURL     string
	ConfigPath  string
	Create      bool
	Date        string
	PollMins    int
	TimeoutMins int
	OutDir      string
	NoUnzip     bool
	DiffOld     string
	KeyColumn   string
	DiffFields  []string
	NoSpinner   bool
}

// newPullCommand creates the pull command.
func newPullCommand() *cobra.Command {
	options := &PullOptions{}

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Trigger, download and extract the vendor export (optionally diffing it)",
		Long: `The pull command runs the full export workflow: optionally trigger
server-side generation, poll the download endpoint for the target date until
the file is ready or the timeout expires, decode and extract the archive, and
optionally compute the delta against a previous snapshot.

A run-metadata record is written to the output directory for every run,
whether it succeeds or fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(options)
		},
	}

	cmd.Flags().StringVar(&options.Env, "env", "", "Vendor environment (stg, prod); default from RELIABLE_ENV or stg")
	cmd.Flags().StringVar(&options.BaseURL, "base-url", "", "Override the vendor API base URL")
	cmd.Flags().StringVar(&options.ConfigPath, "config", "", "Optional YAML config file")
	cmd.Flags().BoolVar(&options.Create, "create", false, "Trigger server-side generation before polling")
	cmd.Flags().StringVar(&options.Date, "date", "", "Target date YYYYMMDD (default: today; may try yesterday early a.m.)")
	cmd.Flags().IntVar(&options.PollMins, "poll-mins", 10, "Minutes between download attempts")
	cmd.Flags().IntVar(&options.TimeoutMins, "timeout-mins", 120, "Overall deadline in minutes")
	cmd.Flags().StringVar(&options.OutDir, "outdir", "parts_runs", "Output directory for artifacts and run records")
	cmd.Flags().BoolVar(&options.NoUnzip, "no-unzip", false, "Keep the downloaded archive without extracting it")
	cmd.Flags().StringVar(&options.DiffOld, "diff-old", "", "Previous snapshot CSV to diff the new export against")
	cmd.Flags().StringVar(&options.KeyColumn, "key-col", "partNumber", "Key column for the diff")
	cmd.Flags().StringSliceVar(&options.DiffFields, "diff-fields", nil, "Fields to compare (default: all shared columns)")
	cmd.Flags().BoolVar(&options.NoSpinner, "no-spinner", false, "Disable the progress spinner")

	return cmd
}

// runPull executes the pull workflow with the given options.
func runPull(options *PullOptions) (err error) {
	log := logger.GetLogger()
	defer logger.Sync()

	cfg, err := config.Load(options.ConfigPath)
	if err != nil {
		return err
	}
	if options.Env != "" {
		cfg.Env = options.Env
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = cfg.BaseURL()
	}

	pollInterval := time.Duration(options.PollMins) * time.Minute
	timeout := time.Duration(options.TimeoutMins) * time.Minute

	clock := clockwork.NewRealClock()
	run := metrics.RunReport{
		StartedAt:    clock.Now(),
		Env:          cfg.Env,
		BaseURL:      baseURL,
		CreateCalled: options.Create,
		TargetDate:   "auto",
		PollInterval: pollInterval.String(),
		Timeout:      timeout.String(),
		Result:       metrics.ResultUnknown,
	}
	if options.Date != "" {
		run.TargetDate = options.Date
	}

	// The record is persisted on every exit path, success or failure.
	store := &metrics.JSONStore{Dir: options.OutDir, Clock: clock}
	defer func() {
		run.FinishedAt = clock.Now()
		path, saveErr := store.Save(run)
		if saveErr != nil {
			log.Error("saving run record", zap.Error(saveErr))
			if err == nil {
				err = saveErr
			}
			return
		}
		log.Info("run record saved", zap.String("path", path))
	}()

	cli, err := client.New(client.Config{
		BaseURL:   baseURL,
		BasicAuth: cfg.BasicAuth,
		APIKey:    cfg.APIKey,
		Country:   cfg.Country,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	p, err := poller.New(poller.Config{Logger: log, Clock: clock})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nCancelling...")
		cancel()
	}()

	var spin *spinner.Spinner
	if !options.NoSpinner {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		spin.Suffix = " waiting for export..."
		spin.Start()
	}
	ready, req, err := p.Run(ctx, poller.Options{
		CreateFirst:  options.Create,
		Date:         options.Date,
		PollInterval: pollInterval,
		Timeout:      timeout,
		Submit:       cli.SubmitGeneration,
		Poll:         cli.PollDownload,
		OnAttempt: func(attempt int, date string) {
			if spin != nil {
				spin.Suffix = fmt.Sprintf(" download attempt #%d for date %s", attempt, date)
			}
		},
	})
	if spin != nil {
		spin.Stop()
	}
	run.DownloadAttempts = req.Attempts
	run.FinalDate = req.Date
	if err != nil {
		classifyPollError(&run, err)
		return err
	}
	run.Result = metrics.ResultDownloaded
	run.LastPayload = metrics.SummarizeOutcome(*ready)

	data, err := ready.Decode()
	if err != nil {
		run.Result = metrics.ResultUnknown
		run.Note("payload decode failed: %v", err)
		return err
	}
	if err := os.MkdirAll(options.OutDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	zipPath := filepath.Join(options.OutDir, ready.FileName)
	if err := os.WriteFile(zipPath, data, 0644); err != nil {
		return fmt.Errorf("saving archive: %w", err)
	}
	run.Outputs.Zip = zipPath
	log.Info("saved archive", zap.String("path", zipPath), zap.Int("bytes", len(data)))

	var csvPath string
	if !options.NoUnzip {
		extractDir := filepath.Join(options.OutDir, "unzipped_"+req.Date)
		files, err := archive.Unzip(zipPath, extractDir)
		if err != nil {
			return err
		}
		run.Outputs.ExtractDir = extractDir
		run.Outputs.ExtractedFiles = files
		log.Info("extracted archive", zap.Int("files", len(files)), zap.String("dir", extractDir))

		csvPath = archive.FirstTabular(files)
		if csvPath != "" {
			run.Outputs.CSV = csvPath
		}
	}

	if options.DiffOld != "" {
		if diffErr := runPullDiff(options, csvPath, req.Date, &run, log); diffErr != nil {
			return diffErr
		}
	}
	return nil
}

// runPullDiff computes the delta step of a pull. A missing previous snapshot
// or a tabular-less archive downgrades to a warning plus a run-record note;
// the pull itself still succeeds.
func runPullDiff(options *PullOptions, csvPath, date string, run *metrics.RunReport, log *zap.Logger) error {
	switch {
	case csvPath == "":
		log.Warn("no tabular file found in archive, skipping diff")
		run.Note("diff skipped: no tabular file found in archive")
		return nil
	case !fileExists(options.DiffOld):
		log.Warn("previous snapshot not found, skipping diff", zap.String("path", options.DiffOld))
		run.Note("diff skipped: previous snapshot %s not found", options.DiffOld)
		return nil
	}

	fields := options.DiffFields
	if len(fields) == 0 {
		fields = nil
	}
	result, err := diff.Diff(options.DiffOld, csvPath, options.KeyColumn, fields)
	if err != nil {
		return err
	}
	prefix := filepath.Join(options.OutDir, "delta_"+date+"_")
	outputs, err := writers.WriteDelta(result, prefix)
	if err != nil {
		return err
	}
	run.Diff = &metrics.DiffStats{
		New:           len(result.NewKeys),
		Removed:       len(result.RemovedKeys),
		Changed:       len(result.Changed),
		CompareFields: result.CompareFields,
		Outputs: map[string]string{
			"new":     outputs.New,
			"removed": outputs.Removed,
			"changed": outputs.Changed,
		},
	}
	log.Info("delta computed",
		zap.Int("new", len(result.NewKeys)),
		zap.Int("removed", len(result.RemovedKeys)),
		zap.Int("changed", len(result.Changed)))
	return nil
}

// classifyPollError maps poller failures onto the run-record taxonomy.
func classifyPollError(run *metrics.RunReport, err error) {
	var createErr *poller.CreateFailedError
	var timeoutErr *poller.TimeoutError
	var notReadyErr *poller.NotReadyError
	switch {
	case errors.As(err, &createErr):
		run.Result = metrics.ResultCreateFailed
	case errors.As(err, &timeoutErr):
		run.Result = metrics.ResultTimeout
		run.LastPayload = metrics.SummarizeOutcome(timeoutErr.Last)
	case errors.As(err, &notReadyErr):
		run.Result = metrics.ResultNotReady
		run.LastPayload = metrics.SummarizeOutcome(notReadyErr.Last)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
