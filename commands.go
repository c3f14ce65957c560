package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dpf-ci/dpf-version/pkg/compare"
	"github.com/dpf-ci/dpf-version/pkg/config"
	"github.com/dpf-ci/dpf-version/pkg/docs"
	"github.com/dpf-ci/dpf-version/pkg/history"
	"github.com/dpf-ci/dpf-version/pkg/logger"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
	"github.com/dpf-ci/dpf-version/pkg/report"
	"github.com/dpf-ci/dpf-version/pkg/snapshot"
	"github.com/dpf-ci/dpf-version/pkg/store"
	"github.com/dpf-ci/dpf-version/pkg/updater"
	"github.com/dpf-ci/dpf-version/pkg/utils"
	"github.com/dpf-ci/dpf-version/pkg/validator"
	"github.com/dpf-ci/dpf-version/pkg/versionconfig"
)

// Version information variables (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// NewSnapshotCommand creates a new snapshot command
func NewSnapshotCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "snapshot [source]",
		Short: "Extract a configuration snapshot",
		Long:  "Extract the API versions, helm charts and tracked files of a manifest tree (default: the project root) and print or save it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			source := cfg.Project.Root
			if len(args) == 1 {
				source = args[0]
			}
			return runSnapshot(cmd.Context(), cfg, source, output, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the snapshot to this file instead of stdout")
	return cmd
}

// NewCompareCommand creates a new compare command
func NewCompareCommand() *cobra.Command {
	opts := compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare <old> <new>",
		Short: "Compare two DPF versions",
		Long: "Compare two sources and report API, helm chart and tracked file changes. " +
			"A source is a manifest tree directory, a saved snapshot .json or a saved documentation .html page.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.oldSource, opts.newSource = args[0], args[1]
			return runCompare(cmd.Context(), config.GetConfig(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.oldVersion, "old-version", "", "Label of the old version (e.g., v25.1.1)")
	cmd.Flags().StringVar(&opts.newVersion, "new-version", "", "Label of the new version (e.g., v25.4.0)")
	cmd.Flags().StringVar(&opts.format, "format", "markdown", "Report format: markdown or json")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Shorthand for --format json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to this file instead of stdout")
	return cmd
}

// NewUpdateCommand creates a new update command
func NewUpdateCommand() *cobra.Command {
	opts := updateOptions{}
	cmd := &cobra.Command{
		Use:   "update <version>",
		Short: "Update the manifest tree to a DPF version",
		Long: "Rewrite service template chart versions, operator image tags and optionally other image tags " +
			"to the target version, validate the touched files and record the new version",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.target = args[0]
			return runUpdate(cmd.Context(), config.GetConfig(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&opts.components, "components", nil, "Components to update (default from config: ovn-kubernetes, flannel)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show what would be updated without making changes")
	cmd.Flags().StringVar(&opts.projectRoot, "project-root", "", "Project root directory (default from config)")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Write the update report to this file instead of stdout")
	cmd.Flags().StringVar(&opts.format, "format", "markdown", "Report format: markdown or json")
	cmd.Flags().StringArrayVar(&opts.imageMappings, "rewrite-images", nil, "Rewrite image tags old=new across all manifests (repeatable)")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Publish the update report to the configured store")
	return cmd
}

// NewDocsCommand creates a new docs command
func NewDocsCommand() *cobra.Command {
	opts := docsOptions{}
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Analyze the DPF reference deployment guide",
		Long:  "Fetch (or read) the reference deployment guide, extract its configuration and optionally compare it with a saved snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocs(cmd.Context(), config.GetConfig(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", "", "Documentation URL (default from config)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Read a saved documentation page instead of fetching")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Skip the documentation cache")
	cmd.Flags().StringVar(&opts.compareWith, "compare", "", "Compare with a saved snapshot .json")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().StringVar(&opts.saveDir, "save-dir", "", "Directory the extracted snapshot is saved in (default: the docs cache directory)")
	return cmd
}

// NewHistoryCommand creates a new history command
func NewHistoryCommand() *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded update runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), config.GetConfig(), limit, asJSON, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// NewVersionCommand creates a new version command
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version, build commit, and build time information",
		Run: func(cmd *cobra.Command, args []string) {
			runVersion(cmd.OutOrStdout())
		},
	}

	return cmd
}

// runVersion displays version information
func runVersion(w io.Writer) {
	fmt.Fprintf(w, "DPF Version Tool\n")
	fmt.Fprintf(w, "Version: %s\n", Version)
	fmt.Fprintf(w, "Git Commit: %s\n", GitCommit)
	fmt.Fprintf(w, "Build Time: %s\n", BuildTime)
}

// runSnapshot extracts a snapshot of source and writes it as JSON
func runSnapshot(ctx context.Context, cfg *config.Config, source, output string, stdout io.Writer) error {
	log := logger.GetLoggerFromContext(ctx)
	loader := compare.NewLoader(log, cfg.SnapshotOptions(trackedFiles(ctx, cfg, source)))
	snap, err := loader.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to extract snapshot from %s: %w", source, err)
	}
	data, err := snap.Marshal()
	if err != nil {
		return err
	}
	return writeOutput(output, data, stdout, log)
}

type compareOptions struct {
	oldSource  string
	newSource  string
	oldVersion string
	newVersion string
	format     string
	json       bool
	output     string
}

// runCompare loads both sources, diffs them and renders the comparison report
func runCompare(ctx context.Context, cfg *config.Config, opts compareOptions, stdout io.Writer) error {
	log := logger.GetLoggerFromContext(ctx)
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.json {
		format = report.FormatJSON
	}

	tracked := trackedFiles(ctx, cfg, opts.newSource)
	if len(tracked) == 0 {
		tracked = trackedFiles(ctx, cfg, opts.oldSource)
	}
	loader := compare.NewLoader(log, cfg.SnapshotOptions(tracked))
	comparison, err := loader.Compare(ctx, opts.oldSource, opts.newSource, opts.oldVersion, opts.newVersion)
	if err != nil {
		return err
	}

	var buf strings.Builder
	if err := report.WriteComparison(&buf, comparison, format); err != nil {
		return err
	}
	if opts.output != "" {
		report.PrintComparisonSummary(stdout, comparison)
	}
	return writeOutput(opts.output, []byte(buf.String()), stdout, log)
}

type updateOptions struct {
	target        string
	components    []string
	dryRun        bool
	projectRoot   string
	reportPath    string
	format        string
	imageMappings []string
	publish       bool
}

// runUpdate applies the target version to the project tree, validates the touched files,
// renders the report and records the run. It returns an error when any file failed or
// validation did not pass.
func runUpdate(ctx context.Context, cfg *config.Config, opts updateOptions, stdout io.Writer) error {
	log := logger.GetLoggerFromContext(ctx)
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	root := cfg.Project.Root
	if opts.projectRoot != "" {
		root = opts.projectRoot
	}
	if absRoot, err := filepath.Abs(root); err == nil {
		root = absRoot
	}
	if !utils.DirectoryExists(filepath.Join(root, "manifests")) {
		return fmt.Errorf("manifests directory not found in %s", root)
	}

	mapping, err := updater.ParseImageMapping(opts.imageMappings)
	if err != nil {
		return err
	}

	storeOpts := cfg.StoreOptions()
	storeOpts.Root = root
	blobs, err := store.Open(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	tree := manifest.NewDirTree(root)
	versions := versionconfig.NewStore(blobs, cfg.Project.VersionConfigPath, log)
	applierOpts := cfg.UpdaterOptions()
	applierOpts.DryRun = opts.dryRun
	applierOpts.ImageTagMapping = mapping

	result, applyErr := updater.NewApplier(tree, versions, log, applierOpts).Apply(ctx, opts.target, opts.components)
	if result == nil {
		return applyErr
	}

	var validationErr error
	if !opts.dryRun {
		validationErr = validator.New(tree, log).Validate(ctx, result.Records)
	}

	runID := uuid.NewString()
	updateReport := &report.UpdateReport{
		GeneratedAt: time.Now(),
		RunID:       runID,
		Result:      result,
	}
	if validationErr != nil {
		updateReport.ValidationError = validationErr.Error()
	}

	report.PrintUpdateSummary(stdout, result, validationErr)

	var buf strings.Builder
	if err := report.WriteUpdate(&buf, updateReport, format); err != nil {
		return err
	}
	if err := writeOutput(opts.reportPath, []byte(buf.String()), stdout, log); err != nil {
		return err
	}

	reportLocation := ""
	if opts.publish {
		key := path.Join(cfg.Project.ReportDir, "update-"+runID+format.Extension())
		if err := blobs.Put(ctx, key, []byte(buf.String())); err != nil {
			log.Warnf("Failed to publish update report: %v", err)
		} else {
			reportLocation = blobs.Location(key)
			fmt.Fprintf(stdout, "Report published to: %s\n", reportLocation)
		}
	}

	recordRun(ctx, cfg, runID, result, validationErr, reportLocation, log)

	switch {
	case applyErr != nil:
		return applyErr
	case validationErr != nil:
		return fmt.Errorf("validation failed, some files may be corrupted: %w", validationErr)
	case result.HasFailures():
		return fmt.Errorf("failed to update %d files: %s", len(result.Failed), strings.Join(result.FailedPaths(), ", "))
	}
	return nil
}

// recordRun appends the run to the history ledger; ledger failures are logged only
func recordRun(ctx context.Context, cfg *config.Config, runID string, result *updater.Result, validationErr error, reportLocation string, log *logrus.Logger) {
	if cfg.History.Disabled {
		return
	}
	ledger, err := history.Open(cfg.History.Path)
	if err != nil {
		log.Warnf("Failed to open update history at %s: %v", cfg.History.Path, err)
		return
	}
	defer func() {
		_ = ledger.Close()
	}()

	run := history.NewRun(result, validationErr)
	run.RunID = runID
	run.ReportLocation = reportLocation
	if _, err := ledger.Record(ctx, run); err != nil {
		log.Warnf("Failed to record update run: %v", err)
		return
	}
	log.Debugf("Recorded update run %s", runID)
}

type docsOptions struct {
	url         string
	file        string
	noCache     bool
	compareWith string
	json        bool
	output      string
	saveDir     string
}

// runDocs extracts a documentation snapshot, reports it or its changes against a saved
// snapshot, and saves it for future comparisons
func runDocs(ctx context.Context, cfg *config.Config, opts docsOptions, stdout io.Writer) error {
	log := logger.GetLoggerFromContext(ctx)
	format := report.FormatMarkdown
	if opts.json {
		format = report.FormatJSON
	}

	url := opts.url
	if url == "" {
		url = cfg.Docs.URL
	}

	var content []byte
	location := url
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("failed to read documentation page %s: %w", opts.file, err)
		}
		content, location = data, opts.file
	} else {
		fetcher, err := docs.NewFetcher(log, cfg.DocsOptions())
		if err != nil {
			return err
		}
		data, origin, err := fetcher.Fetch(ctx, url, !opts.noCache)
		if err != nil {
			return err
		}
		log.Debugf("Documentation served from %s", origin)
		content = data
	}

	current, err := snapshot.NewDocumentExtractor(log).Extract(location, content)
	if err != nil {
		return err
	}

	var buf strings.Builder
	if opts.compareWith != "" {
		loader := compare.NewLoader(log, cfg.SnapshotOptions(nil))
		saved, err := loader.Load(ctx, opts.compareWith)
		if err != nil {
			return fmt.Errorf("failed to load saved snapshot: %w", err)
		}
		comparison := compare.Build(saved, current, "", "")
		if err := report.WriteComparison(&buf, comparison, format); err != nil {
			return err
		}
	} else if err := report.WriteSnapshot(&buf, current, time.Now(), format); err != nil {
		return err
	}
	if err := writeOutput(opts.output, []byte(buf.String()), stdout, log); err != nil {
		return err
	}

	saveDir := opts.saveDir
	if saveDir == "" {
		saveDir = cfg.Docs.CacheDir
	}
	savedPath, err := saveDocsSnapshot(current, saveDir, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\nConfiguration saved to: %s\n", savedPath)
	return nil
}

// saveDocsSnapshot writes snap as rdg-config-YYYYMMDD.json in dir
func saveDocsSnapshot(snap *snapshot.ConfigSnapshot, dir string, now time.Time) (string, error) {
	data, err := snap.Marshal()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	p := filepath.Join(dir, "rdg-config-"+now.Format("20060102")+".json")
	if err := utils.WriteFileAtomic(p, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return p, nil
}

// runHistory prints the most recent update runs
func runHistory(ctx context.Context, cfg *config.Config, limit int, asJSON bool, stdout io.Writer) error {
	ledger, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open update history: %w", err)
	}
	defer func() {
		_ = ledger.Close()
	}()

	runs, err := ledger.List(ctx, limit)
	if err != nil {
		return err
	}
	if asJSON {
		return report.WriteJSON(stdout, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No update runs recorded")
		return nil
	}

	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	for _, run := range runs {
		status := ok("ok")
		if !run.OK() {
			status = bad("failed")
		}
		mode := ""
		if run.DryRun {
			mode = " (dry run)"
		}
		fmt.Fprintf(stdout, "%s  %s  %s -> %s%s  updated=%d failed=%d skipped=%d  %s\n",
			run.CreatedAt().Format("2006-01-02 15:04:05"), run.RunID,
			orDash(run.PreviousVersion), run.TargetVersion, mode,
			run.Succeeded, run.Failed, run.Skipped, status)
	}
	return nil
}

// trackedFiles returns the version-sensitive files named by the version config under
// source, when source is a project directory holding one
func trackedFiles(ctx context.Context, cfg *config.Config, source string) []string {
	if len(cfg.Compare.TrackedFiles) > 0 || !utils.DirectoryExists(source) {
		return nil
	}
	vc, err := versionconfig.NewStore(store.NewFileStore(source), cfg.Project.VersionConfigPath, logger.GetLoggerFromContext(ctx)).Load(ctx)
	if err != nil {
		return nil
	}
	return vc.VersionSensitiveFiles
}

// writeOutput writes data to dest, or to stdout when dest is empty
func writeOutput(dest string, data []byte, stdout io.Writer, log *logrus.Logger) error {
	if dest == "" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := utils.WriteFileAtomic(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	log.Infof("Report saved to: %s", dest)
	fmt.Fprintf(stdout, "\nReport saved to: %s\n", dest)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
