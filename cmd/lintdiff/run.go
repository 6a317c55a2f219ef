package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/accrava/lintdiff/internal/audit"
	"github.com/accrava/lintdiff/internal/changes"
	"github.com/accrava/lintdiff/internal/config"
	"github.com/accrava/lintdiff/internal/engine"
	"github.com/accrava/lintdiff/internal/git"
	"github.com/accrava/lintdiff/internal/ignore"
	"github.com/accrava/lintdiff/internal/lint"
	"github.com/accrava/lintdiff/internal/logger"
	"github.com/accrava/lintdiff/internal/report"
	"github.com/accrava/lintdiff/internal/telemetry"
)

type runFlags struct {
	base            string
	mergeBase       string
	repo            string
	tip             string
	format          string
	lintConfig      string
	rubocop         string
	diffFile        string
	noColor         bool
	logLevel        string
	record          string
	timeout         string
	traceExporter   string
	metricsTextfile string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.base, "base", "b", config.DefaultBase, "base revision")
	fl.StringVarP(&f.mergeBase, "merge-base", "m", "", "use merge-base(REV, tip) as the base")
	fl.StringVarP(&f.repo, "repository", "r", config.DefaultRepo, "path inside the repository")
	fl.StringVarP(&f.tip, "tip", "t", config.DefaultTip, "tip revision")
	fl.StringVarP(&f.format, "format", "f", config.DefaultFormat, "output format: progress, json or github")
	fl.StringVarP(&f.lintConfig, "config", "c", "", "RuboCop config file (default <repo>/.rubocop.yml)")
	fl.StringVar(&f.rubocop, "rubocop", "", "RuboCop command (default: bin/rubocop, bundle exec rubocop, then $PATH)")
	fl.StringVar(&f.diffFile, "diff-file", "", "read a unified diff from FILE instead of diffing revisions (- for stdin)")
	fl.BoolVar(&f.noColor, "no-color", false, "disable coloured output")
	fl.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	fl.StringVar(&f.record, "record", "", "append a JSON line describing the run to FILE")
	fl.StringVar(&f.timeout, "timeout", config.DefaultTimeout.String(), "per-file RuboCop timeout")
	fl.StringVar(&f.traceExporter, "trace-exporter", config.DefaultTracer, "trace exporter: none or stdout")
	fl.StringVar(&f.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to FILE at exit (- for stderr)")
}

// layer returns the flags the user actually set.
func (f *runFlags) layer(cmd *cobra.Command) config.FileConfig {
	changed := cmd.Flags().Changed
	str := func(name, v string) *string {
		if !changed(name) {
			return nil
		}
		return &v
	}
	var c config.FileConfig
	c.Base = str("base", f.base)
	c.MergeBase = str("merge-base", f.mergeBase)
	c.Tip = str("tip", f.tip)
	c.Format = str("format", f.format)
	c.LintConfig = str("config", f.lintConfig)
	c.RuboCop = str("rubocop", f.rubocop)
	c.DiffFile = str("diff-file", f.diffFile)
	c.LogLevel = str("log-level", f.logLevel)
	c.Record = str("record", f.record)
	c.Timeout = str("timeout", f.timeout)
	c.TraceExporter = str("trace-exporter", f.traceExporter)
	c.MetricsTextfile = str("metrics-textfile", f.metricsTextfile)
	if changed("no-color") {
		v := f.noColor
		c.NoColor = &v
	}
	return c
}

// loadOptions reads every configuration layer.
func loadOptions(cmd *cobra.Command, f *runFlags) (config.Options, error) {
	repo := f.repo
	if repo == "" {
		repo = config.DefaultRepo
	}
	layers, err := fileLayers(repo)
	if err != nil {
		return config.Options{}, err
	}
	return config.Resolve(repo, append([]config.FileConfig{f.layer(cmd)}, layers...)...)
}

// fileLayers returns the local, global and environment layers, highest
// precedence first. The local file is looked up at the root of the
// repository containing repo, falling back to repo itself outside one.
func fileLayers(repo string) ([]config.FileConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	env, err := config.LoadEnv(cwd)
	if err != nil {
		return nil, err
	}
	dir := repo
	if r, err := git.Open(repo); err == nil {
		dir = r.Workdir()
	}
	local, err := config.LoadLocal(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	global, err := config.LoadGlobal()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return []config.FileConfig{local, global, env}, nil
}

func runLint(cmd *cobra.Command, f *runFlags) error {
	opts, err := loadOptions(cmd, f)
	if err != nil {
		return err
	}
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	log := logger.New(opts.LogLevel, stderr, report.ColorEnabled(stderr, opts.NoColor))
	formatter, err := report.New(opts.Format, stdout, report.Options{
		Color: report.ColorEnabled(stdout, opts.NoColor),
	})
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Init(cmd.Context(), telemetryConfig(opts, stderr))
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warnf("telemetry shutdown: %v", err)
		}
	}()

	ctx, span := otel.Tracer("lintdiff").Start(cmd.Context(), "lintdiff.run")
	defer span.End()

	in, err := collectChanges(ctx, cmd.InOrStdin(), opts, log)
	if err != nil {
		return err
	}
	span.SetAttributes(
		attribute.String("lintdiff.base", in.rev.BaseCommit),
		attribute.String("lintdiff.tip", in.rev.TipCommit),
		attribute.Int("lintdiff.files_changed", in.set.Len()),
	)

	log = log.With("repo", in.workdir)

	ign, err := ignore.Load(in.workdir)
	if err != nil {
		return err
	}

	bm := lint.NewBinaryManager(opts.RuboCop, in.workdir)
	rubocop, err := bm.Find()
	if err != nil {
		return err
	}
	rv, err := bm.Check(ctx, rubocop, lint.MinRuboCopVersion)
	if err != nil {
		return err
	}
	log.Debugf("using %s (RuboCop %s)", rubocop, rv)

	lopts := []lint.Option{
		lint.WithWorkdir(in.workdir),
		lint.WithTimeout(opts.Timeout),
		lint.WithLogger(log.Zerolog()),
	}
	if opts.LintConfig != "" {
		cfgPath, err := filepath.Abs(opts.LintConfig)
		if err != nil {
			return err
		}
		lopts = append(lopts, lint.WithConfigFile(cfgPath))
	}

	res, err := engine.Run(ctx, engine.Input{
		Changes:   in.set,
		Ignore:    ign,
		Linter:    lint.NewRuboCop(rubocop, lopts...),
		Formatter: formatter,
		Log:       log.Zerolog(),
	})
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("lintdiff.offenses", res.Offenses), attribute.Bool("lintdiff.success", res.Success))

	if opts.Record != "" {
		rec := audit.NewRunRecord(in.rev, in.set, res)
		if err := audit.NewRunLog(opts.Record).Append(rec); err != nil {
			log.Warnf("recording run: %v", err)
		}
	}

	switch {
	case !res.Success:
		return exitCodeError{code: exitOffenses}
	case res.Failed > 0:
		return exitCodeError{code: exitError}
	}
	return nil
}

type changeInput struct {
	set     *changes.Set
	workdir string
	rev     audit.Revisions
}

// collectChanges computes the changed lines, either from the repository or
// from a unified diff given with --diff-file.
func collectChanges(ctx context.Context, stdin io.Reader, opts config.Options, log *logger.Logger) (changeInput, error) {
	repo, openErr := git.Open(opts.Repo)

	if opts.DiffFile != "" {
		workdir, err := filepath.Abs(opts.Repo)
		if err != nil {
			return changeInput{}, err
		}
		if openErr == nil {
			workdir = repo.Workdir()
		}
		r := stdin
		if opts.DiffFile != "-" {
			fh, err := os.Open(opts.DiffFile)
			if err != nil {
				return changeInput{}, err
			}
			defer fh.Close()
			r = fh
		}
		set, err := changes.FromUnifiedDiff(r, workdir)
		if err != nil {
			return changeInput{}, err
		}
		return changeInput{set: set, workdir: workdir, rev: audit.Revisions{Repo: workdir, Base: opts.DiffFile}}, nil
	}

	if openErr != nil {
		return changeInput{}, openErr
	}
	spec := git.RangeSpec{Base: opts.Base, MergeBase: opts.MergeBase, Tip: opts.Tip}
	if !opts.BaseExplicit {
		spec.BaseFallbacks = []string{"master"}
	}
	base, tip, err := repo.ResolveRange(spec)
	if err != nil {
		return changeInput{}, err
	}
	log.Debugf("diffing %s..%s", base.Hash, tip.Hash)

	set, err := repo.ChangedLines(ctx, base, tip)
	if err != nil {
		return changeInput{}, err
	}
	baseName := opts.Base
	if opts.MergeBase != "" {
		baseName = "merge-base(" + opts.MergeBase + ")"
	}
	return changeInput{
		set:     set,
		workdir: repo.Workdir(),
		rev: audit.Revisions{
			Repo:       repo.Workdir(),
			Base:       baseName,
			Tip:        opts.Tip,
			BaseCommit: base.Hash.String(),
			TipCommit:  tip.Hash.String(),
		},
	}, nil
}

func telemetryConfig(opts config.Options, stderr io.Writer) telemetry.Config {
	cfg := telemetry.Config{
		ServiceName:    "lintdiff",
		ServiceVersion: version,
		TraceExporter:  opts.TraceExporter,
		MetricExporter: "none",
		Writer:         stderr,
	}
	switch opts.MetricsTextfile {
	case "":
	case "-":
		cfg.MetricExporter = "stdout"
	default:
		cfg.MetricExporter = "textfile"
		cfg.MetricsTextfile = opts.MetricsTextfile
	}
	return cfg
}
