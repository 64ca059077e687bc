package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/artifact"
	"github.com/ankit-chaubey/picscrub/core/classify"
	"github.com/ankit-chaubey/picscrub/core/job"
	"github.com/ankit-chaubey/picscrub/core/meta"
	"github.com/ankit-chaubey/picscrub/core/report"
	"github.com/ankit-chaubey/picscrub/core/scrub"
	"github.com/ankit-chaubey/picscrub/web"
)

const usage = `Usage:
  picscrub view  [-all] [-json] [-xlsx report.xlsx] <image>...
  picscrub clean [-out dir] [-keep key,...] [-v] [-json] <image>...
  picscrub serve
  picscrub formats

Environment: PICSCRUB_ADDR, PICSCRUB_OUT_DIR, PICSCRUB_MAX_UPLOAD_BYTES,
PICSCRUB_LOG_LEVEL, PICSCRUB_LOG_FORMAT, PICSCRUB_SHUTDOWN_TIMEOUT`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg := core.LoadConfig()
	if err := cfg.Validate(); err != nil {
		core.PrintError(err.Error())
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "view":
		err = runView(args)
	case "clean":
		err = runClean(cfg, logger, args)
	case "serve":
		err = runServe(cfg, logger)
	case "formats":
		runFormats()
	case "-h", "--help", "help":
		fmt.Println(usage)
	default:
		err = fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
	if err != nil {
		core.PrintError(err.Error())
		os.Exit(1)
	}
}

// ─── view ────────────────────────────────────────────────────────────────────

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	all := fs.Bool("all", false, "list every tag")
	jsonOut := fs.Bool("json", false, "print JSON")
	xlsx := fs.String("xlsx", "", "also write a metadata report workbook")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("view needs at least one file")
	}

	p := core.NewPrinter(*jsonOut, *all)
	var entries []report.Entry
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		c := classify.Classify(meta.Extract(data))
		format := core.DetectFormat(data)
		p.PrintReport(core.Report{
			File:   path,
			Format: format,
			Size:   int64(len(data)),
			Fields: c.Fields,
			Tags:   c.All,
		})
		entries = append(entries, report.Entry{
			File:           filepath.Base(path),
			Format:         format,
			Size:           int64(len(data)),
			Classification: c,
		})
	}

	if *xlsx == "" {
		return nil
	}
	f, err := os.Create(*xlsx)
	if err != nil {
		return err
	}
	if err := report.Write(f, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	p.PrintInfo("report written to " + *xlsx)
	return nil
}

// ─── clean ───────────────────────────────────────────────────────────────────

// dirSink writes each delivered download into a directory.
type dirSink struct {
	dir string

	mu    sync.Mutex
	paths map[string]string // job ID → written path
}

func (s *dirSink) save(_ context.Context, d job.Download) error {
	path := filepath.Join(s.dir, d.Name)
	if err := os.WriteFile(path, d.Data, 0o644); err != nil {
		return err
	}
	s.mu.Lock()
	s.paths[d.JobID.String()] = path
	s.mu.Unlock()
	return nil
}

func parseKeep(s string) ([]core.OptionKey, error) {
	var keys []core.OptionKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, ok := core.ParseOptionKey(part)
		if !ok {
			return nil, fmt.Errorf("unknown option %q", part)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func runClean(cfg *core.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	out := fs.String("out", cfg.Output.Dir, "output directory")
	keep := fs.String("keep", "", "comma-separated options to keep enabled; others applicable are disabled")
	verbose := fs.Bool("v", false, "show inferred options")
	jsonOut := fs.Bool("json", false, "print JSON")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("clean needs at least one file")
	}

	var keepKeys []core.OptionKey
	if *keep != "" {
		var err error
		if keepKeys, err = parseKeep(*keep); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	var files []core.SourceFile
	for _, path := range fs.Args() {
		name := filepath.Base(path)
		if !core.Accepts(name, "") {
			core.PrintError("unsupported file type: " + path)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, core.SourceFile{Name: name, MIME: core.MIMEForName(name), Data: data})
	}
	if len(files) == 0 {
		return errors.New("no supported files")
	}

	sink := &dirSink{dir: *out, paths: make(map[string]string)}
	store := artifact.NewStore()
	m := job.NewManager(meta.NewExtractor(logger), scrub.NewCleaner(logger), store,
		job.WithLogger(logger), job.WithDownload(sink.save))
	defer m.Close()

	m.AddFiles(files)
	m.Wait()

	p := core.NewPrinter(*jsonOut, *verbose)
	for _, j := range m.List() {
		if keepKeys != nil {
			want := core.NewOptionSet(keepKeys...)
			for _, k := range j.Applicable.Keys() {
				_ = m.SetOption(j.ID, k, want.Has(k))
			}
			j, _ = m.Get(j.ID)
		}
		p.PrintOptions(j.Source.Name, j.Options, j.Applicable)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runErr := m.RunAll(ctx)

	jobs := m.List()
	failed := 0
	for _, j := range jobs {
		if j.State != job.StateProcessed {
			failed++
			core.PrintError("Failed to process " + j.Source.Name)
			continue
		}
		sink.mu.Lock()
		path := sink.paths[j.ID.String()]
		sink.mu.Unlock()
		p.PrintResult(j.Source.Name, path, j.Result)
	}
	if runErr != nil {
		logger.Debug("batch errors", "error", runErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(jobs))
	}
	return nil
}

// ─── serve ───────────────────────────────────────────────────────────────────

func runServe(cfg *core.Config, logger *slog.Logger) error {
	store := artifact.NewStore()
	m := job.NewManager(meta.NewExtractor(logger), scrub.NewCleaner(logger), store, job.WithLogger(logger))
	defer m.Close()

	app, err := web.NewApp(logger, m, store, cfg.Server.MaxUploadBytes)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Printf("picscrub running at http://%s\n", cfg.Server.Addr)
	return app.Serve(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
}

// ─── formats ─────────────────────────────────────────────────────────────────

func runFormats() {
	for _, f := range core.AcceptedFormats() {
		fmt.Printf("  %-20s %s\n", f.MIME, strings.Join(f.Extensions, " "))
	}
}
