// Command tablecsv extracts tables from a PDF, or from a saved extraction
// response, and writes each table to a CSV file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/pdftables/internal/client"
	"github.com/JonMunkholm/pdftables/internal/core"
	"github.com/JonMunkholm/pdftables/internal/extract"
	"github.com/JonMunkholm/pdftables/internal/logging"
)

// allTables selects every table for export.
const allTables = -1

type options struct {
	Input    string
	PDF      string
	Endpoint string
	Timeout  time.Duration
	OutDir   string
	Table    int
	List     bool
	Workers  int
}

func main() {
	app := &cli.App{
		Name:  "tablecsv",
		Usage: "Export tables extracted from a PDF as CSV files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Saved extraction response (JSON) to read instead of uploading"},
			&cli.StringFlag{Name: "pdf", Usage: "PDF to upload to the extraction service"},
			&cli.StringFlag{Name: "endpoint", EnvVars: []string{"EXTRACTOR_URL", "API_URL"}, Usage: "Extraction service URL"},
			&cli.DurationFlag{Name: "timeout", Value: client.DefaultTimeout, Usage: "Extraction request timeout"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "Directory to write CSV files into"},
			&cli.IntFlag{Name: "table", Value: allTables, Usage: "Export only the table at this index (0-based)"},
			&cli.BoolFlag{Name: "list", Usage: "List tables and fields instead of exporting"},
			&cli.IntFlag{Name: "workers", Value: 4, Usage: "Tables written concurrently"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn, error"},
		},
		Action: func(c *cli.Context) error {
			slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, c.String("log-level"), "text")))

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := run(ctx, options{
				Input:    c.String("input"),
				PDF:      c.String("pdf"),
				Endpoint: c.String("endpoint"),
				Timeout:  c.Duration("timeout"),
				OutDir:   c.String("out"),
				Table:    c.Int("table"),
				List:     c.Bool("list"),
				Workers:  c.Int("workers"),
			}, c.App.Writer)
			return exitError(err)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// usageError is a bad flag combination, reported verbatim.
type usageError string

func (e usageError) Error() string { return string(e) }

// exitError shows mapped user messages for known failures and the raw
// error otherwise.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	slog.Debug("tablecsv failed", "error", err)

	var ue usageError
	switch {
	case errors.As(err, &ue):
		return cli.Exit(ue.Error(), 2)
	case core.IsUserFacing(err):
		return cli.Exit(core.FormatUserError(err), 1)
	default:
		return cli.Exit(err.Error(), 1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	raw, err := readResponse(ctx, opts)
	if err != nil {
		return err
	}

	res, err := extract.Normalize(raw)
	if err != nil {
		return err
	}

	if opts.List {
		return list(out, res)
	}
	if len(res.Tables) == 0 {
		fmt.Fprintln(out, res.Message)
		return nil
	}
	return exportTables(ctx, opts, out, res)
}

// readResponse loads a saved response, or uploads the PDF and returns the
// service's reply.
func readResponse(ctx context.Context, opts options) ([]byte, error) {
	switch {
	case opts.Input != "" && opts.PDF != "":
		return nil, usageError("--input and --pdf are mutually exclusive")
	case opts.Input != "":
		return os.ReadFile(opts.Input)
	case opts.PDF != "":
		if opts.Endpoint == "" {
			return nil, usageError("--endpoint (or EXTRACTOR_URL) is required with --pdf")
		}
		pdf, err := os.ReadFile(opts.PDF)
		if err != nil {
			return nil, err
		}
		if len(pdf) == 0 {
			return nil, fmt.Errorf("%s: %w", opts.PDF, core.ErrEmptyFile)
		}
		c := client.New(opts.Endpoint, client.WithTimeout(opts.Timeout))
		return c.Upload(ctx, filepath.Base(opts.PDF), pdf)
	default:
		return nil, usageError("one of --input or --pdf is required")
	}
}

func list(out io.Writer, res *extract.Result) error {
	if len(res.Tables) == 0 {
		fmt.Fprintln(out, res.Message)
	}
	for i, t := range res.Tables {
		cols := extract.ResolveColumns(t)
		if len(cols) == 0 {
			fmt.Fprintf(out, "%d\t%s\t%d rows\t(no columns)\n", i, t.Title, t.RowCount())
			continue
		}
		fmt.Fprintf(out, "%d\t%s\t%d rows\t%d columns\n", i, t.Title, t.RowCount(), len(cols))
	}
	if res.Fields != nil {
		for _, f := range res.Fields.All() {
			fmt.Fprintf(out, "%s: %s\n", f.Name, extract.FormatField(f.Value))
		}
	}
	return nil
}

// exportTables writes the selected tables into opts.OutDir. When every
// table is selected, columnless tables are skipped with a warning.
func exportTables(ctx context.Context, opts options, out io.Writer, res *extract.Result) error {
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return err
	}
	sink := newDirSink(opts.OutDir)

	if opts.Table != allTables {
		if opts.Table < 0 || opts.Table >= len(res.Tables) {
			return fmt.Errorf("table %d of %d: %w", opts.Table, len(res.Tables), core.ErrIndexOutOfRange)
		}
		if err := extract.Export(sink, res.Tables[opts.Table], opts.Table); err != nil {
			return err
		}
		return report(out, sink)
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, t := range res.Tables {
		if t.Columnless() {
			slog.Warn("skipping table without columns", "index", i, "title", t.Title)
			continue
		}
		dst := sink.Reserve(extract.FilenameFor(t, i))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return extract.Export(dst, t, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return report(out, sink)
}

func report(out io.Writer, sink *dirSink) error {
	for _, p := range sink.Written() {
		if _, err := fmt.Fprintln(out, p); err != nil {
			return err
		}
	}
	return nil
}
