package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coolbeans/ctlcat/pkg/api"
	"github.com/coolbeans/ctlcat/pkg/catalog"
	"github.com/coolbeans/ctlcat/pkg/config"
	"github.com/coolbeans/ctlcat/pkg/controlid"
	"github.com/coolbeans/ctlcat/pkg/logging"
	"github.com/coolbeans/ctlcat/pkg/outline"
	"github.com/coolbeans/ctlcat/pkg/part"
	"github.com/coolbeans/ctlcat/pkg/source"
	"github.com/coolbeans/ctlcat/pkg/watch"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "ctlcat",
		Short: "Control statement catalog converter",
		Long: `ctlcat converts spreadsheet control baselines into structured
control catalogs.

Control statements written with positional markers are rebuilt into
their outline:
  (a) top level
  1. second level
  a. third level`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (console, json, pretty)")

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads --config (if any) and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	if f := cmd.Flags().Lookup("title"); f != nil && f.Changed {
		cfg.Title = f.Value.String()
	}
	if f := cmd.Flags().Lookup("on-error"); f != nil && f.Changed {
		cfg.OnStructuralError = catalog.ErrorPolicy(f.Value.String())
	}
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if f := cmd.Flags().Lookup("encoding"); f != nil && f.Changed {
		cfg.Source.Encoding = f.Value.String()
	}
	if f := cmd.Flags().Lookup("skip-rows"); f != nil && f.Changed {
		cfg.Source.SkipRows, _ = cmd.Flags().GetInt("skip-rows")
	}
	if f := cmd.Flags().Lookup("trim-continuation"); f != nil && f.Changed {
		cfg.TrimContinuation, _ = cmd.Flags().GetBool("trim-continuation")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config, name string) (logging.Logger, error) {
	provider, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return provider.Named(name), nil
}

func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("title", "t", "", "Catalog title")
	cmd.Flags().String("on-error", "", "Structural error policy (abort, skip, prose)")
	cmd.Flags().Int("workers", 0, "Concurrent statement parsers (0 = GOMAXPROCS)")
	cmd.Flags().String("encoding", "", "Source encoding (utf-8, windows-1252, iso-8859-1)")
	cmd.Flags().Int("skip-rows", 0, "Leading rows to skip in each source")
	cmd.Flags().Bool("trim-continuation", false, "Trim continuation lines joined into prose")
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [sources...]",
		Short: "Convert control sheets into a catalog",
		Long: `Convert one or more CSV exports of a control workbook into a JSON
control catalog. Sources may be paths or doublestar globs.

Example:
  ctlcat convert --title "ARS 5.0" controls.csv
  ctlcat convert -t "ARS 5.0" --on-error skip --output catalog.json 'sheets/**/*.csv'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			validate, _ := cmd.Flags().GetBool("validate")
			showReport, _ := cmd.Flags().GetBool("report")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Title) == "" {
				return fmt.Errorf("--title flag is required")
			}
			// The catalog goes to stdout; keep it free of routine log lines.
			if output == "" && !cmd.Flags().Changed("log-level") {
				cfg.Log.Level = "error"
			}
			log, err := newLogger(cfg, "convert")
			if err != nil {
				return err
			}

			files, err := source.Expand(args)
			if err != nil {
				return err
			}

			doc, report, err := convertFiles(cmd.Context(), cfg, log, files)
			if err != nil {
				return err
			}

			if validate {
				if err := catalog.Validate(doc); err != nil {
					return err
				}
			}

			if err := writeDocument(doc, output, cmd.OutOrStdout()); err != nil {
				return err
			}

			if showReport {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding report: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), string(data))
			}
			return nil
		},
	}

	addConversionFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Bool("validate", false, "Validate the catalog against the bundled schema")
	cmd.Flags().Bool("report", false, "Print a conversion report to stderr")

	return cmd
}

// convertFiles reads every file in order and builds one catalog.
func convertFiles(ctx context.Context, cfg config.Config, log logging.Logger, files []string) (*catalog.Document, *catalog.Report, error) {
	reader, err := source.NewReader(cfg.Source)
	if err != nil {
		return nil, nil, err
	}

	var rows []source.Row
	for _, file := range files {
		fileRows, err := reader.ReadFile(file)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("read source", "path", file, "rows", len(fileRows))
		rows = append(rows, fileRows...)
	}

	builder, err := catalog.NewBuilder(cfg.BuilderOptions(log))
	if err != nil {
		return nil, nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return builder.Build(ctx, rows)
}

func writeDocument(doc *catalog.Document, output string, stdout io.Writer) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	data = append(data, '\n')

	if output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write output %s: %w", output, err)
	}
	return nil
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a single control statement",
		Long: `Parse one control statement from a file (or stdin) and print its
statement part as JSON, or the outline tree with --tree.

Example:
  ctlcat parse --control-id AC-2 statement.txt
  echo "(a) Do this" | ctlcat parse --id ctl-1 --tree`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			controlID, _ := cmd.Flags().GetString("control-id")
			showTree, _ := cmd.Flags().GetBool("tree")
			asProse, _ := cmd.Flags().GetBool("orphans-as-prose")
			trim, _ := cmd.Flags().GetBool("trim-continuation")

			if id == "" && controlID != "" {
				id = controlid.StatementID(controlID)
			}
			if id == "" {
				return fmt.Errorf("--id or --control-id flag is required")
			}

			var data []byte
			var err error
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("reading statement: %w", err)
			}

			opts := []outline.Option{outline.WithTrimContinuation(trim)}
			if asProse {
				opts = append(opts, outline.WithOrphanPolicy(outline.OrphanAsProse))
			}
			root, err := outline.NewParser(opts...).Parse(string(data), id)
			if err != nil {
				var serr *outline.StructuralError
				if errors.As(err, &serr) {
					return fmt.Errorf("statement %s: %w", id, serr)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if showTree {
				printTree(out, root)
				return nil
			}
			encoded, err := json.MarshalIndent(part.Statement(root, id), "", "  ")
			if err != nil {
				return fmt.Errorf("encoding statement: %w", err)
			}
			fmt.Fprintln(out, string(encoded))
			return nil
		},
	}

	cmd.Flags().String("id", "", "Statement id used as the part id prefix")
	cmd.Flags().String("control-id", "", "Control id to derive the statement id from")
	cmd.Flags().Bool("tree", false, "Print the outline tree instead of JSON")
	cmd.Flags().Bool("orphans-as-prose", false, "Keep markers without a parent as prose")
	cmd.Flags().Bool("trim-continuation", false, "Trim continuation lines joined into prose")

	return cmd
}

func printTree(w io.Writer, root *outline.Node) {
	root.Walk(func(path []string, n *outline.Node) bool {
		indent := strings.Repeat("  ", len(path))
		label := n.Label
		if len(path) > 0 {
			label = strings.Join(path, ".")
		}
		prose, ok := n.Prose()
		if !ok {
			fmt.Fprintf(w, "%s%s\n", indent, label)
			return true
		}
		lines := strings.Split(prose, "\n")
		fmt.Fprintf(w, "%s%s: %s\n", indent, label, lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(w, "%s  | %s\n", indent, line)
		}
		return true
	})
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Re-convert control sheets when they change",
		Long: `Watch directories for changed control sheets and convert each
changed sheet into <output-dir>/<name>.json.

Example:
  ctlcat watch --title "ARS 5.0" --output-dir catalogs sheets/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output-dir")
			patterns, _ := cmd.Flags().GetStringSlice("pattern")
			debounce, _ := cmd.Flags().GetDuration("debounce")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Title) == "" {
				return fmt.Errorf("--title flag is required")
			}
			log, err := newLogger(cfg, "watch")
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", outputDir, err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(watch.Config{
				Dirs:     args,
				Patterns: patterns,
				Debounce: debounce,
				Logger:   log,
			}, func(path string) {
				doc, report, err := convertFiles(ctx, cfg, log, []string{path})
				if err != nil {
					log.Error("conversion failed", "path", path, "error", err)
					return
				}
				base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				target := filepath.Join(outputDir, base+".json")
				if err := writeDocument(doc, target, nil); err != nil {
					log.Error("write failed", "path", target, "error", err)
					return
				}
				log.Info("catalog written", "source", path, "output", target,
					"controls", report.Controls, "skipped", len(report.Skipped))
			})
			if err != nil {
				return err
			}

			log.Info("watching", "dirs", strings.Join(args, ","), "patterns", strings.Join(patterns, ","))
			return w.Run(ctx)
		},
	}

	addConversionFlags(cmd)
	cmd.Flags().String("output-dir", "catalogs", "Directory for converted catalogs")
	cmd.Flags().StringSlice("pattern", []string{"*.csv"}, "Doublestar patterns selecting watched files")
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before re-converting")

	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Long: `Serve statement parsing and catalog conversion over HTTP.

Endpoints:
  GET  /health
  POST /api/statements   {"control_id": "AC-2", "text": "..."}
  POST /api/catalogs?title=...   (CSV body)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, "api")
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(cfg, log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	addConversionFlags(cmd)
	cmd.Flags().String("addr", ":8080", "Listen address")

	return cmd
}
