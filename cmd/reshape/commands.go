package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"radiomics/internal/app"
	"radiomics/internal/config"
	"radiomics/internal/dataprocessing"
	"radiomics/internal/exporter"
	"radiomics/internal/infrastructure"
	"radiomics/internal/reshape"
	"radiomics/pkg/contracts"
	"radiomics/pkg/contracts/domain"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

type transformOptions struct {
	out     string
	format  string
	sheet   string
	bom     bool
	summary bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "reshape",
		Short: "Reshape long-format radiomics exports into one row per patient",
		Long: `reshape reads a radiomics workbook (.xlsx, .xls or .csv) with one row per
patient, timepoint, object and series, and writes a wide table with one row
per patient and one column per timepoint/object/series/metric combination.

Vocabulary overrides are read from the same configuration file and
RADIOMICS_* environment variables as the web service.`,
		Version:       contracts.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "configuration file (defaults to the service lookup)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(newTransformCmd(opts), newVocabularyCmd(opts))
	return root
}

func newTransformCmd(root *rootOptions) *cobra.Command {
	opts := &transformOptions{}
	cmd := &cobra.Command{
		Use:   "transform <input>",
		Short: "Transform one workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output path (defaults to transformed_<input name> next to the input)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: csv or xlsx (defaults to the --out extension, else csv)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet to read (defaults to the configured sheet, else the first one)")
	cmd.Flags().BoolVar(&opts.bom, "bom", false, "prefix CSV output with a UTF-8 byte order mark")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print the transform summary as JSON")
	return cmd
}

func newVocabularyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vocabulary",
		Short: "Print the label order used to sort rows and columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			vocab := app.VocabularyFromConfig(cfg.Vocabulary)
			if err := vocab.Validate(); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), vocab)
		},
	}
}

func runTransform(cmd *cobra.Command, root *rootOptions, opts *transformOptions, input string) error {
	cfg, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}
	logger := infrastructure.NewLogger(cmd.ErrOrStderr(), root.logLevel)

	format, out, err := resolveOutput(input, opts.out, opts.format)
	if err != nil {
		return err
	}

	sheet := opts.sheet
	if sheet == "" {
		sheet = cfg.Upload.SheetName
	}

	reshaper, err := reshape.New(app.VocabularyFromConfig(cfg.Vocabulary))
	if err != nil {
		return fmt.Errorf("invalid vocabulary: %w", err)
	}

	long, err := dataprocessing.ReadFile(input, dataprocessing.ReadOptions{SheetName: sheet, Logger: logger})
	if err != nil {
		return err
	}
	wide, summary, err := reshaper.TransformWithSummary(long)
	if err != nil {
		return err
	}

	exportOpts := exporter.Options{
		CSV:  exporter.CSVOptions{BOMPrefix: opts.bom || cfg.Export.CSVBOM},
		XLSX: exporter.XLSXOptions{SheetName: cfg.Export.SheetName},
	}
	if err := writeOutput(out, format, wide, exportOpts); err != nil {
		return err
	}

	logger.Info("Transform complete",
		slog.String("input", input),
		slog.String("output", out),
		slog.Int("input_rows", summary.InputRows),
		slog.Int("patients", summary.Patients))

	if opts.summary {
		return writeJSON(cmd.OutOrStdout(), summary)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// resolveOutput picks the output format and path. An explicit format wins over
// the extension of out.
func resolveOutput(input, out, format string) (exporter.Format, string, error) {
	var f exporter.Format
	switch {
	case format != "":
		parsed, err := exporter.ParseFormat(format)
		if err != nil {
			return "", "", err
		}
		f = parsed
	case out != "":
		parsed, err := exporter.ParseFormat(filepath.Ext(out))
		if err != nil {
			return "", "", fmt.Errorf("cannot infer format from %q, use --format", out)
		}
		f = parsed
	default:
		f = exporter.FormatCSV
	}

	if out == "" {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		out = filepath.Join(filepath.Dir(input), "transformed_"+base+f.Extension())
	}
	return f, out, nil
}

func writeOutput(path string, format exporter.Format, t *domain.Table, opts exporter.Options) error {
	if format == exporter.FormatCSV {
		return exporter.WriteCSVFile(path, t, opts.CSV)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := exporter.Write(f, format, t, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
