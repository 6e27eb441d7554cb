package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/MeKo-Tech/omrscore/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
)

// decodedFile pairs one input document with its decoded result for batch
// JSON output.
type decodedFile struct {
	File   string           `json:"file"`
	Result *pipeline.Result `json:"result"`
}

// decodeCmd represents the decode command.
var decodeCmd = &cobra.Command{
	Use:   "decode [files...]",
	Short: "Decode scanned feedback sheets into rating counts and scores",
	Long: `Decode one or more scanned feedback sheets (PDF or image) into
per-subject rating counts, weighted percentages, and pass/fail results.

The subject layout comes from an explicit --subjects list or a --phase code;
an explicit list always wins.

Supported formats: PDF, PNG, JPEG, BMP, TIFF

Examples:
  omr decode scan.pdf --phase "11 jee"
  omr decode sheet.png --subjects "Physics,Chemistry,Maths"
  omr decode batch/*.pdf --phase 9 --format csv --output results.csv
  omr decode duplex.pdf --phase 10 --forms-per-page 2 --responses 40`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runDecodeCommand,
}

func runDecodeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	validFormats := []string{outputFormatText, outputFormatJSON, outputFormatCSV}
	isValid := false
	for _, f := range validFormats {
		if format == f {
			isValid = true
			break
		}
	}
	if !isValid {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(validFormats, ", "))
	}

	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}

	pl, err := buildDecodePipeline(cmd)
	if err != nil {
		return err
	}

	var (
		results []decodedFile
		failed  int
	)
	for _, path := range args {
		res, err := pl.ProcessFile(path)
		if err != nil {
			slog.Warn("decode failed", "file", path, "error", err)
			failed++
			continue
		}
		results = append(results, decodedFile{File: path, Result: res})
	}
	if len(results) == 0 {
		return fmt.Errorf("no documents decoded (%d failed)", failed)
	}

	var buf bytes.Buffer
	if err := renderResults(&buf, results, format, pl); err != nil {
		return err
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, buf.Bytes(), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
	} else {
		if _, err := buf.WriteTo(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to decode", failed, len(args))
	}
	return nil
}

// buildDecodePipeline assembles the pipeline from the centralized config with
// CLI flag overrides.
func buildDecodePipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	cfg := GetConfig()

	pCfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return nil, err
	}

	b := pipeline.FromConfig(pCfg)

	if subjectsCSV, _ := cmd.Flags().GetString("subjects"); subjectsCSV != "" {
		var subjects []string
		for _, s := range strings.Split(subjectsCSV, ",") {
			if s = strings.TrimSpace(s); s != "" {
				subjects = append(subjects, s)
			}
		}
		b = b.WithSubjects(subjects)
	}
	if phase, _ := cmd.Flags().GetString("phase"); phase != "" {
		b = b.WithPhase(phase)
	}
	if cmd.Flags().Changed("questions") {
		n, _ := cmd.Flags().GetInt("questions")
		b = b.WithExpectedQuestions(n)
	}
	if cmd.Flags().Changed("forms-per-page") {
		n, _ := cmd.Flags().GetInt("forms-per-page")
		b = b.WithFormSplitting(n)
	}
	if cmd.Flags().Changed("responses") {
		n, _ := cmd.Flags().GetInt("responses")
		b = b.WithRespondents(n)
	}
	if cmd.Flags().Changed("workers") {
		n, _ := cmd.Flags().GetInt("workers")
		b = b.WithWorkers(n)
	}
	if debugDir, _ := cmd.Flags().GetString("debug-dir"); debugDir != "" {
		b = b.WithDebugDir(debugDir)
	}
	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		b = b.WithProgress(func(done, total int) {
			slog.Info("decoding", "page", done, "of", total)
		})
	}

	pl, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return pl, nil
}

// renderResults writes the decoded batch in the requested format. Text and
// CSV blocks carry a per-file header so multi-document runs stay readable.
func renderResults(buf *bytes.Buffer, results []decodedFile, format string, pl *pipeline.Pipeline) error {
	ratings := pl.Config().Layout.Ratings

	switch format {
	case outputFormatJSON:
		return writeJSONResults(buf, results)
	case outputFormatCSV:
		for _, r := range results {
			if len(results) > 1 {
				fmt.Fprintf(buf, "# %s\n", r.File)
			}
			if err := r.Result.WriteCSV(buf, ratings); err != nil {
				return fmt.Errorf("format csv failed: %w", err)
			}
		}
	default:
		for _, r := range results {
			fmt.Fprintf(buf, "File: %s\n", r.File)
			if err := r.Result.WriteText(buf, ratings); err != nil {
				return fmt.Errorf("format text failed: %w", err)
			}
			fmt.Fprintln(buf)
		}
	}
	return nil
}

func writeJSONResults(buf *bytes.Buffer, results []decodedFile) error {
	if len(results) == 0 {
		return errors.New("no results to encode")
	}
	// A single document emits its result object directly; batches wrap
	// per-file results in an array.
	if len(results) == 1 {
		return results[0].Result.WriteJSON(buf)
	}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("format json failed: %w", err)
	}
	return nil
}

func addDecodeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format (text, json, csv)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringP("subjects", "s", "", "comma-separated subject list (overrides --phase)")
	cmd.Flags().StringP("phase", "p", "", "class/stream phase code (e.g. \"11 jee\", \"9\")")
	cmd.Flags().IntP("questions", "q", 20, "question slots per subject band")
	cmd.Flags().Int("forms-per-page", 1, "independent forms stacked on each page")
	cmd.Flags().Int("responses", 0, "total respondent count (0 = use decoded form count)")
	cmd.Flags().Int("workers", 4, "concurrent page decoding workers")
	cmd.Flags().String("calibration", "", "per-subject calibration file (YAML)")
	cmd.Flags().String("debug-dir", "", "directory to write annotated diagnostic images")
	cmd.Flags().Bool("progress", false, "log per-page decoding progress")
}

// bindDecodeFlags binds decode flags to viper configuration keys.
func bindDecodeFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"output.format", "format"},
		{"output.file", "output"},
		{"decode.expected_questions", "questions"},
		{"decode.forms_per_page", "forms-per-page"},
		{"decode.respondents", "responses"},
		{"decode.workers", "workers"},
		{"decode.calibration_file", "calibration"},
		{"decode.debug_dir", "debug-dir"},
	}

	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, cmd.Flags().Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	addDecodeFlags(decodeCmd)
	bindDecodeFlags(decodeCmd)
}

// GetDecodeCommand returns the decode command for testing purposes.
func GetDecodeCommand() *cobra.Command {
	return decodeCmd
}
