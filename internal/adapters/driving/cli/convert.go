package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pageconv/pageconv/internal/core/domain"
)

var convertCmd = &cobra.Command{
	Use:   "convert <pdf>",
	Short: "Convert a PDF's pages into fidelity-refined HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var (
	flagPages     string
	flagDPI       int
	flagTarget    int
	flagMaxRetry  int
	flagOutputDir string
	flagLanguage  string
	flagDirection string
	flagForce     bool
	flagQuiet     bool
)

func init() {
	convertCmd.Flags().StringVar(&flagPages, "pages", "", "1-based page numbers or ranges (e.g. 1,3,5 or 1-3); default all pages")
	convertCmd.Flags().IntVar(&flagDPI, "dpi", 0, "rasterization DPI (default from config)")
	convertCmd.Flags().IntVar(&flagTarget, "target", 0, "fidelity score required to accept a page (default from config)")
	convertCmd.Flags().IntVar(&flagMaxRetry, "max-retries", 0, "maximum refinement iterations per page (default from config)")
	convertCmd.Flags().StringVar(&flagOutputDir, "output", "", "output directory (default alongside the input PDF)")
	convertCmd.Flags().StringVar(&flagLanguage, "language", "", "override the detected primary language")
	convertCmd.Flags().StringVar(&flagDirection, "direction", "", "override the detected text direction (ltr, rtl, auto)")
	convertCmd.Flags().BoolVar(&flagForce, "force", false, "reprocess pages that already have a final.html")
	convertCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "suppress the end-of-run summary table")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if newConverter == nil {
		return errors.New("converter not configured")
	}

	pdfPath := args[0]
	settings := applyConvertFlags(baseSettings)

	conv, closer, err := newConverter(pdfPath, settings)
	if err != nil {
		return fmt.Errorf("preparing converter: %w", err)
	}
	defer closer()

	job := domain.ConversionJob{
		ID:             uuid.New().String(),
		DocumentName:   documentNameFromPath(pdfPath),
		RequestedPages: nil, // Loop.Convert defaults this to every page when left empty
		Target:         settings.Target,
		MaxRetries:     settings.MaxRetries,
	}

	if flagPages != "" {
		pages, err := parsePageList(flagPages)
		if err != nil {
			return fmt.Errorf("parsing --pages: %w", err)
		}
		job.RequestedPages = pages
	}

	summary, err := conv.Convert(cmd.Context(), job)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if summary.PagesPassed < summary.PagesProcessed {
		exitCode = 2
	}

	if !flagQuiet {
		printSummary(cmd, summary)
	}
	return nil
}

func applyConvertFlags(base domain.ConvertSettings) domain.ConvertSettings {
	settings := base
	if flagDPI > 0 {
		settings.DPI = flagDPI
	}
	if flagTarget > 0 {
		settings.Target = flagTarget
	}
	if flagMaxRetry > 0 {
		settings.MaxRetries = flagMaxRetry
	}
	if flagOutputDir != "" {
		settings.OutputDir = flagOutputDir
	}
	if flagLanguage != "" {
		settings.LanguageOverride = flagLanguage
	}
	if d := domain.TextDirection(flagDirection); d.IsValid() {
		settings.DirectionOverride = d
	}
	settings.Force = flagForce
	settings.Quiet = flagQuiet
	return settings
}

// parsePageList parses a 1-based page-number spec like "1,3,5" or "1-3"
// (spec.md §6: "--pages P (range spec "1", "1-3", "1,3,5"; 1-based)") into
// 0-based page indices, e.g. "1,3-4" -> []int{0,2,3}.
func parsePageList(spec string) ([]int, error) {
	var pages []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := parsePageNumber(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("invalid range %q: %w", part, err)
			}
			end, err := parsePageNumber(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("invalid range %q: %w", part, err)
			}
			for i := start; i <= end; i++ {
				pages = append(pages, i-1)
			}
			continue
		}
		n, err := parsePageNumber(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q: %w", part, err)
		}
		pages = append(pages, n-1)
	}
	return pages, nil
}

// parsePageNumber parses and validates one 1-based page number, rejecting
// 0 and negative values (there is no page 0 in the --pages contract).
func parsePageNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("page numbers are 1-based, got %d", n)
	}
	return n, nil
}

func documentNameFromPath(path string) string {
	base := path
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		base = path[idx+1:]
	}
	return base
}

func printSummary(cmd *cobra.Command, summary domain.Summary) {
	cmd.Printf("\n%s\n", summary.DocumentName)
	cmd.Printf("  pages processed: %d\n", summary.PagesProcessed)
	cmd.Printf("  pages passed:    %d\n", summary.PagesPassed)
	cmd.Printf("  avg iterations:  %.1f\n", summary.AverageIterations)
	if summary.Cost.TotalCostUSD > 0 {
		cmd.Printf("  estimated cost:  $%.4f (%d calls)\n", summary.Cost.TotalCostUSD, len(summary.Cost.Calls))
	}
	for _, result := range summary.Results {
		status := "ok"
		if !result.Success {
			status = "best-effort"
		}
		cmd.Printf("  page %03d: %s, score %d, %d iteration(s)\n", result.PageIndex, status, result.FinalScore, result.IterationsRun)
	}
}
