// Package cli implements the `pageconv` command surface with cobra, one
// file per verb and a package-level *cobra.Command wired by init(), the
// same organisation as the teacher's internal/adapters/driving/cli.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/pageconv/pageconv/internal/core/domain"
	"github.com/pageconv/pageconv/internal/core/ports/driving"
	"github.com/pageconv/pageconv/internal/logger"
)

// version is set by the build (ldflags) or defaults to "dev".
var version = "dev"

// ConverterFactory builds a driving.Converter bound to one input PDF, plus
// a closer to release the adapters (the headless renderer, the PDF
// document handle) that factory opened. The CLI needs this indirection
// because a Converter's Ingestor is bound to a specific file, which is
// only known once `convert <path>` runs, not at process startup.
type ConverterFactory func(pdfPath string, settings domain.ConvertSettings) (driving.Converter, func() error, error)

// newConverter and credentialChecker are injected by main.go before
// Execute is called; the CLI package itself never constructs an adapter.
var (
	newConverter      ConverterFactory
	credentialChecker driving.CredentialChecker
	baseSettings      domain.ConvertSettings
)

var rootCmd = &cobra.Command{
	Use:   "pageconv",
	Short: "Convert PDF pages into pixel-faithful HTML",
	Long: `pageconv renders each page of a PDF as HTML, iteratively refining it
against a vision-model fidelity judge until it meets a target score or a
retry budget runs out.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "print progress for every iteration")
}

// Init wires the CLI's driving-port dependencies. Called once from
// cmd/pageconv/main.go before Execute.
func Init(factory ConverterFactory, checker driving.CredentialChecker, settings domain.ConvertSettings, buildVersion string) {
	newConverter = factory
	credentialChecker = checker
	baseSettings = settings
	if buildVersion != "" {
		version = buildVersion
	}
}

// exitCode holds the process exit code for whatever Execute just ran,
// beyond the plain success/failure that its returned error already
// conveys: `convert` sets it to 2 when the run completed but left one or
// more pages best-effort (spec §6), the only case that isn't either 0
// (full success) or a non-nil error (reported by main.go as 1).
var exitCode int

// Execute runs the CLI, returning any error from the matched command.
func Execute() error {
	exitCode = 0
	return rootCmd.Execute()
}

// ExitCode reports the process exit code for the run Execute just
// completed. Only meaningful when Execute returned a nil error; main.go
// always exits 1 on a non-nil error regardless of this value.
func ExitCode() int {
	return exitCode
}
