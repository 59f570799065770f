package cli

import (
	"errors"
	"os/exec"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configured provider credentials and renderer availability",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if credentialChecker == nil {
		return errors.New("credential checker not configured")
	}

	ok := true
	cmd.Println("providers:")
	for _, result := range credentialChecker.CheckAll(cmd.Context()) {
		if result.Reachable {
			cmd.Printf("  %-10s %-10s ok\n", result.Role, result.Provider)
			continue
		}
		ok = false
		cmd.Printf("  %-10s %-10s FAILED: %s\n", result.Role, result.Provider, result.Err)
	}

	cmd.Println("renderer:")
	if path, err := exec.LookPath("chromium"); err == nil {
		cmd.Printf("  chromium     ok (%s)\n", path)
	} else if path, err := exec.LookPath("google-chrome"); err == nil {
		cmd.Printf("  google-chrome ok (%s)\n", path)
	} else {
		ok = false
		cmd.Println("  FAILED: no chromium or google-chrome binary found on PATH")
	}

	if !ok {
		return errors.New("one or more checks failed")
	}
	cmd.Println("\nall checks passed")
	return nil
}
