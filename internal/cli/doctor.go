package cli

import (
	"regexp"
	"time"

	"github.com/ksyq12/converge/internal/output"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the required host tools are available",
	Long: `Run diagnostic checks on the host.

Checks:
  - certbot installation (certificate reconciliation)
  - docker installation (container reconciliation)
  - openssl installation (certificate expiry probing)

Examples:
  converge doctor
  converge doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// CheckResult represents a single diagnostic check result
type CheckResult struct {
	Status  string `json:"status"` // "success", "warning", "error"
	Message string `json:"message"`
}

// DoctorReport contains all diagnostic results
type DoctorReport struct {
	Tools []CheckResult `json:"tools"`
}

const versionProbeTimeout = 10 * time.Second

var versionPattern = regexp.MustCompile(`(\d+\.\d+(\.\d+)?)`)

func runDoctor(cmd *cobra.Command, args []string) error {
	tools := []struct {
		binary      string
		versionArgs []string
		purpose     string
	}{
		{"certbot", []string{"--version"}, "certificate reconciliation"},
		{"docker", []string{"--version"}, "container reconciliation"},
		{"openssl", []string{"version"}, "certificate expiry probing"},
	}

	report := &DoctorReport{}
	for _, tool := range tools {
		if _, err := deps.Executor.LookPath(tool.binary); err != nil {
			report.Tools = append(report.Tools, CheckResult{
				Status:  "warning",
				Message: tool.binary + " not found (" + tool.purpose + " unavailable)",
			})
			continue
		}

		version := "unknown"
		if res, err := deps.Executor.Run(tool.binary, tool.versionArgs, versionProbeTimeout); err == nil && res.ExitCode == 0 {
			out := res.Stdout
			if out == "" {
				out = res.Stderr
			}
			if m := versionPattern.FindString(out); m != "" {
				version = m
			}
		}
		report.Tools = append(report.Tools, CheckResult{
			Status:  "success",
			Message: tool.binary + " " + version + " (" + tool.purpose + ")",
		})
	}

	if jsonOutput {
		return output.JSON(report)
	}

	output.Info("Host tools:")
	for _, check := range report.Tools {
		switch check.Status {
		case "success":
			output.Success("%s", check.Message)
		case "warning":
			output.Warn("%s", check.Message)
		default:
			output.Error("%s", check.Message)
		}
	}
	return nil
}
