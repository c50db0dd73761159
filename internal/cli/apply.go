package cli

import (
	"fmt"

	"github.com/ksyq12/converge/internal/errors"
	"github.com/ksyq12/converge/internal/output"
	"github.com/ksyq12/converge/internal/plan"
	"github.com/ksyq12/converge/internal/reconcile"
	"github.com/ksyq12/converge/internal/spec"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <plan.yaml>",
	Short: "Apply a declarative plan file",
	Long: `Apply a YAML plan declaring certificates and containers. The whole
plan is validated before anything touches the host, then each resource
is reconciled in order: certificates first, then containers.

Examples:
  converge apply plan.yaml
  converge apply plan.yaml --dry-run
  converge apply plan.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	doc, err := plan.Load(args[0])
	if err != nil {
		return err
	}
	if doc.Empty() {
		output.Info("Plan is empty, nothing to do")
		return nil
	}

	// Validate everything up front so a bad entry late in the file
	// cannot leave the host half-applied.
	certs := make([]*spec.CertificateRequest, 0, len(doc.Certificates))
	for i, raw := range doc.Certificates {
		req, err := spec.NormalizeCertificate(raw)
		if err != nil {
			return errors.Wrap(errors.ErrCodeValidation, fmt.Sprintf("certificates[%d] is invalid", i), err)
		}
		certs = append(certs, req)
	}
	containers := make([]*spec.ContainerSpec, 0, len(doc.Containers))
	for i, raw := range doc.Containers {
		cspec, err := spec.NormalizeContainer(raw)
		if err != nil {
			return errors.Wrap(errors.ErrCodeValidation, fmt.Sprintf("containers[%d] is invalid", i), err)
		}
		containers = append(containers, cspec)
	}

	opts := reconcileOptions(dryRun, execTimeout)
	results := make([]reconcile.Result, 0, len(certs)+len(containers))
	failures := 0

	certReconciler := reconcile.NewCertReconciler(deps.Executor)
	for _, req := range certs {
		res, err := certReconciler.Apply(req, opts)
		if err != nil {
			failures++
			output.Error("%s: %v", res.Resource, err)
		}
		results = append(results, res)
	}

	containerReconciler := reconcile.NewContainerReconciler(deps.Executor)
	for _, cspec := range containers {
		res, err := containerReconciler.Apply(cspec, opts)
		if err != nil {
			failures++
			output.Error("%s: %v", res.Resource, err)
		}
		results = append(results, res)
	}

	if jsonOutput {
		if err := output.JSON(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			_ = reportResult(res)
		}
	}

	if failures > 0 {
		return errors.Execution("apply", fmt.Sprintf("%d of %d resources failed", failures, len(results)))
	}
	return nil
}
