package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/ksyq12/converge/internal/output"
	"github.com/ksyq12/converge/internal/probe"
	"github.com/ksyq12/converge/internal/reconcile"
	"github.com/ksyq12/converge/internal/spec"
	"github.com/spf13/cobra"
)

var (
	certEmail       string
	certWebroot     string
	certStandalone  bool
	certName        string
	certRenewBefore int
	certForceRenew  bool
	certStaging     bool
	certExtraArgs   []string
	certYes         bool
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Manage Let's Encrypt certificates",
	Long:  `Manage Let's Encrypt certificates via certbot.`,
}

var certEnsureCmd = &cobra.Command{
	Use:   "ensure <domain>...",
	Short: "Ensure a certificate exists and is not close to expiry",
	Long: `Ensure a certificate covering the given domains exists and is renewed
when it enters the renewal window. The first domain is the primary one
and names the certificate slot unless --cert-name overrides it.

Examples:
  converge cert ensure example.com --email admin@example.com
  converge cert ensure example.com www.example.com -e admin@example.com --webroot /var/www/html
  converge cert ensure example.com -e admin@example.com --renew-before 14 --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCertEnsure,
}

var certRemoveCmd = &cobra.Command{
	Use:     "remove <cert-name>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a certificate",
	Long: `Remove a certificate slot from the host. Removing a certificate that
does not exist is not an error.

Examples:
  converge cert remove example.com
  converge cert rm example.com --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runCertRemove,
}

var certStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show certificates known to certbot",
	Long: `List the certificate slots certbot manages on this host, with their
expiry dates.

Examples:
  converge cert status
  converge cert status --json`,
	Args: cobra.NoArgs,
	RunE: runCertStatus,
}

func init() {
	certEnsureCmd.Flags().StringVarP(&certEmail, "email", "e", "", "Registration email (required)")
	certEnsureCmd.Flags().StringVar(&certWebroot, "webroot", "", "Webroot path for the HTTP challenge")
	certEnsureCmd.Flags().BoolVar(&certStandalone, "standalone", false, "Use certbot's standalone challenge server")
	certEnsureCmd.Flags().StringVar(&certName, "cert-name", "", "Certificate slot name (defaults to the primary domain)")
	certEnsureCmd.Flags().IntVar(&certRenewBefore, "renew-before", spec.DefaultRenewBeforeDays, "Renew when fewer than this many days remain")
	certEnsureCmd.Flags().BoolVar(&certForceRenew, "force-renew", false, "Renew regardless of expiry")
	certEnsureCmd.Flags().BoolVar(&certStaging, "staging", false, "Use the Let's Encrypt staging environment")
	certEnsureCmd.Flags().StringArrayVar(&certExtraArgs, "extra-arg", nil, "Extra argument passed through to certbot (repeatable)")

	certRemoveCmd.Flags().BoolVarP(&certYes, "yes", "y", false, "Skip the confirmation prompt")

	certCmd.AddCommand(certEnsureCmd)
	certCmd.AddCommand(certRemoveCmd)
	certCmd.AddCommand(certStatusCmd)
	rootCmd.AddCommand(certCmd)
}

func runCertEnsure(cmd *cobra.Command, args []string) error {
	renewBefore := certRenewBefore
	doc := spec.CertificateDoc{
		Domains:         args,
		Email:           certEmail,
		Webroot:         certWebroot,
		CertName:        certName,
		RenewBeforeDays: &renewBefore,
		ForceRenew:      certForceRenew,
		Staging:         certStaging,
		ExtraArgs:       certExtraArgs,
	}
	if certStandalone {
		standalone := true
		doc.Standalone = &standalone
	}

	req, err := spec.NormalizeCertificate(doc)
	if err != nil {
		return err
	}

	r := reconcile.NewCertReconciler(deps.Executor)
	res, err := r.Apply(req, reconcileOptions(dryRun, execTimeout))
	if err != nil {
		return err
	}
	return reportResult(res)
}

func runCertRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	if !confirmRemoval("certificate '"+name+"'", certYes) {
		return nil
	}

	req := &spec.CertificateRequest{
		Domains:  []string{name},
		CertName: name,
		State:    spec.StateAbsent,
	}

	r := reconcile.NewCertReconciler(deps.Executor)
	res, err := r.Apply(req, reconcileOptions(dryRun, execTimeout))
	if err != nil {
		return err
	}
	return reportResult(res)
}

// CertStatus is one row of the cert status report
type CertStatus struct {
	Name     string   `json:"name"`
	Expiry   string   `json:"expiry,omitempty"`
	DaysLeft int      `json:"days_left,omitempty"`
	Domains  []string `json:"domains,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func runCertStatus(cmd *cobra.Command, args []string) error {
	prober := probe.NewCertProber(deps.Executor)

	names, err := prober.List()
	if err != nil {
		return err
	}

	statuses := make([]CertStatus, 0, len(names))
	for _, name := range names {
		st := CertStatus{Name: name}
		obs, err := prober.Probe(name)
		switch {
		case err != nil:
			st.Error = err.Error()
		case obs.Exists:
			st.Expiry = obs.Expiry.Format(time.RFC3339)
			st.DaysLeft = int(time.Until(obs.Expiry).Hours() / 24)
			st.Domains = obs.Domains
		}
		statuses = append(statuses, st)
	}

	if jsonOutput {
		return output.JSON(statuses)
	}

	if len(statuses) == 0 {
		output.Info("No certificates found")
		return nil
	}

	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		expiry := st.Expiry
		days := fmt.Sprintf("%d", st.DaysLeft)
		if st.Error != "" {
			expiry = "error: " + st.Error
			days = "-"
		}
		rows = append(rows, []string{st.Name, expiry, days, strings.Join(st.Domains, ", ")})
	}
	output.Table([]string{"NAME", "EXPIRY", "DAYS LEFT", "DOMAINS"}, rows)
	return nil
}
