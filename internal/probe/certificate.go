package probe

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ksyq12/converge/internal/errors"
	"github.com/ksyq12/converge/internal/executor"
	"github.com/ksyq12/converge/internal/logger"
)

// letsencryptLiveDir is where certbot stores the live certificate for
// each cert name.
const letsencryptLiveDir = "/etc/letsencrypt/live"

// opensslEnddateLayout matches the notAfter timestamp openssl prints,
// e.g. "Sep  9 12:00:00 2026 GMT".
const opensslEnddateLayout = "Jan _2 15:04:05 2006 MST"

// ObservedCertificate is a point-in-time observation of one certificate
// slot on the host.
type ObservedCertificate struct {
	Exists bool
	Expiry time.Time
	// Domains holds the certificate's SANs, lowercased. Empty when the
	// certificate could not be parsed; callers fall back to the expiry
	// check alone in that case.
	Domains []string
}

// CertProber reads certificate state through the executor and the
// filesystem.
type CertProber struct {
	exec    executor.CommandExecutor
	liveDir string
	timeout time.Duration
}

// NewCertProber creates a prober against the default letsencrypt live
// directory.
func NewCertProber(exec executor.CommandExecutor) *CertProber {
	return &CertProber{
		exec:    exec,
		liveDir: letsencryptLiveDir,
		timeout: 30 * time.Second,
	}
}

// NewCertProberWithDir creates a prober against a custom live directory
// (for testing).
func NewCertProberWithDir(exec executor.CommandExecutor, liveDir string) *CertProber {
	return &CertProber{
		exec:    exec,
		liveDir: liveDir,
		timeout: 30 * time.Second,
	}
}

// CertPath returns the on-disk path of the live certificate for a cert name.
func (p *CertProber) CertPath(certName string) string {
	return filepath.Join(p.liveDir, certName, "cert.pem")
}

// Probe observes the certificate stored under certName. A missing
// certificate path is a normal observation, not an error.
func (p *CertProber) Probe(certName string) (ObservedCertificate, error) {
	path := p.CertPath(certName)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ObservedCertificate{Exists: false}, nil
		}
		return ObservedCertificate{}, errors.Probe(certName, err)
	}

	expiry, err := p.readExpiry(certName, path)
	if err != nil {
		return ObservedCertificate{}, err
	}

	obs := ObservedCertificate{
		Exists:  true,
		Expiry:  expiry,
		Domains: p.readDomains(path),
	}
	logger.DebugFields("observed certificate", map[string]interface{}{
		"cert_name": certName,
		"expiry":    obs.Expiry.Format(time.RFC3339),
		"domains":   strings.Join(obs.Domains, ","),
	})
	return obs, nil
}

// readExpiry asks openssl for the certificate's notAfter timestamp.
func (p *CertProber) readExpiry(certName, path string) (time.Time, error) {
	res, err := p.exec.Run("openssl", []string{"x509", "-enddate", "-noout", "-in", path}, p.timeout)
	if err != nil {
		return time.Time{}, errors.Probe(certName, err)
	}
	if res.ExitCode != 0 {
		return time.Time{}, errors.Probef(certName, "openssl x509 failed: %s", strings.TrimSpace(res.Stderr))
	}

	line := strings.TrimSpace(res.Stdout)
	if line == "" {
		line = strings.TrimSpace(res.Stderr)
	}
	line = strings.TrimPrefix(line, "notAfter=")

	expiry, err := time.Parse(opensslEnddateLayout, line)
	if err != nil {
		return time.Time{}, errors.Probef(certName, "cannot parse expiry %q", line)
	}
	return expiry, nil
}

// List returns the cert names certbot currently manages, parsed from
// `certbot certificates` output.
func (p *CertProber) List() ([]string, error) {
	res, err := p.exec.Run("certbot", []string{"certificates"}, p.timeout)
	if err != nil {
		return nil, errors.Probe("certificates", err)
	}
	if res.ExitCode != 0 {
		return nil, errors.Probef("certificates", "certbot certificates failed: %s", strings.TrimSpace(res.Stderr))
	}

	var names []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.Contains(line, "Certificate Name:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				names = append(names, strings.TrimSpace(parts[1]))
			}
		}
	}
	return names, nil
}

// readDomains extracts the SANs from the PEM file. Failure here is
// non-fatal: renewal decisions fall back to the expiry check.
func (p *CertProber) readDomains(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("cannot read certificate %s: %v", path, err)
		return nil
	}

	block, _ := pem.Decode(data)
	if block == nil {
		logger.Warn("no PEM block in %s", path)
		return nil
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		logger.Warn("cannot parse certificate %s: %v", path, err)
		return nil
	}

	domains := make([]string, 0, len(cert.DNSNames))
	for _, name := range cert.DNSNames {
		domains = append(domains, strings.ToLower(name))
	}
	if len(domains) == 0 && cert.Subject.CommonName != "" {
		domains = append(domains, strings.ToLower(cert.Subject.CommonName))
	}
	return domains
}
