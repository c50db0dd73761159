package spec

import (
	"strings"

	"github.com/ksyq12/converge/internal/errors"
)

// DefaultRenewBeforeDays is the renewal window applied when the request
// does not set one.
const DefaultRenewBeforeDays = 30

// CertificateDoc is the raw, pre-normalization shape of a certificate
// resource as it appears in a plan file.
type CertificateDoc struct {
	Domains         StringOrList `yaml:"domains"`
	Domain          string       `yaml:"domain"` // accepted alias for a single domain
	Email           string       `yaml:"email"`
	Webroot         string       `yaml:"webroot"`
	Standalone      *bool        `yaml:"standalone"`
	CertName        string       `yaml:"cert_name"`
	State           string       `yaml:"state"`
	RenewBeforeDays *int         `yaml:"renew_before_days"`
	ForceRenew      bool         `yaml:"force_renew"`
	Staging         bool         `yaml:"staging"`
	ExtraArgs       StringOrList `yaml:"extra_args"`
}

// CertificateRequest is the canonical desired state for one certificate.
// The first domain is the primary one and names the certbot storage slot
// unless cert_name overrides it.
type CertificateRequest struct {
	Domains         []string
	Email           string
	Webroot         string
	Standalone      bool
	CertName        string
	State           State
	RenewBeforeDays int
	ForceRenew      bool
	Staging         bool
	ExtraArgs       []string
}

// NormalizeCertificate validates a raw certificate document and produces
// the canonical request.
func NormalizeCertificate(doc CertificateDoc) (*CertificateRequest, error) {
	state, err := normalizeState(doc.State)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}

	domains := doc.Domains
	if len(domains) == 0 && doc.Domain != "" {
		domains = []string{doc.Domain}
	}
	normalized, err := normalizeDomains(domains)
	if err != nil {
		return nil, err
	}

	req := &CertificateRequest{
		Domains:         normalized,
		Email:           strings.TrimSpace(doc.Email),
		Webroot:         doc.Webroot,
		CertName:        doc.CertName,
		State:           state,
		RenewBeforeDays: DefaultRenewBeforeDays,
		ForceRenew:      doc.ForceRenew,
		Staging:         doc.Staging,
		ExtraArgs:       doc.ExtraArgs,
	}

	if req.CertName == "" {
		req.CertName = req.Domains[0]
	}

	if state == StatePresent && req.Email == "" {
		return nil, errors.Validation("email is required when state=present")
	}

	if doc.RenewBeforeDays != nil {
		if *doc.RenewBeforeDays < 0 {
			return nil, errors.Validationf("renew_before_days must be >= 0, got %d", *doc.RenewBeforeDays)
		}
		req.RenewBeforeDays = *doc.RenewBeforeDays
	}

	// webroot and standalone are mutually exclusive challenge modes.
	// Standalone is the default when neither is given.
	explicitStandalone := doc.Standalone != nil && *doc.Standalone
	switch {
	case req.Webroot != "" && explicitStandalone:
		return nil, errors.Validation("webroot and standalone are mutually exclusive")
	case req.Webroot != "":
		req.Standalone = false
	default:
		req.Standalone = true
	}

	return req, nil
}

// normalizeDomains lowercases, validates, and deduplicates preserving the
// declared order; the first entry stays primary.
func normalizeDomains(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, errors.Validation("at least one domain is required")
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, d := range raw {
		d = strings.ToLower(strings.TrimSpace(d))
		if err := validateDomain(d); err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}

// validateDomain checks if domain is valid
func validateDomain(domain string) error {
	if domain == "" {
		return errors.Validation("domain cannot be empty")
	}
	if strings.Contains(domain, " ") {
		return errors.Validationf("domain %q cannot contain spaces", domain)
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return errors.Validationf("domain %q cannot start or end with hyphen", domain)
	}
	return nil
}
