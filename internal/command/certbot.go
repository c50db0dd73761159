package command

import "github.com/ksyq12/converge/internal/spec"

// CertbotEnsure builds the certonly invocation that issues or renews the
// requested certificate. certbot itself is idempotent under
// --keep-until-expiring; the same vector serves both Issue and Renew.
func CertbotEnsure(req *spec.CertificateRequest) Invocation {
	args := []string{
		"certonly",
		"--non-interactive",
		"--agree-tos",
		"--keep-until-expiring",
		"--email", req.Email,
		"--cert-name", req.CertName,
	}

	if req.Standalone {
		args = append(args, "--standalone")
	} else {
		args = append(args, "--webroot", "-w", req.Webroot)
	}

	if req.ForceRenew {
		args = append(args, "--force-renewal")
	}
	if req.Staging {
		args = append(args, "--staging")
	}

	for _, domain := range req.Domains {
		args = append(args, "-d", domain)
	}
	args = append(args, req.ExtraArgs...)

	return Invocation{Program: "certbot", Args: args}
}

// CertbotDelete builds the invocation that removes a certificate slot.
func CertbotDelete(certName string) Invocation {
	return Invocation{
		Program: "certbot",
		Args:    []string{"delete", "--cert-name", certName, "--non-interactive"},
	}
}
