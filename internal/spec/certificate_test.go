package spec

import (
	"reflect"
	"testing"

	"github.com/ksyq12/converge/internal/errors"
)

func validCertDoc() CertificateDoc {
	return CertificateDoc{
		Domains: StringOrList{"example.com"},
		Email:   "admin@example.com",
	}
}

func TestNormalizeCertificate_Defaults(t *testing.T) {
	req, err := NormalizeCertificate(validCertDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.State != StatePresent {
		t.Errorf("state should default to present, got %v", req.State)
	}
	if req.CertName != "example.com" {
		t.Errorf("cert name should default to primary domain, got %q", req.CertName)
	}
	if req.RenewBeforeDays != 30 {
		t.Errorf("renew_before_days should default to 30, got %d", req.RenewBeforeDays)
	}
	if !req.Standalone {
		t.Error("standalone should be implied when webroot is not given")
	}
	if req.ForceRenew || req.Staging {
		t.Error("force_renew and staging should default to false")
	}
}

func TestNormalizeCertificate_Domains(t *testing.T) {
	t.Run("lowercased and deduplicated preserving order", func(t *testing.T) {
		doc := validCertDoc()
		doc.Domains = StringOrList{"WWW.Example.com", "example.com", "www.example.com"}

		req, err := NormalizeCertificate(doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"www.example.com", "example.com"}
		if !reflect.DeepEqual(req.Domains, want) {
			t.Errorf("got %v, want %v", req.Domains, want)
		}
		if req.CertName != "www.example.com" {
			t.Errorf("first domain stays primary, got cert name %q", req.CertName)
		}
	})

	t.Run("domain alias accepted", func(t *testing.T) {
		doc := validCertDoc()
		doc.Domains = nil
		doc.Domain = "single.example.com"

		req, err := NormalizeCertificate(doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(req.Domains, []string{"single.example.com"}) {
			t.Errorf("got %v", req.Domains)
		}
	})

	t.Run("empty domain list rejected", func(t *testing.T) {
		doc := validCertDoc()
		doc.Domains = nil

		_, err := NormalizeCertificate(doc)
		if !errors.Is(err, errors.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("malformed domain rejected", func(t *testing.T) {
		doc := validCertDoc()
		doc.Domains = StringOrList{"-bad.example.com"}

		if _, err := NormalizeCertificate(doc); err == nil {
			t.Error("expected error for leading hyphen")
		}
	})
}

func TestNormalizeCertificate_ChallengeMode(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }

	t.Run("webroot selects webroot mode", func(t *testing.T) {
		doc := validCertDoc()
		doc.Webroot = "/var/www/html"

		req, err := NormalizeCertificate(doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Standalone {
			t.Error("webroot request must not be standalone")
		}
	})

	t.Run("explicit standalone with webroot rejected", func(t *testing.T) {
		doc := validCertDoc()
		doc.Webroot = "/var/www/html"
		doc.Standalone = boolPtr(true)

		_, err := NormalizeCertificate(doc)
		if !errors.Is(err, errors.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("explicit standalone false with webroot is fine", func(t *testing.T) {
		doc := validCertDoc()
		doc.Webroot = "/var/www/html"
		doc.Standalone = boolPtr(false)

		req, err := NormalizeCertificate(doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Standalone {
			t.Error("expected webroot mode")
		}
	})
}

func TestNormalizeCertificate_Email(t *testing.T) {
	t.Run("required when present", func(t *testing.T) {
		doc := validCertDoc()
		doc.Email = ""

		_, err := NormalizeCertificate(doc)
		if !errors.Is(err, errors.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("not required when absent", func(t *testing.T) {
		doc := validCertDoc()
		doc.Email = ""
		doc.State = "absent"

		if _, err := NormalizeCertificate(doc); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestNormalizeCertificate_RenewBeforeDays(t *testing.T) {
	intPtr := func(n int) *int { return &n }

	t.Run("explicit zero accepted", func(t *testing.T) {
		doc := validCertDoc()
		doc.RenewBeforeDays = intPtr(0)

		req, err := NormalizeCertificate(doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.RenewBeforeDays != 0 {
			t.Errorf("explicit 0 must not fall back to default, got %d", req.RenewBeforeDays)
		}
	})

	t.Run("negative rejected", func(t *testing.T) {
		doc := validCertDoc()
		doc.RenewBeforeDays = intPtr(-1)

		if _, err := NormalizeCertificate(doc); err == nil {
			t.Error("expected error for negative renew_before_days")
		}
	})
}
