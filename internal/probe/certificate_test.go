package probe

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ksyq12/converge/internal/errors"
	"github.com/ksyq12/converge/internal/executor"
)

// writeTestCert writes a self-signed certificate with the given SANs into
// liveDir/<certName>/cert.pem.
func writeTestCert(t *testing.T, liveDir, certName string, dnsNames []string, notAfter time.Time) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: dnsNames[0]},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("creating certificate: %v", err)
	}

	dir := filepath.Join(liveDir, certName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(filepath.Join(dir, "cert.pem"), certPEM, 0o644); err != nil {
		t.Fatalf("writing cert: %v", err)
	}
}

func TestCertProber_Probe_NotFound(t *testing.T) {
	mock := &executor.MockExecutor{}
	prober := NewCertProberWithDir(mock, t.TempDir())

	obs, err := prober.Probe("example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Exists {
		t.Error("missing cert path should observe Exists=false")
	}
	if len(mock.Calls) != 0 {
		t.Errorf("no commands should run for a missing cert, got %d", len(mock.Calls))
	}
}

func TestCertProber_Probe_Existing(t *testing.T) {
	liveDir := t.TempDir()
	notAfter := time.Date(2026, time.September, 9, 12, 0, 0, 0, time.UTC)
	writeTestCert(t, liveDir, "example.com", []string{"Example.COM", "www.example.com"}, notAfter)

	mock := &executor.MockExecutor{
		Script: []executor.Result{
			{Stdout: "notAfter=Sep  9 12:00:00 2026 GMT\n"},
		},
	}
	prober := NewCertProberWithDir(mock, liveDir)

	obs, err := prober.Probe("example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !obs.Exists {
		t.Fatal("expected Exists=true")
	}
	if !obs.Expiry.Equal(notAfter) {
		t.Errorf("expiry = %v, want %v", obs.Expiry, notAfter)
	}
	if want := []string{"example.com", "www.example.com"}; !reflect.DeepEqual(obs.Domains, want) {
		t.Errorf("domains = %v, want %v", obs.Domains, want)
	}

	if len(mock.Calls) != 1 || mock.Calls[0].Name != "openssl" {
		t.Fatalf("expected one openssl call, got %+v", mock.Calls)
	}
	wantArgs := []string{"x509", "-enddate", "-noout", "-in", filepath.Join(liveDir, "example.com", "cert.pem")}
	if !reflect.DeepEqual(mock.Calls[0].Args, wantArgs) {
		t.Errorf("openssl args = %v, want %v", mock.Calls[0].Args, wantArgs)
	}
}

func TestCertProber_Probe_OpensslFails(t *testing.T) {
	liveDir := t.TempDir()
	writeTestCert(t, liveDir, "example.com", []string{"example.com"}, time.Now().Add(24*time.Hour))

	mock := &executor.MockExecutor{
		Script: []executor.Result{
			{ExitCode: 1, Stderr: "unable to load certificate"},
		},
	}
	prober := NewCertProberWithDir(mock, liveDir)

	_, err := prober.Probe("example.com")
	if !errors.Is(err, errors.ErrProbe) {
		t.Errorf("openssl failure must surface as probe error, got %v", err)
	}
}

func TestCertProber_Probe_UnparseableExpiry(t *testing.T) {
	liveDir := t.TempDir()
	writeTestCert(t, liveDir, "example.com", []string{"example.com"}, time.Now().Add(24*time.Hour))

	mock := &executor.MockExecutor{
		Script: []executor.Result{
			{Stdout: "notAfter=not a date\n"},
		},
	}
	prober := NewCertProberWithDir(mock, liveDir)

	_, err := prober.Probe("example.com")
	if !errors.Is(err, errors.ErrProbe) {
		t.Errorf("bad expiry must surface as probe error, got %v", err)
	}
}

func TestCertProber_Probe_PaddedDay(t *testing.T) {
	liveDir := t.TempDir()
	writeTestCert(t, liveDir, "example.com", []string{"example.com"}, time.Now().Add(24*time.Hour))

	// openssl pads single-digit days with a space
	mock := &executor.MockExecutor{
		Script: []executor.Result{
			{Stdout: "notAfter=Dec 25 06:30:00 2026 GMT\n"},
		},
	}
	prober := NewCertProberWithDir(mock, liveDir)

	obs, err := prober.Probe("example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, time.December, 25, 6, 30, 0, 0, time.UTC)
	if !obs.Expiry.Equal(want) {
		t.Errorf("expiry = %v, want %v", obs.Expiry, want)
	}
}

func TestCertProber_Probe_CorruptPEMStillObserves(t *testing.T) {
	liveDir := t.TempDir()
	dir := filepath.Join(liveDir, "example.com")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cert.pem"), []byte("not a pem"), 0o644); err != nil {
		t.Fatal(err)
	}

	mock := &executor.MockExecutor{
		Script: []executor.Result{
			{Stdout: "notAfter=Sep  9 12:00:00 2026 GMT\n"},
		},
	}
	prober := NewCertProberWithDir(mock, liveDir)

	obs, err := prober.Probe("example.com")
	if err != nil {
		t.Fatalf("SAN parse failure must be non-fatal, got %v", err)
	}
	if !obs.Exists {
		t.Error("expected Exists=true")
	}
	if len(obs.Domains) != 0 {
		t.Errorf("expected no domains for corrupt PEM, got %v", obs.Domains)
	}
}
