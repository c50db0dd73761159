package cli

import (
	"strings"
	"testing"

	"github.com/ksyq12/converge/internal/errors"
	"github.com/ksyq12/converge/internal/executor"
	"github.com/ksyq12/converge/internal/input"
	"github.com/ksyq12/converge/internal/spec"
)

// resetCertFlags restores the cert command flag variables between tests
func resetCertFlags() {
	certEmail = ""
	certWebroot = ""
	certStandalone = false
	certName = ""
	certRenewBefore = spec.DefaultRenewBeforeDays
	certForceRenew = false
	certStaging = false
	certExtraArgs = nil
	certYes = false
	dryRun = false
}

func TestRunCertEnsure(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		email     string
		dryRun    bool
		wantErr   bool
		errCode   errors.ErrorCode
		wantCalls int
		checkCall func(*testing.T, executor.CommandCall)
	}{
		{
			name:      "issues when certificate is absent",
			args:      []string{"converge-test.invalid"},
			email:     "admin@converge-test.invalid",
			wantCalls: 1,
			checkCall: func(t *testing.T, call executor.CommandCall) {
				if call.Name != "certbot" {
					t.Errorf("expected certbot, got %s", call.Name)
				}
				if call.Args[0] != "certonly" {
					t.Errorf("expected certonly, got %s", call.Args[0])
				}
				joined := strings.Join(call.Args, " ")
				if !strings.Contains(joined, "-d converge-test.invalid") {
					t.Errorf("domain missing from args: %v", call.Args)
				}
			},
		},
		{
			name:    "missing email is a validation error",
			args:    []string{"converge-test.invalid"},
			wantErr: true,
			errCode: errors.ErrCodeValidation,
		},
		{
			name:    "invalid domain is a validation error",
			args:    []string{"-bad.example.com"},
			email:   "admin@example.com",
			wantErr: true,
			errCode: errors.ErrCodeValidation,
		},
		{
			name:      "dry run executes nothing",
			args:      []string{"converge-test.invalid"},
			email:     "admin@converge-test.invalid",
			dryRun:    true,
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCertFlags()
			defer resetCertFlags()
			certEmail = tt.email
			dryRun = tt.dryRun

			mock := &executor.MockExecutor{}
			SetDeps(&Dependencies{Executor: mock, StdinReader: input.NewStringReader()})
			defer resetDeps()

			err := runCertEnsure(certEnsureCmd, tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errCode != "" {
					var cerr *errors.ConvergeError
					if !errors.As(err, &cerr) || cerr.Code != tt.errCode {
						t.Errorf("expected code %s, got %v", tt.errCode, err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(mock.Calls) != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d: %v", tt.wantCalls, len(mock.Calls), mock.Calls)
			}
			if tt.checkCall != nil && len(mock.Calls) > 0 {
				tt.checkCall(t, mock.Calls[0])
			}
		})
	}
}

func TestRunCertEnsureCertbotMissing(t *testing.T) {
	resetCertFlags()
	defer resetCertFlags()
	certEmail = "admin@converge-test.invalid"

	mock := &executor.MockExecutor{
		LookPathFunc: func(file string) (string, error) {
			return "", errors.ErrCertbotNotInstalled
		},
	}
	SetDeps(&Dependencies{Executor: mock, StdinReader: input.NewStringReader()})
	defer resetDeps()

	err := runCertEnsure(certEnsureCmd, []string{"converge-test.invalid"})
	if !errors.Is(err, errors.ErrCertbotNotInstalled) {
		t.Errorf("expected ErrCertbotNotInstalled, got %v", err)
	}
}

func TestRunCertRemove(t *testing.T) {
	t.Run("removing an absent certificate is a no-op", func(t *testing.T) {
		resetCertFlags()
		defer resetCertFlags()
		certYes = true

		mock := &executor.MockExecutor{}
		SetDeps(&Dependencies{Executor: mock, StdinReader: input.NewStringReader()})
		defer resetDeps()

		if err := runCertRemove(certRemoveCmd, []string{"converge-test-gone.invalid"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mock.Calls) != 0 {
			t.Errorf("expected no executions, got %v", mock.Calls)
		}
	})

	t.Run("declining the prompt cancels", func(t *testing.T) {
		resetCertFlags()
		defer resetCertFlags()

		mock := &executor.MockExecutor{}
		SetDeps(&Dependencies{Executor: mock, StdinReader: input.NewStringReader("n\n")})
		defer resetDeps()

		if err := runCertRemove(certRemoveCmd, []string{"converge-test.invalid"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mock.Calls) != 0 {
			t.Errorf("expected no executions after decline, got %v", mock.Calls)
		}
	})
}

func TestRunCertStatus(t *testing.T) {
	resetCertFlags()
	defer resetCertFlags()

	mock := &executor.MockExecutor{
		Script: []executor.Result{
			{Stdout: "Found the following certs:\n  Certificate Name: converge-test.invalid\n"},
		},
	}
	SetDeps(&Dependencies{Executor: mock, StdinReader: input.NewStringReader()})
	defer resetDeps()

	if err := runCertStatus(certStatusCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Calls) == 0 || mock.Calls[0].Name != "certbot" {
		t.Fatalf("expected certbot certificates call, got %v", mock.Calls)
	}
	if mock.Calls[0].Args[0] != "certificates" {
		t.Errorf("expected certificates subcommand, got %v", mock.Calls[0].Args)
	}
}
