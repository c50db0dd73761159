package reconcile

import (
	"time"

	"github.com/ksyq12/converge/internal/command"
	"github.com/ksyq12/converge/internal/errors"
	"github.com/ksyq12/converge/internal/executor"
	"github.com/ksyq12/converge/internal/logger"
	"github.com/ksyq12/converge/internal/probe"
	"github.com/ksyq12/converge/internal/spec"
)

// DefaultExecTimeout is the watchdog applied to mutating executions when
// the caller does not set one. certbot in particular can legitimately
// take minutes to answer a challenge.
const DefaultExecTimeout = 10 * time.Minute

// Options adjusts a single reconciliation call.
type Options struct {
	// DryRun computes the full decision but skips every mutating
	// execution. Read-only probes still run so the report is accurate.
	DryRun bool

	// Timeout is the watchdog around each mutating execution.
	// Zero means DefaultExecTimeout.
	Timeout time.Duration

	// Now overrides the clock for the expiry comparison (testing).
	Now func() time.Time
}

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultExecTimeout
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Result is what one reconciliation call reports back.
type Result struct {
	Resource string `json:"resource"`
	Changed  bool   `json:"changed"`
	Action   string `json:"action"`
	Message  string `json:"message"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// CertReconciler converges one certificate slot.
type CertReconciler struct {
	exec   executor.CommandExecutor
	prober *probe.CertProber
}

// NewCertReconciler creates a reconciler against the default letsencrypt
// live directory.
func NewCertReconciler(exec executor.CommandExecutor) *CertReconciler {
	return &CertReconciler{
		exec:   exec,
		prober: probe.NewCertProber(exec),
	}
}

// NewCertReconcilerWithProber creates a reconciler with a custom prober
// (for testing).
func NewCertReconcilerWithProber(exec executor.CommandExecutor, prober *probe.CertProber) *CertReconciler {
	return &CertReconciler{exec: exec, prober: prober}
}

// Apply probes, decides, and executes for one certificate request.
func (r *CertReconciler) Apply(req *spec.CertificateRequest, opts Options) (Result, error) {
	result := Result{Resource: "cert/" + req.CertName, Action: string(ActionNoop), DryRun: opts.DryRun}

	if _, err := r.exec.LookPath("certbot"); err != nil {
		return result, errors.ErrCertbotNotInstalled
	}

	obs, err := r.prober.Probe(req.CertName)
	if err != nil {
		return result, err
	}

	decision := DecideCertificate(req, obs, opts.now())
	result.Action = string(decision.Action)
	result.Changed = decision.Changed()
	result.Message = decision.Reason
	logger.InfoFields("certificate decision", map[string]interface{}{
		"cert_name": req.CertName,
		"action":    decision.Action,
		"reason":    decision.Reason,
	})

	if opts.DryRun || decision.Action == ActionNoop {
		return result, nil
	}

	var inv command.Invocation
	switch decision.Action {
	case ActionIssue, ActionRenew:
		inv = command.CertbotEnsure(req)
	case ActionRemove:
		inv = command.CertbotDelete(req.CertName)
	}

	if err := execute(r.exec, inv, opts.timeout()); err != nil {
		return result, err
	}
	return result, nil
}

// ContainerReconciler converges one named container.
type ContainerReconciler struct {
	exec   executor.CommandExecutor
	prober *probe.ContainerProber
}

// NewContainerReconciler creates a reconciler using the given executor.
func NewContainerReconciler(exec executor.CommandExecutor) *ContainerReconciler {
	return &ContainerReconciler{
		exec:   exec,
		prober: probe.NewContainerProber(exec),
	}
}

// Apply probes, decides, and executes for one container spec. When the
// spec asks for a pull, the pull happens before probing so the image-ID
// comparison sees the image the host would actually run.
func (r *ContainerReconciler) Apply(cspec *spec.ContainerSpec, opts Options) (Result, error) {
	result := Result{Resource: "container/" + cspec.Name, Action: string(ActionNoop), DryRun: opts.DryRun}

	if _, err := r.exec.LookPath("docker"); err != nil {
		return result, errors.ErrDockerNotInstalled
	}

	wantImage := cspec.State == spec.StatePresent && cspec.Image != ""
	if wantImage && cspec.Pull && !opts.DryRun {
		if err := execute(r.exec, command.DockerPull(cspec.Image), opts.timeout()); err != nil {
			return result, err
		}
	}

	obs, err := r.prober.Probe(cspec.Name)
	if err != nil {
		return result, err
	}

	pulledID := ""
	if wantImage {
		pulledID, err = r.prober.PulledImageID(cspec.Image)
		if err != nil {
			return result, err
		}
	}

	reportConfigDrift(cspec, obs)

	decision := DecideContainer(cspec, obs, pulledID)
	result.Action = string(decision.Action)
	result.Changed = decision.Changed()
	result.Message = decision.Reason
	logger.InfoFields("container decision", map[string]interface{}{
		"name":   cspec.Name,
		"action": decision.Action,
		"reason": decision.Reason,
	})

	if opts.DryRun || decision.Action == ActionNoop {
		return result, nil
	}

	var invocations []command.Invocation
	switch decision.Action {
	case ActionCreate:
		invocations = []command.Invocation{command.DockerRun(cspec)}
	case ActionRecreate:
		invocations = []command.Invocation{command.DockerRemove(cspec.Name), command.DockerRun(cspec)}
	case ActionStart:
		invocations = []command.Invocation{command.DockerStart(cspec.Name)}
	case ActionRemove:
		invocations = []command.Invocation{command.DockerRemove(cspec.Name)}
	}

	for _, inv := range invocations {
		if err := execute(r.exec, inv, opts.timeout()); err != nil {
			return result, err
		}
	}
	return result, nil
}

// reportConfigDrift logs config differences that the decision engine
// deliberately ignores.
func reportConfigDrift(cspec *spec.ContainerSpec, obs probe.ObservedContainer) {
	if !obs.Exists || cspec.State != spec.StatePresent {
		return
	}
	if cspec.RestartPolicy != "" && obs.RestartPolicy != "" && cspec.RestartPolicy != obs.RestartPolicy {
		logger.Debug("container %s restart policy drift (%s -> %s), not acted on", cspec.Name, obs.RestartPolicy, cspec.RestartPolicy)
	}
	if cspec.Network != "" && obs.Network != "" && cspec.Network != obs.Network {
		logger.Debug("container %s network drift (%s -> %s), not acted on", cspec.Name, obs.Network, cspec.Network)
	}
}

// execute runs one mutating invocation and classifies its failure modes:
// a watchdog expiry is a timeout, a non-zero exit an execution error.
func execute(exec executor.CommandExecutor, inv command.Invocation, timeout time.Duration) error {
	logger.Debug("executing %v", inv.Argv())

	res, err := exec.Run(inv.Program, inv.Args, timeout)
	if errors.Is(err, executor.ErrTimeout) {
		return errors.Timeout(inv.Program)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeExecution, inv.Program+" could not be started", err)
	}
	if res.ExitCode != 0 {
		stderr := res.Stderr
		if stderr == "" {
			stderr = res.Stdout
		}
		return errors.Execution(inv.Program, stderr)
	}
	return nil
}
