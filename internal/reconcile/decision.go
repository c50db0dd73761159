package reconcile

import (
	"fmt"
	"time"

	"github.com/ksyq12/converge/internal/probe"
	"github.com/ksyq12/converge/internal/spec"
)

// Action is the outcome of a reconciliation decision.
type Action string

// The possible decisions.
const (
	ActionNoop     Action = "noop"
	ActionIssue    Action = "issue"
	ActionRenew    Action = "renew"
	ActionCreate   Action = "create"
	ActionRecreate Action = "recreate"
	ActionStart    Action = "start"
	ActionRemove   Action = "remove"
)

// Decision pairs an action with the reason it was chosen.
type Decision struct {
	Action Action
	Reason string
}

// Changed reports whether the decided action mutates the host.
func (d Decision) Changed() bool {
	return d.Action != ActionNoop
}

// DecideCertificate maps a certificate request and a fresh observation to
// an action. ForceRenew dominates the expiry check; the renewal window
// boundary is inclusive, so renew_before_days of 0 renews only at or
// after the exact expiry instant.
func DecideCertificate(req *spec.CertificateRequest, obs probe.ObservedCertificate, now time.Time) Decision {
	if req.State == spec.StateAbsent {
		if obs.Exists {
			return Decision{ActionRemove, "certificate exists but state is absent"}
		}
		return Decision{ActionNoop, "certificate already absent"}
	}

	if !obs.Exists {
		return Decision{ActionIssue, "no certificate on host"}
	}

	if req.ForceRenew {
		return Decision{ActionRenew, "force_renew requested"}
	}

	if missing := missingDomains(req.Domains, obs.Domains); len(missing) > 0 {
		return Decision{ActionRenew, fmt.Sprintf("certificate missing domains %v", missing)}
	}

	window := time.Duration(req.RenewBeforeDays) * 24 * time.Hour
	remaining := obs.Expiry.Sub(now)
	if remaining <= window {
		return Decision{ActionRenew, fmt.Sprintf("expires in %s (window %dd)", remaining.Round(time.Hour), req.RenewBeforeDays)}
	}

	return Decision{ActionNoop, fmt.Sprintf("valid until %s", obs.Expiry.Format(time.RFC3339))}
}

// missingDomains returns the requested domains not covered by the
// observed SANs. An empty observation means the SANs could not be read;
// the comparison is skipped then rather than forcing a renewal.
func missingDomains(requested, observed []string) []string {
	if len(observed) == 0 {
		return nil
	}
	covered := make(map[string]bool, len(observed))
	for _, d := range observed {
		covered[d] = true
	}
	var missing []string
	for _, d := range requested {
		if !covered[d] {
			missing = append(missing, d)
		}
	}
	return missing
}

// DecideContainer maps a container spec and a fresh observation to an
// action. pulledImageID is the locally resolved ID of the desired image,
// empty when unknown; the image-drift comparison only applies when both
// sides are known. An explicit recreate request dominates everything,
// including recreate_on_image_change=false.
func DecideContainer(cspec *spec.ContainerSpec, obs probe.ObservedContainer, pulledImageID string) Decision {
	if cspec.State == spec.StateAbsent {
		if obs.Exists {
			return Decision{ActionRemove, "container exists but state is absent"}
		}
		return Decision{ActionNoop, "container already absent"}
	}

	if !obs.Exists {
		return Decision{ActionCreate, "container does not exist"}
	}

	if cspec.Recreate {
		return Decision{ActionRecreate, "recreate requested"}
	}

	if cspec.RecreateOnImageChange && pulledImageID != "" && obs.ImageID != "" && pulledImageID != obs.ImageID {
		return Decision{ActionRecreate, fmt.Sprintf("image changed (%s -> %s)", obs.ImageID, pulledImageID)}
	}

	if !obs.Running {
		return Decision{ActionStart, "container exists but is stopped"}
	}

	return Decision{ActionNoop, "container up to date"}
}
