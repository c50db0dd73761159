package spec

import (
	"strconv"
	"strings"

	"github.com/ksyq12/converge/internal/errors"
)

// ContainerDoc is the raw, pre-normalization shape of a container
// resource as it appears in a plan file.
type ContainerDoc struct {
	Name                  string       `yaml:"name"`
	Container             string       `yaml:"container"` // accepted alias for name
	Image                 string       `yaml:"image"`
	State                 string       `yaml:"state"`
	Pull                  *bool        `yaml:"pull"`
	Detach                *bool        `yaml:"detach"`
	Restart               string       `yaml:"restart"` // accepted alias for restart_policy
	RestartPolicy         string       `yaml:"restart_policy"`
	Network               string       `yaml:"network"`
	Workdir               string       `yaml:"workdir"`
	Env                   EnvVars      `yaml:"env"`
	Ports                 StringOrList `yaml:"ports"`
	Volumes               StringOrList `yaml:"volumes"`
	Command               Command      `yaml:"command"`
	ExtraArgs             StringOrList `yaml:"extra_args"`
	Recreate              bool         `yaml:"recreate"`
	RecreateOnImageChange *bool        `yaml:"recreate_on_image_change"`
}

// ContainerSpec is the canonical desired state for one container.
// Name is the unique key on the host.
type ContainerSpec struct {
	Name                  string
	Image                 string
	State                 State
	Pull                  bool
	Detach                bool
	RestartPolicy         string
	Network               string
	Workdir               string
	Env                   []string // KEY=VALUE, declared order
	Ports                 []string // host:container[/proto], declared order
	Volumes               []string // host:container[:opts], declared order
	Command               []string
	ExtraArgs             []string
	Recreate              bool
	RecreateOnImageChange bool
}

// NormalizeContainer validates a raw container document and produces the
// canonical spec.
func NormalizeContainer(doc ContainerDoc) (*ContainerSpec, error) {
	state, err := normalizeState(doc.State)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}

	name := doc.Name
	if name == "" {
		name = doc.Container
	}
	if name == "" {
		return nil, errors.Validation("container name is required")
	}

	spec := &ContainerSpec{
		Name:                  name,
		Image:                 doc.Image,
		State:                 state,
		Pull:                  true,
		Detach:                true,
		RestartPolicy:         doc.RestartPolicy,
		Network:               doc.Network,
		Workdir:               doc.Workdir,
		Env:                   doc.Env,
		Ports:                 doc.Ports,
		Volumes:               doc.Volumes,
		Command:               doc.Command,
		ExtraArgs:             doc.ExtraArgs,
		Recreate:              doc.Recreate,
		RecreateOnImageChange: true,
	}

	if doc.Pull != nil {
		spec.Pull = *doc.Pull
	}
	if doc.Detach != nil {
		spec.Detach = *doc.Detach
	}
	if doc.RecreateOnImageChange != nil {
		spec.RecreateOnImageChange = *doc.RecreateOnImageChange
	}
	if spec.RestartPolicy == "" {
		spec.RestartPolicy = doc.Restart
	}

	if state == StatePresent && spec.Image == "" {
		return nil, errors.Validation("image is required when state=present")
	}

	if err := validateRestartPolicy(spec.RestartPolicy); err != nil {
		return nil, err
	}
	for _, p := range spec.Ports {
		if err := ValidatePort(p); err != nil {
			return nil, err
		}
	}
	for _, v := range spec.Volumes {
		if err := ValidateVolume(v); err != nil {
			return nil, err
		}
	}
	for _, e := range spec.Env {
		if err := ValidateEnvEntry(e); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

// restartPolicies are the values the docker CLI accepts for --restart.
var restartPolicies = map[string]bool{
	"no":             true,
	"always":         true,
	"unless-stopped": true,
	"on-failure":     true,
}

func validateRestartPolicy(policy string) error {
	if policy == "" {
		return nil
	}
	base := policy
	// on-failure takes an optional retry count, e.g. on-failure:5
	if rest, ok := strings.CutPrefix(policy, "on-failure:"); ok {
		if n, err := strconv.Atoi(rest); err != nil || n < 0 {
			return errors.Validationf("invalid restart policy retry count in %q", policy)
		}
		base = "on-failure"
	}
	if !restartPolicies[base] {
		return errors.Validationf("invalid restart policy %q", policy)
	}
	return nil
}

// ValidatePort checks a host:container[/proto] port mapping.
func ValidatePort(mapping string) error {
	spec := mapping
	if proto, ok := cutSuffixAfter(spec, "/"); ok {
		if proto != "tcp" && proto != "udp" && proto != "sctp" {
			return errors.Validationf("invalid port protocol in %q", mapping)
		}
		spec = spec[:len(spec)-len(proto)-1]
	}
	host, container, ok := strings.Cut(spec, ":")
	if !ok {
		return errors.Validationf("port %q must be host:container[/proto]", mapping)
	}
	for _, part := range []string{host, container} {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 65535 {
			return errors.Validationf("invalid port number %q in %q", part, mapping)
		}
	}
	return nil
}

// ValidateVolume checks a host:container[:opts] volume mapping.
func ValidateVolume(mapping string) error {
	parts := strings.Split(mapping, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return errors.Validationf("volume %q must be host:container[:opts]", mapping)
	}
	if parts[0] == "" || parts[1] == "" {
		return errors.Validationf("volume %q has an empty path", mapping)
	}
	if !strings.HasPrefix(parts[1], "/") {
		return errors.Validationf("volume %q container path must be absolute", mapping)
	}
	if len(parts) == 3 && parts[2] == "" {
		return errors.Validationf("volume %q has empty options", mapping)
	}
	return nil
}

// ValidateEnvEntry checks a KEY=VALUE environment entry.
func ValidateEnvEntry(entry string) error {
	key, _, ok := strings.Cut(entry, "=")
	if !ok {
		return errors.Validationf("env entry %q must be KEY=VALUE", entry)
	}
	if key == "" || strings.ContainsAny(key, " \t") {
		return errors.Validationf("env entry %q has an invalid key", entry)
	}
	return nil
}

// cutSuffixAfter returns the substring after the last occurrence of sep
// and whether sep was present.
func cutSuffixAfter(s, sep string) (string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", false
	}
	return s[i+1:], true
}
