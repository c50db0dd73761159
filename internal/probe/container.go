package probe

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/ksyq12/converge/internal/errors"
	"github.com/ksyq12/converge/internal/executor"
	"github.com/ksyq12/converge/internal/logger"
)

// ObservedContainer is a point-in-time observation of one named container.
// The config snapshot fields are recorded for drift reporting only; drift
// in them never triggers recreation.
type ObservedContainer struct {
	Exists  bool
	Running bool
	ImageID string

	RestartPolicy string
	Network       string
	Ports         []string
	Volumes       []string
}

// ContainerProber reads container and image state through the docker CLI.
type ContainerProber struct {
	exec    executor.CommandExecutor
	timeout time.Duration
}

// NewContainerProber creates a prober using the given executor.
func NewContainerProber(exec executor.CommandExecutor) *ContainerProber {
	return &ContainerProber{
		exec:    exec,
		timeout: 30 * time.Second,
	}
}

// inspectState mirrors the fields of `docker inspect` output the
// reconciler cares about.
type inspectState struct {
	State struct {
		Running bool `json:"Running"`
	} `json:"State"`
	Image      string `json:"Image"`
	HostConfig struct {
		Binds         []string `json:"Binds"`
		NetworkMode   string   `json:"NetworkMode"`
		RestartPolicy struct {
			Name string `json:"Name"`
		} `json:"RestartPolicy"`
		PortBindings map[string][]struct {
			HostPort string `json:"HostPort"`
		} `json:"PortBindings"`
	} `json:"HostConfig"`
}

// Probe observes the container with the given name. A missing container
// is a normal observation, not an error.
func (p *ContainerProber) Probe(name string) (ObservedContainer, error) {
	res, err := p.exec.Run("docker", []string{"inspect", name}, p.timeout)
	if err != nil {
		return ObservedContainer{}, errors.Probe(name, err)
	}
	if res.ExitCode != 0 {
		if isNotFound(res.Stderr) {
			return ObservedContainer{Exists: false}, nil
		}
		return ObservedContainer{}, errors.Probef(name, "docker inspect failed: %s", strings.TrimSpace(res.Stderr))
	}

	var entries []inspectState
	if err := json.Unmarshal([]byte(res.Stdout), &entries); err != nil {
		return ObservedContainer{}, errors.Probe(name, err)
	}
	if len(entries) == 0 {
		return ObservedContainer{Exists: false}, nil
	}

	info := entries[0]
	obs := ObservedContainer{
		Exists:        true,
		Running:       info.State.Running,
		ImageID:       info.Image,
		RestartPolicy: info.HostConfig.RestartPolicy.Name,
		Network:       info.HostConfig.NetworkMode,
		Ports:         flattenPortBindings(info.HostConfig.PortBindings),
		Volumes:       info.HostConfig.Binds,
	}
	logger.DebugFields("observed container", map[string]interface{}{
		"name":     name,
		"running":  obs.Running,
		"image_id": obs.ImageID,
	})
	return obs, nil
}

// PulledImageID resolves the local image ID for an image reference,
// typically right after a pull. An unknown image yields an empty ID
// rather than an error; the decision engine then skips the image-drift
// comparison.
func (p *ContainerProber) PulledImageID(image string) (string, error) {
	res, err := p.exec.Run("docker", []string{"image", "inspect", image, "--format", "{{.Id}}"}, p.timeout)
	if err != nil {
		return "", errors.Probe(image, err)
	}
	if res.ExitCode != 0 {
		logger.Debug("image %s not resolvable locally: %s", image, strings.TrimSpace(res.Stderr))
		return "", nil
	}
	return strings.TrimSpace(res.Stdout), nil
}

// isNotFound recognizes the docker CLI's "does not exist" stderr shapes.
func isNotFound(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "no such object") ||
		strings.Contains(s, "no such container") ||
		strings.Contains(s, "no such image")
}

// flattenPortBindings renders docker's PortBindings map back into
// host:container[/proto] strings, sorted for determinism.
func flattenPortBindings(bindings map[string][]struct {
	HostPort string `json:"HostPort"`
}) []string {
	var ports []string
	for containerPort, hosts := range bindings {
		// containerPort looks like "80/tcp"
		port, proto, _ := strings.Cut(containerPort, "/")
		for _, h := range hosts {
			entry := h.HostPort + ":" + port
			if proto != "" && proto != "tcp" {
				entry += "/" + proto
			}
			ports = append(ports, entry)
		}
	}
	sort.Strings(ports)
	return ports
}
