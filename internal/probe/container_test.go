package probe

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/ksyq12/converge/internal/errors"
	"github.com/ksyq12/converge/internal/executor"
)

const inspectJSON = `[
  {
    "State": {"Running": true},
    "Image": "sha256:abc123",
    "HostConfig": {
      "Binds": ["/data:/var/lib/data", "/etc/app:/etc/app:ro"],
      "NetworkMode": "bridge",
      "RestartPolicy": {"Name": "unless-stopped"},
      "PortBindings": {
        "80/tcp": [{"HostPort": "8080"}],
        "53/udp": [{"HostPort": "53"}]
      }
    }
  }
]`

func TestContainerProber_Probe_Existing(t *testing.T) {
	mock := &executor.MockExecutor{
		Script: []executor.Result{
			{Stdout: inspectJSON},
		},
	}
	prober := NewContainerProber(mock)

	obs, err := prober.Probe("web")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !obs.Exists || !obs.Running {
		t.Errorf("expected existing running container, got %+v", obs)
	}
	if obs.ImageID != "sha256:abc123" {
		t.Errorf("image ID = %q", obs.ImageID)
	}
	if obs.RestartPolicy != "unless-stopped" {
		t.Errorf("restart policy = %q", obs.RestartPolicy)
	}
	if obs.Network != "bridge" {
		t.Errorf("network = %q", obs.Network)
	}
	if want := []string{"53:53/udp", "8080:80"}; !reflect.DeepEqual(obs.Ports, want) {
		t.Errorf("ports = %v, want %v", obs.Ports, want)
	}
	if want := []string{"/data:/var/lib/data", "/etc/app:/etc/app:ro"}; !reflect.DeepEqual(obs.Volumes, want) {
		t.Errorf("volumes = %v, want %v", obs.Volumes, want)
	}

	if len(mock.Calls) != 1 {
		t.Fatalf("expected one docker call, got %d", len(mock.Calls))
	}
	if want := []string{"inspect", "web"}; !reflect.DeepEqual(mock.Calls[0].Args, want) {
		t.Errorf("docker args = %v, want %v", mock.Calls[0].Args, want)
	}
}

func TestContainerProber_Probe_NotFound(t *testing.T) {
	mock := &executor.MockExecutor{
		Script: []executor.Result{
			{ExitCode: 1, Stderr: "Error: No such object: web"},
		},
	}
	prober := NewContainerProber(mock)

	obs, err := prober.Probe("web")
	if err != nil {
		t.Fatalf("not-found must not be an error, got %v", err)
	}
	if obs.Exists || obs.Running {
		t.Errorf("expected absent observation, got %+v", obs)
	}
}

func TestContainerProber_Probe_QueryFailure(t *testing.T) {
	t.Run("daemon unreachable", func(t *testing.T) {
		mock := &executor.MockExecutor{
			Script: []executor.Result{
				{ExitCode: 1, Stderr: "Cannot connect to the Docker daemon"},
			},
		}
		prober := NewContainerProber(mock)

		_, err := prober.Probe("web")
		if !errors.Is(err, errors.ErrProbe) {
			t.Errorf("expected probe error, got %v", err)
		}
	})

	t.Run("spawn failure", func(t *testing.T) {
		mock := &executor.MockExecutor{
			RunFunc: func(name string, args []string, timeout time.Duration) (executor.Result, error) {
				return executor.Result{}, fmt.Errorf("exec: docker: not found")
			},
		}
		prober := NewContainerProber(mock)

		_, err := prober.Probe("web")
		if !errors.Is(err, errors.ErrProbe) {
			t.Errorf("expected probe error, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		mock := &executor.MockExecutor{
			Script: []executor.Result{
				{Stdout: "not json"},
			},
		}
		prober := NewContainerProber(mock)

		_, err := prober.Probe("web")
		if !errors.Is(err, errors.ErrProbe) {
			t.Errorf("expected probe error, got %v", err)
		}
	})
}

func TestContainerProber_PulledImageID(t *testing.T) {
	t.Run("resolves id", func(t *testing.T) {
		mock := &executor.MockExecutor{
			Script: []executor.Result{
				{Stdout: "sha256:def456\n"},
			},
		}
		prober := NewContainerProber(mock)

		id, err := prober.PulledImageID("nginx:latest")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "sha256:def456" {
			t.Errorf("id = %q", id)
		}

		want := []string{"image", "inspect", "nginx:latest", "--format", "{{.Id}}"}
		if !reflect.DeepEqual(mock.Calls[0].Args, want) {
			t.Errorf("docker args = %v, want %v", mock.Calls[0].Args, want)
		}
	})

	t.Run("unknown image yields empty id", func(t *testing.T) {
		mock := &executor.MockExecutor{
			Script: []executor.Result{
				{ExitCode: 1, Stderr: "Error: No such image: nginx:latest"},
			},
		}
		prober := NewContainerProber(mock)

		id, err := prober.PulledImageID("nginx:latest")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "" {
			t.Errorf("expected empty id, got %q", id)
		}
	})
}
