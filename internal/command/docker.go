package command

import (
	"strings"

	"github.com/ksyq12/converge/internal/errors"
	"github.com/ksyq12/converge/internal/spec"
)

// DockerPull builds the image pull invocation.
func DockerPull(image string) Invocation {
	return Invocation{Program: "docker", Args: []string{"pull", image}}
}

// DockerRun builds the container creation invocation. Ports, volumes, and
// env entries keep their declared order; command tokens are appended
// verbatim after the image.
func DockerRun(cspec *spec.ContainerSpec) Invocation {
	args := []string{"run"}

	if cspec.Detach {
		args = append(args, "-d")
	}
	args = append(args, "--name", cspec.Name)

	if cspec.RestartPolicy != "" {
		args = append(args, "--restart", cspec.RestartPolicy)
	}
	if cspec.Network != "" {
		args = append(args, "--network", cspec.Network)
	}
	if cspec.Workdir != "" {
		args = append(args, "-w", cspec.Workdir)
	}

	for _, env := range cspec.Env {
		args = append(args, "-e", env)
	}
	for _, port := range cspec.Ports {
		args = append(args, "-p", port)
	}
	for _, volume := range cspec.Volumes {
		args = append(args, "-v", volume)
	}

	args = append(args, cspec.ExtraArgs...)
	args = append(args, cspec.Image)
	args = append(args, cspec.Command...)

	return Invocation{Program: "docker", Args: args}
}

// DockerRemove builds the forced container removal invocation.
func DockerRemove(name string) Invocation {
	return Invocation{Program: "docker", Args: []string{"rm", "-f", name}}
}

// DockerStart builds the invocation that starts a stopped container.
func DockerStart(name string) Invocation {
	return Invocation{Program: "docker", Args: []string{"start", name}}
}

// ParseRunArgs parses a vector produced by DockerRun back into a
// container spec, using the same field grammar the normalizer validates.
// Tokens before the image that the builder does not emit land in
// ExtraArgs as standalone tokens, so extra flags that carry a value must
// use the --flag=value form to survive a round trip. This is the inverse
// used to check that a built vector still describes the spec it came from.
func ParseRunArgs(args []string) (*spec.ContainerSpec, error) {
	if len(args) == 0 || args[0] != "run" {
		return nil, errors.Validation("argument vector must start with 'run'")
	}

	cspec := &spec.ContainerSpec{State: spec.StatePresent}
	i := 1

	needValue := func(flag string) (string, error) {
		if i+1 >= len(args) {
			return "", errors.Validationf("flag %s is missing its value", flag)
		}
		i++
		return args[i], nil
	}

	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			break // image reference
		}
		switch arg {
		case "-d":
			cspec.Detach = true
		case "--name":
			v, err := needValue(arg)
			if err != nil {
				return nil, err
			}
			cspec.Name = v
		case "--restart":
			v, err := needValue(arg)
			if err != nil {
				return nil, err
			}
			cspec.RestartPolicy = v
		case "--network":
			v, err := needValue(arg)
			if err != nil {
				return nil, err
			}
			cspec.Network = v
		case "-w":
			v, err := needValue(arg)
			if err != nil {
				return nil, err
			}
			cspec.Workdir = v
		case "-e":
			v, err := needValue(arg)
			if err != nil {
				return nil, err
			}
			if err := spec.ValidateEnvEntry(v); err != nil {
				return nil, err
			}
			cspec.Env = append(cspec.Env, v)
		case "-p":
			v, err := needValue(arg)
			if err != nil {
				return nil, err
			}
			if err := spec.ValidatePort(v); err != nil {
				return nil, err
			}
			cspec.Ports = append(cspec.Ports, v)
		case "-v":
			v, err := needValue(arg)
			if err != nil {
				return nil, err
			}
			if err := spec.ValidateVolume(v); err != nil {
				return nil, err
			}
			cspec.Volumes = append(cspec.Volumes, v)
		default:
			cspec.ExtraArgs = append(cspec.ExtraArgs, arg)
		}
		i++
	}

	if i >= len(args) {
		return nil, errors.Validation("argument vector has no image")
	}
	cspec.Image = args[i]
	cspec.Command = append(cspec.Command, args[i+1:]...)

	if cspec.Name == "" {
		return nil, errors.Validation("argument vector has no --name")
	}
	return cspec, nil
}
