package cli

import (
	"github.com/ksyq12/converge/internal/errors"
	"github.com/ksyq12/converge/internal/reconcile"
	"github.com/ksyq12/converge/internal/spec"
	"github.com/spf13/cobra"
)

var (
	containerImage         string
	containerEnv           []string
	containerPorts         []string
	containerVolumes       []string
	containerNetwork       string
	containerRestart       string
	containerWorkdir       string
	containerNoPull        bool
	containerNoDetach      bool
	containerRecreate      bool
	containerNoImageChange bool
	containerExtraArgs     []string
	containerYes           bool
)

var containerCmd = &cobra.Command{
	Use:   "container",
	Short: "Manage Docker containers",
	Long:  `Manage Docker containers via the docker CLI.`,
}

var containerEnsureCmd = &cobra.Command{
	Use:   "ensure <name> [-- command...]",
	Short: "Ensure a container is running with the given configuration",
	Long: `Ensure a container with the given name exists and is running. An
existing container is recreated when its image has drifted from the
freshly pulled one, and started when it exists but is stopped.

Tokens after -- become the container command.

Examples:
  converge container ensure web -i nginx:1.27 -p 80:80
  converge container ensure db -i postgres:16 -e POSTGRES_PASSWORD=secret --volume /srv/db:/var/lib/postgresql/data
  converge container ensure worker -i myapp:latest --restart unless-stopped -- worker --queue high`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContainerEnsure,
}

var containerRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a container",
	Long: `Remove a container from the host. Removing a container that does not
exist is not an error.

Examples:
  converge container remove web
  converge container rm web --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runContainerRemove,
}

func init() {
	containerEnsureCmd.Flags().StringVarP(&containerImage, "image", "i", "", "Container image (required)")
	containerEnsureCmd.Flags().StringArrayVarP(&containerEnv, "env", "e", nil, "Environment variable KEY=VALUE (repeatable)")
	containerEnsureCmd.Flags().StringArrayVarP(&containerPorts, "port", "p", nil, "Port mapping host:container[/proto] (repeatable)")
	containerEnsureCmd.Flags().StringArrayVar(&containerVolumes, "volume", nil, "Volume mapping host:container[:opts] (repeatable)")
	containerEnsureCmd.Flags().StringVar(&containerNetwork, "network", "", "Network to attach to")
	containerEnsureCmd.Flags().StringVar(&containerRestart, "restart", "", "Restart policy (no, always, unless-stopped, on-failure[:N])")
	containerEnsureCmd.Flags().StringVarP(&containerWorkdir, "workdir", "w", "", "Working directory inside the container")
	containerEnsureCmd.Flags().BoolVar(&containerNoPull, "no-pull", false, "Skip pulling the image before reconciling")
	containerEnsureCmd.Flags().BoolVar(&containerNoDetach, "no-detach", false, "Run in the foreground instead of detached")
	containerEnsureCmd.Flags().BoolVar(&containerRecreate, "recreate", false, "Force recreation even without image drift")
	containerEnsureCmd.Flags().BoolVar(&containerNoImageChange, "no-recreate-on-image-change", false, "Keep the running container when the image drifts")
	containerEnsureCmd.Flags().StringArrayVar(&containerExtraArgs, "extra-arg", nil, "Extra argument passed through to docker run (repeatable)")

	containerRemoveCmd.Flags().BoolVarP(&containerYes, "yes", "y", false, "Skip the confirmation prompt")

	containerCmd.AddCommand(containerEnsureCmd)
	containerCmd.AddCommand(containerRemoveCmd)
	rootCmd.AddCommand(containerCmd)
}

func runContainerEnsure(cmd *cobra.Command, args []string) error {
	// Everything after -- is the container command, not our args.
	command := []string{}
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		command = args[at:]
		args = args[:at]
	}
	if len(args) != 1 {
		return errors.Validation("exactly one container name is required before --")
	}

	doc := spec.ContainerDoc{
		Name:      args[0],
		Image:     containerImage,
		Restart:   containerRestart,
		Network:   containerNetwork,
		Workdir:   containerWorkdir,
		Env:       containerEnv,
		Ports:     containerPorts,
		Volumes:   containerVolumes,
		Command:   command,
		ExtraArgs: containerExtraArgs,
		Recreate:  containerRecreate,
	}
	if containerNoPull {
		pull := false
		doc.Pull = &pull
	}
	if containerNoDetach {
		detach := false
		doc.Detach = &detach
	}
	if containerNoImageChange {
		recreateOnChange := false
		doc.RecreateOnImageChange = &recreateOnChange
	}

	cspec, err := spec.NormalizeContainer(doc)
	if err != nil {
		return err
	}

	r := reconcile.NewContainerReconciler(deps.Executor)
	res, err := r.Apply(cspec, reconcileOptions(dryRun, execTimeout))
	if err != nil {
		return err
	}
	return reportResult(res)
}

func runContainerRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	if !confirmRemoval("container '"+name+"'", containerYes) {
		return nil
	}

	cspec := &spec.ContainerSpec{
		Name:  name,
		State: spec.StateAbsent,
	}

	r := reconcile.NewContainerReconciler(deps.Executor)
	res, err := r.Apply(cspec, reconcileOptions(dryRun, execTimeout))
	if err != nil {
		return err
	}
	return reportResult(res)
}
