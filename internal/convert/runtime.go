package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"
)

// Mount binds a host directory into the container.
type Mount struct {
	Host      string
	Container string
}

// RunSpec describes one attached, self-removing container run.
type RunSpec struct {
	Name    string
	Image   string
	Mounts  []Mount
	WorkDir string
	Cmd     []string
}

// Runtime is the container engine the converter drives.
type Runtime interface {
	Ping(ctx context.Context) error
	ImageExists(ctx context.Context, image string) (bool, error)
	PullImage(ctx context.Context, image string) error
	// Run blocks until the container exits and returns its combined output.
	// A nonzero exit is reported as *RunError.
	Run(ctx context.Context, spec RunSpec) ([]byte, error)
}

// DockerCLI implements Runtime with the docker command line client.
type DockerCLI struct {
	argv []string
	log  *slog.Logger
}

// NewDockerCLI parses command, which may carry arguments such as
// "sudo docker" or "podman --remote".
func NewDockerCLI(command string, log *slog.Logger) (*DockerCLI, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("docker command %q: %w", command, err)
	}
	if len(argv) == 0 {
		argv = []string{"docker"}
	}
	if log == nil {
		log = slog.Default()
	}
	return &DockerCLI{argv: argv, log: log}, nil
}

func (d *DockerCLI) exec(ctx context.Context, args ...string) ([]byte, error) {
	full := append(append([]string(nil), d.argv...), args...)
	d.log.Debug("docker", "cmd", shellquote.Join(full...))

	cmd := exec.CommandContext(ctx, full[0], full[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return out.Bytes(), &RunError{ExitCode: exitErr.ExitCode(), Output: out.String()}
	}
	return out.Bytes(), err
}

func (d *DockerCLI) Ping(ctx context.Context) error {
	if _, err := d.exec(ctx, "version", "--format", "{{.Server.Version}}"); err != nil {
		return fmt.Errorf("docker is not running, start it and try again: %w", err)
	}
	return nil
}

func (d *DockerCLI) ImageExists(ctx context.Context, image string) (bool, error) {
	_, err := d.exec(ctx, "image", "inspect", "--format", "{{.Id}}", image)
	var runErr *RunError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &runErr):
		return false, nil
	}
	return false, err
}

func (d *DockerCLI) PullImage(ctx context.Context, image string) error {
	if _, err := d.exec(ctx, "pull", "--quiet", image); err != nil {
		return fmt.Errorf("pull %s: %w", image, err)
	}
	return nil
}

func (d *DockerCLI) Run(ctx context.Context, spec RunSpec) ([]byte, error) {
	args := []string{"run", "--rm"}
	if spec.Name != "" {
		args = append(args, "--name", spec.Name)
	}
	for _, m := range spec.Mounts {
		args = append(args, "-v", m.Host+":"+m.Container+":rw")
	}
	if spec.WorkDir != "" {
		args = append(args, "-w", spec.WorkDir)
	}
	args = append(args, spec.Image)
	args = append(args, spec.Cmd...)

	out, err := d.exec(ctx, args...)
	if err != nil && ctx.Err() != nil && spec.Name != "" {
		// Killing the client leaves the container running.
		rmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, rmErr := d.exec(rmCtx, "rm", "-f", spec.Name); rmErr != nil {
			d.log.Warn("container cleanup failed", "container", spec.Name, "error", rmErr)
		}
		return out, ctx.Err()
	}
	return out, err
}
