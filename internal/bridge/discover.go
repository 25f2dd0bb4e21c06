package bridge

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Discoverer finds the installation root of the foreign runtime's package.
type Discoverer interface {
	InstallRoot(ctx context.Context) (string, error)
}

// pythonRootScript prints the directory that contains the nupic package.
const pythonRootScript = `import sys;import os;import nupic;sys.stdout.write(os.path.abspath(os.path.join(nupic.__file__, "../..")))`

// CommandDiscoverer runs an external command and interprets the first line
// of its standard output as the installation root. The call blocks until the
// command exits.
type CommandDiscoverer struct {
	Name string
	Args []string
}

// PythonDiscoverer asks the given python interpreter where nupic is installed.
func PythonDiscoverer(python string) *CommandDiscoverer {
	if python == "" {
		python = "python"
	}
	return &CommandDiscoverer{Name: python, Args: []string{"-c", pythonRootScript}}
}

// InstallRoot implements Discoverer.
func (d *CommandDiscoverer) InstallRoot(ctx context.Context) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.Name, d.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("running %s: %w: %s", d.Name, err, detail)
		}
		return "", fmt.Errorf("running %s: %w", d.Name, err)
	}
	line, _, _ := strings.Cut(stdout.String(), "\n")
	return strings.TrimSpace(line), nil
}

// String describes the command for log messages.
func (d *CommandDiscoverer) String() string {
	return strings.Join(append([]string{d.Name}, d.Args...), " ")
}

// StaticDiscoverer returns a fixed, configured installation root.
type StaticDiscoverer string

// InstallRoot implements Discoverer.
func (d StaticDiscoverer) InstallRoot(context.Context) (string, error) {
	return string(d), nil
}
