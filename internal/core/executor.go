package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// RunOptions configures process execution for `cpm run`.
type RunOptions struct {
	// ExtraArgs are appended after the server's own arguments.
	ExtraArgs []string
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Dir       string
}

// Run launches a stdio server's process in the foreground, inheriting the
// parent environment with the server's env vars layered on top. Blocks
// until the process exits; the exit error is returned as-is so callers can
// surface the child's exit code.
func Run(ctx context.Context, s *Server, opts RunOptions) error {
	if s.Kind() != KindStdio {
		return fmt.Errorf("server %q is remote (%s); only stdio servers can be run locally", s.Name, s.URL)
	}

	args := append(append([]string(nil), s.Args...), opts.ExtraArgs...)
	cmd := exec.CommandContext(ctx, s.Command, args...)
	cmd.Dir = opts.Dir

	cmd.Env = os.Environ()
	for k, v := range s.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	return cmd.Run()
}
