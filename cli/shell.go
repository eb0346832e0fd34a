package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"stockctl/domain"
)

func (a *App) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell mode",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd)
		},
	}
}

// runShell reads one command per line until exit, quit or end of input.
// Domain and usage errors are printed and the session goes on; anything
// else ends the session with that error.
func (a *App) runShell(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	a.log.Info("shell started")
	defer a.log.Info("shell stopped")

	for {
		fmt.Fprint(out, "stockctl> ")
		line, readErr := a.input().ReadString('\n')
		if readErr != nil && line == "" {
			fmt.Fprintln(out)
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Fprintln(out, "bye")
			return nil
		}

		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}
		if err := a.dispatch(cmd.Context(), args); err != nil {
			return err
		}
	}
}

func (a *App) dispatch(ctx context.Context, args []string) error {
	errOut := a.root.ErrOrStderr()
	target, _, err := a.root.Find(args)
	if err != nil || target == a.root {
		fmt.Fprintf(errOut, "error: unknown command %q\n", args[0])
		return nil
	}
	if target.Name() == "shell" {
		fmt.Fprintln(errOut, "error: already in shell")
		return nil
	}

	resetFlags(target)
	a.root.SetArgs(args)
	err = a.root.ExecuteContext(ctx)
	a.root.SetArgs(nil)
	if err == nil {
		return nil
	}
	if domain.IsDomainError(err) || isUsageError(err) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil
	}
	return err
}

// resetFlags puts the command's own flags back to their defaults so values
// from a previous run on the same tree never leak into the next.
func resetFlags(cmd *cobra.Command) {
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}

// splitArgs splits a shell line on whitespace, keeping single- or
// double-quoted runs together.
func splitArgs(line string) ([]string, error) {
	var args []string
	var cur strings.Builder
	var quote rune
	inArg := false

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
