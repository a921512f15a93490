package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/mgomes/bscript/bscript"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err, isTerminal(os.Stderr)))
		os.Exit(1)
	}
}

// app carries the streams commands read from and write to.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	return &cli.Command{
		Name:      "bscript",
		Usage:     "Run and explore bscript programs",
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Execute a script",
				ArgsUsage: "<file>",
				Flags:     runtimeFlags(),
				Action:    a.runAction,
			},
			{
				Name:      "check",
				Usage:     "Parse a script without running it",
				ArgsUsage: "<file>",
				Action:    a.checkAction,
			},
			{
				Name:      "ast",
				Usage:     "Print the parse tree of a script",
				ArgsUsage: "<file>",
				Action:    a.astAction,
			},
			{
				Name:   "repl",
				Usage:  "Start an interactive session",
				Flags:  runtimeFlags(),
				Action: a.replAction,
			},
		},
	}
}

func runtimeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML file with recursion_limit, timeout, log_level and globals",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "kill the script after this long (0 disables)",
		},
		&cli.IntFlag{
			Name:  "recursion-limit",
			Usage: "maximum nested function calls (0 selects the default)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
}

func (a *app) runAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return errors.New("usage: bscript run [flags] <file>")
	}
	path := cmd.Args().First()
	input, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}

	engine := opts.newEngine(a.stdout, a.stderr)
	script, err := engine.Compile(string(input))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	table, err := opts.newTable(engine)
	if err != nil {
		return err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	result, returned, err := script.Run(ctx, table)
	stop := context.AfterFunc(ctx, table.Kill)
	table.Wait()
	stop()
	if err != nil {
		return err
	}
	if returned && !result.IsVoid() {
		fmt.Fprintln(a.stdout, result.String())
	}
	return nil
}

func (a *app) checkAction(_ context.Context, cmd *cli.Command) error {
	_, path, err := parseFile(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s: ok\n", path)
	return nil
}

func (a *app) astAction(_ context.Context, cmd *cli.Command) error {
	root, _, err := parseFile(cmd)
	if err != nil {
		return err
	}
	fmt.Fprint(a.stdout, root.String())
	return nil
}

func parseFile(cmd *cli.Command) (*bscript.Node, string, error) {
	if cmd.NArg() != 1 {
		return nil, "", fmt.Errorf("usage: bscript %s <file>", cmd.Name)
	}
	path := cmd.Args().First()
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read script: %w", err)
	}
	root, err := bscript.Parse(string(input))
	if err != nil {
		return nil, path, fmt.Errorf("%s: %w", path, err)
	}
	return root, path, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// formatError renders err for the terminal. Script errors keep their code
// frame and call sites; the headline is highlighted when color is on.
func formatError(err error, color bool) string {
	text := err.Error()
	if !color {
		return "error: " + text
	}
	headline, rest, _ := strings.Cut(text, "\n")
	var se *bscript.Error
	if !errors.As(err, &se) {
		return errorStyle.Render("error: " + text)
	}
	out := errorStyle.Render("error: " + headline)
	if rest != "" {
		out += "\n" + mutedStyle.Render(rest)
	}
	return out
}
