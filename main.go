package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mcncl/jsonassert/internal/checker"
	"github.com/mcncl/jsonassert/internal/config"
	"github.com/mcncl/jsonassert/internal/errors"
	"github.com/mcncl/jsonassert/internal/formatter"
	"github.com/mcncl/jsonassert/internal/mockserver"
	"github.com/mcncl/jsonassert/internal/source"
)

// Version information
const (
	Version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Config  string           `help:"Path to a config file. Defaults to .jsonassert.yml in the current or a parent directory." short:"c" type:"path"`
	Timeout int              `help:"Connection and read timeout in milliseconds for URL sources." short:"t"`
	Cache   bool             `help:"Cache fetched URL and file sources."`
	Debug   bool             `help:"Enable debug logging." short:"d"`
	Version kong.VersionFlag `help:"Show version information." short:"v"`

	Equal    EqualCmd    `cmd:"" help:"Check that two JSON sources are equal."`
	Element  ElementCmd  `cmd:"" help:"Print the value a JSONPath expression selects."`
	Elements ElementsCmd `cmd:"" help:"Print every value a JSONPath expression selects, one per line."`
	Count    CountCmd    `cmd:"" help:"Check how many elements a JSONPath expression selects."`
	Match    MatchCmd    `cmd:"" help:"Check that the value a JSONPath expression selects matches."`
	Serve    ServeCmd    `cmd:"" help:"Run a mock server with sample JSON endpoints."`
}

// Context holds the runtime context handed to every command
type Context struct {
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
}

// RequestFlags describe how URL sources are requested
type RequestFlags struct {
	Method      string `help:"HTTP method for URL sources (GET, POST, PUT, DELETE)." short:"m" default:"GET"`
	Data        string `help:"Request body sent with POST and PUT." short:"D"`
	ContentType string `help:"Content type of the request body." default:"application/json"`
}

func (f RequestFlags) request() source.Request {
	return source.Request{Method: f.Method, Body: f.Data, ContentType: f.ContentType}
}

// EqualCmd compares two sources
type EqualCmd struct {
	From  string `arg:"" help:"JSON text, file path or URL."`
	To    string `arg:"" help:"JSON text, file path or URL."`
	Exact bool   `help:"Compare the raw text byte for byte." short:"e"`

	RequestFlags `embed:""`
}

// Run executes the equal command
func (c *EqualCmd) Run(ctx *Context) error {
	chk, err := ctx.checker()
	if err != nil {
		return err
	}
	if _, err := chk.ShouldBeEqual(ctx.Ctx, c.From, c.To, c.Exact, c.request()); err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.Out, "equal")
	return err
}

// ElementCmd prints a single selection
type ElementCmd struct {
	Source string `arg:"" help:"JSON text, file path or URL."`
	Path   string `arg:"" help:"JSONPath expression."`

	RequestFlags `embed:""`
}

// Run executes the element command
func (c *ElementCmd) Run(ctx *Context) error {
	chk, err := ctx.checker()
	if err != nil {
		return err
	}
	value, err := chk.ElementAt(ctx.Ctx, c.Source, c.Path, c.request())
	if err != nil {
		return err
	}
	rendered, err := formatter.NewFormatter().Format(value)
	if err != nil {
		return errors.NewParseError("failed to render the selected value", err)
	}
	return ctx.println(rendered)
}

// ElementsCmd prints a list selection
type ElementsCmd struct {
	Source string `arg:"" help:"JSON text, file path or URL."`
	Path   string `arg:"" help:"JSONPath expression."`

	RequestFlags `embed:""`
}

// Run executes the elements command
func (c *ElementsCmd) Run(ctx *Context) error {
	chk, err := ctx.checker()
	if err != nil {
		return err
	}
	values, err := chk.ElementsAt(ctx.Ctx, c.Source, c.Path, c.request())
	if err != nil {
		return err
	}
	lines, err := formatter.NewFormatter().FormatAll(values)
	if err != nil {
		return errors.NewParseError("failed to render the selected values", err)
	}
	for _, line := range lines {
		if err := ctx.println(line); err != nil {
			return err
		}
	}
	return nil
}

// CountCmd checks a selection's size
type CountCmd struct {
	Source   string `arg:"" help:"JSON text, file path or URL."`
	Path     string `arg:"" help:"JSONPath expression."`
	Expected int    `arg:"" help:"Expected number of elements."`

	RequestFlags `embed:""`
}

// Run executes the count command
func (c *CountCmd) Run(ctx *Context) error {
	chk, err := ctx.checker()
	if err != nil {
		return err
	}
	if _, err := chk.ElementCountMatches(ctx.Ctx, c.Source, c.Path, c.Expected, c.request()); err != nil {
		return err
	}
	return ctx.println(fmt.Sprintf("found %d", c.Expected))
}

// MatchCmd checks a selection's rendered value
type MatchCmd struct {
	Source   string `arg:"" help:"JSON text, file path or URL."`
	Path     string `arg:"" help:"JSONPath expression."`
	Expected string `arg:"" help:"Expected value, as printed by the element command."`

	RequestFlags `embed:""`
}

// Run executes the match command
func (c *MatchCmd) Run(ctx *Context) error {
	chk, err := ctx.checker()
	if err != nil {
		return err
	}
	if _, err := chk.ElementMatches(ctx.Ctx, c.Source, c.Path, &c.Expected, c.request()); err != nil {
		return err
	}
	return ctx.println("match")
}

// ServeCmd runs the mock server until interrupted
type ServeCmd struct {
	Addr string `help:"Address to listen on." short:"a" default:"127.0.0.1:1080"`
}

// Run executes the serve command
func (c *ServeCmd) Run(ctx *Context) error {
	server := mockserver.NewServer(ctx.Logger, c.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.NewIOError("mock server stopped", err)
		}
		return nil
	case <-ctx.Ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.NewIOError("failed to stop mock server", err)
	}
	return <-errCh
}

func (c *Context) checker() (*checker.Checker, error) {
	return checker.NewFromConfig(*c.Config, c.Logger)
}

func (c *Context) println(s string) error {
	if _, err := fmt.Fprintln(c.Out, s); err != nil {
		return errors.NewIOError("failed to write output", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute parses args, runs the selected command and returns the exit status
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("jsonassert"),
		kong.Description("Assert on JSON documents given as text, files or URLs"),
		kong.UsageOnError(),
		kong.Vars{"version": Version},
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		fmt.Fprintf(stderr, "\nFor help, run: jsonassert --help\n")
		return 1
	}

	logger := newLogger(stderr, cli.Debug)

	cfg, err := config.LoadWithCLI(cli.Config, cli.Timeout, cli.Cache, logger)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", errors.UserFriendlyError(err))
		return 1
	}

	err = kctx.Run(&Context{Ctx: ctx, Config: cfg, Logger: logger, Out: stdout})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", errors.UserFriendlyError(err))
		return 1
	}
	return 0
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
