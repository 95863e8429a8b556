package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/xraph/beans/internal/config"
	"github.com/xraph/beans/internal/container"
	"github.com/xraph/beans/internal/definition"
	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/metrics"
	"github.com/xraph/beans/internal/reader"
	"github.com/xraph/beans/internal/resource"
)

// env holds what every command needs, built once in Before.
type env struct {
	cfg     *config.Config
	logger  logger.Logger
	metrics metrics.Collector
	locator resource.Locator
	reader  reader.Reader
	redis   *redis.Client
}

func (e *env) close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	_ = e.logger.Sync()
}

// container builds a container holding the definitions of doc without
// instantiating anything.
func (e *env) container(ctx context.Context, doc string) (*container.Container, error) {
	c := container.New(
		container.WithName("beanctl"),
		container.WithLogger(e.logger),
		container.WithMetrics(e.metrics),
		container.WithLocator(e.locator),
		container.WithReader(e.reader),
	)
	defs, err := c.Read(ctx, doc)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		if err := c.RegisterDefinition(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newApp(out, errOut io.Writer) *cli.App {
	e := &env{}

	return &cli.App{
		Name:      "beanctl",
		Usage:     "inspect and validate bean definition documents",
		Version:   version,
		Writer:    out,
		ErrWriter: errOut,
		// main reports errors and picks the exit code.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (default: .beans.yaml searched upwards)", EnvVars: []string{"BEANS_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringSliceFlag{Name: "root", Usage: "directory resolving relative documents (repeatable)"},
			&cli.StringFlag{Name: "redis", Usage: "redis address serving redis:// documents"},
			&cli.StringFlag{Name: "format", Usage: "force a document format: xml, yaml, json, toml or hcl"},
			&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
		},
		Before: func(c *cli.Context) error {
			configureColors(c.Bool("no-color"))
			return e.setup(c)
		},
		After: func(*cli.Context) error {
			if e.logger != nil {
				e.close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "print the definitions of a document",
				ArgsUsage: "<document>",
				Action:    func(c *cli.Context) error { return e.list(c) },
			},
			{
				Name:      "validate",
				Usage:     "report unresolved references and constructor cycles",
				ArgsUsage: "<document>",
				Action:    func(c *cli.Context) error { return e.validate(c) },
			},
			{
				Name:      "order",
				Usage:     "print the order in which eager singletons are created",
				ArgsUsage: "<document>",
				Action:    func(c *cli.Context) error { return e.order(c) },
			},
		},
	}
}

func (e *env) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("root") {
		cfg.Resources.Roots = c.StringSlice("root")
	}
	if c.IsSet("redis") {
		cfg.Resources.RedisAddr = c.String("redis")
	}
	cfg.Logging.Output = c.App.ErrWriter

	e.cfg = cfg
	e.logger = logger.NewLogger(cfg.Logging)
	e.metrics = metrics.New(cfg.Metrics)

	opts := resource.Options{
		Roots:       cfg.Resources.Roots,
		HTTPTimeout: cfg.Resources.HTTPTimeout,
		RedisPrefix: cfg.Resources.RedisPrefix,
	}
	if cfg.Resources.RedisAddr != "" {
		e.redis = redis.NewClient(&redis.Options{Addr: cfg.Resources.RedisAddr})
		opts.Redis = e.redis
	}
	e.locator = resource.NewDefault(opts)

	if format := c.String("format"); format != "" {
		f, err := reader.ParseFormat(format)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		e.reader = reader.New(f)
	}
	return nil
}

func document(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit("expected exactly one document argument", 2)
	}
	return c.Args().First(), nil
}

func (e *env) list(c *cli.Context) error {
	doc, err := document(c)
	if err != nil {
		return err
	}
	ctr, err := e.container(c.Context, doc)
	if err != nil {
		return err
	}

	out := c.App.Writer
	t := newTable(out, "ID", "TYPE", "SCOPE", "LAZY", "ALIASES", "REFERENCES")
	for _, name := range ctr.DefinitionNames() {
		def, err := ctr.Definition(name)
		if err != nil {
			return err
		}
		t.append(
			cyan(def.ID),
			def.Type,
			scopeLabel(def),
			strconv.FormatBool(def.Lazy),
			strings.Join(def.Aliases, ", "),
			gray(strings.Join(def.References(), ", ")),
		)
	}
	t.render()
	fmt.Fprintf(out, "\n%d definitions in %s\n", ctr.DefinitionCount(), doc)
	return nil
}

func scopeLabel(def *definition.Definition) string {
	if def.IsPrototype() {
		return yellow(def.Scope.String())
	}
	return def.Scope.String()
}

func (e *env) validate(c *cli.Context) error {
	doc, err := document(c)
	if err != nil {
		return err
	}
	ctr, err := e.container(c.Context, doc)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if err := ctr.Validate(); err != nil {
		problems := flatten(err)
		for _, p := range problems {
			fmt.Fprintf(out, "%s %s\n", red("✗"), p)
		}
		return cli.Exit(boldRed(fmt.Sprintf("%d problem(s) in %s", len(problems), doc)), 1)
	}

	fmt.Fprintf(out, "%s %s\n", green("✓"), boldGreen(fmt.Sprintf("%d definitions in %s are valid", ctr.DefinitionCount(), doc)))
	return nil
}

func (e *env) order(c *cli.Context) error {
	doc, err := document(c)
	if err != nil {
		return err
	}
	ctr, err := e.container(c.Context, doc)
	if err != nil {
		return err
	}
	if err := ctr.Validate(); err != nil {
		return err
	}

	for i, id := range ctr.CreationOrder() {
		fmt.Fprintf(c.App.Writer, "%3d  %s\n", i+1, id)
	}
	return nil
}

// flatten expands joined errors into their leaves.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
