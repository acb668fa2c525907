package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/buildkite/unistash"
	"github.com/buildkite/unistash/internal/commands"
	"github.com/buildkite/unistash/internal/console"
	"github.com/buildkite/unistash/internal/trace"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	version           = "dev"
	defaultConfigPath = ".buildkite/unistash.yml"

	cli struct {
		Version       kong.VersionFlag
		Debug         bool            `help:"Enable debug mode." default:"false" env:"UNISTASH_DEBUG"`
		TraceExporter string          `flag:"trace-exporter" help:"The trace exporter to use. Defaults to '${default_trace_exporter}'." default:"${default_trace_exporter}" enum:"${trace_exporters}" env:"UNISTASH_TRACE_EXPORTER"`
		Config        kong.ConfigFlag `flag:"config" help:"The path to the configuration file. Defaults to .buildkite/unistash.yml" default:"${default_config_path}" env:"UNISTASH_CONFIG"`

		commands.CommonFlags

		Upload commands.UploadCmd `cmd:"" help:"upload a file to a container or bucket."`
		Delete commands.DeleteCmd `cmd:"" help:"delete a blob or object."`
		Exists commands.ExistsCmd `cmd:"" help:"check whether a blob or object exists, prints true or false."`
	}
)

func main() {
	ctx := context.Background()

	// values from .env never override the environment
	_ = godotenv.Load()

	cmd := kong.Parse(&cli,
		kong.Vars{
			"version":                version,
			"default_config_path":    defaultConfigPath,
			"default_trace_exporter": trace.ExporterNoop,
			"trace_exporters":        trace.ExporterNoop + "," + trace.ExporterGRPC,
		},
		kong.NamedMapper("yamlfile", kongyaml.YAMLFileMapper),
		kong.Configuration(kongyaml.Loader),
		kong.BindTo(ctx, (*context.Context)(nil)))

	err := Run(ctx, cmd)
	cmd.FatalIfErrorf(err)
}

func Run(ctx context.Context, cmd *kong.Context) error {
	start := time.Now()

	if cli.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(zerolog.ErrorLevel)
	}

	tp, err := trace.NewProvider(ctx, cli.TraceExporter, "github.com/buildkite/unistash", version)
	if err != nil {
		return fmt.Errorf("failed to create trace provider: %w", err)
	}
	defer func() {
		_ = tp.Shutdown(ctx)
	}()

	ctx, span := trace.Start(ctx, "unistash")
	defer span.End()

	storage := unistash.New(unistash.Config{})
	defer func() {
		if err := storage.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close storage")
		}
	}()

	printer := console.NewPrinter(os.Stderr)

	// commands run under the root span
	cmd.BindTo(ctx, (*context.Context)(nil))

	err = cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, Storage: storage, Printer: printer, Common: cli.CommonFlags})
	if err != nil {
		return trace.Fail(span, fmt.Errorf("command %s failed: %w", cmd.Command(), err))
	}

	printer.Info("✅", "%s completed successfully in %s", cmd.Command(), time.Since(start).String())

	return nil
}
