package commands

import (
	"context"
	"fmt"

	"github.com/buildkite/unistash"
	"github.com/buildkite/unistash/internal/trace"
	"go.opentelemetry.io/otel/attribute"
)

type ExistsCmd struct {
	Backend   string `arg:"" help:"Backend to check, azure selects blob storage and anything else S3."`
	Container string `arg:"" help:"The container or bucket name."`
	Name      string `arg:"" help:"Blob name or object key."`
}

func (cmd *ExistsCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, span := trace.Start(ctx, "ExistsCmdRun")
	defer span.End()

	backend := unistash.ParseBackend(cmd.Backend)

	span.SetAttributes(
		attribute.String("backend", backend.String()),
		attribute.String("container", cmd.Container),
		attribute.String("name", cmd.Name),
	)

	if err := connect(ctx, globals, backend); err != nil {
		return trace.NewError(span, "failed to connect storage: %w", err)
	}

	exists, err := globals.Storage.IsBlobOrObjectExists(ctx, unistash.ExistsParams{
		AzureOrS3:             backend,
		FileName:              cmd.Name,
		ContainerOrBucketName: cmd.Container,
	})
	if err != nil {
		return trace.NewError(span, "failed to check existence: %w", err)
	}

	span.SetAttributes(attribute.Bool("exists", exists))

	if exists {
		globals.Printer.Success("✅", "Found %s/%s", cmd.Container, cmd.Name)
	} else {
		globals.Printer.Warn("❌", "Not found %s/%s", cmd.Container, cmd.Name)
	}

	fmt.Println(exists) // write to stdout

	return nil
}
