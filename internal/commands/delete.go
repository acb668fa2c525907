package commands

import (
	"context"

	"github.com/buildkite/unistash"
	"github.com/buildkite/unistash/internal/trace"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

type DeleteCmd struct {
	Backend   string `arg:"" help:"Backend to delete from, azure selects blob storage and anything else S3."`
	Container string `arg:"" help:"The container or bucket name."`
	Name      string `arg:"" help:"Blob name or object key."`
}

func (cmd *DeleteCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, span := trace.Start(ctx, "DeleteCmdRun")
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

	globals.Printer.Info("🗑️", "Deleting %s/%s", cmd.Container, cmd.Name)

	result, err := globals.Storage.DeleteFromStorage(ctx, unistash.DeleteParams{
		AzureOrS3:             backend,
		FileName:              cmd.Name,
		ContainerOrBucketName: cmd.Container,
	})
	if err != nil {
		return trace.NewError(span, "failed to delete: %w", err)
	}

	switch {
	case result.BlobDeleteResponse != nil:
		log.Debug().Str("request_id", result.BlobDeleteResponse.RequestID).Msg("blob deleted")
	case result.DeleteObjectOutput != nil:
		log.Debug().
			Str("request_id", result.DeleteObjectOutput.RequestID).
			Bool("delete_marker", result.DeleteObjectOutput.DeleteMarker).
			Msg("object deleted")
	}

	globals.Printer.Success("✅", "Deleted %s/%s", cmd.Container, cmd.Name)

	return nil
}
