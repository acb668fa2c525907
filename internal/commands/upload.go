package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/buildkite/unistash"
	"github.com/buildkite/unistash/internal/console"
	"github.com/buildkite/unistash/internal/trace"
	"github.com/buildkite/unistash/store"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

type UploadCmd struct {
	Backend   string `arg:"" help:"Backend to upload to, azure selects blob storage and anything else S3."`
	Container string `arg:"" help:"The container or bucket name."`
	Path      string `arg:"" help:"Path of the file to upload." type:"existingfile"`
	Name      string `flag:"name" help:"Blob name or object key, defaults to the base name of the file."`
}

func (cmd *UploadCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, span := trace.Start(ctx, "UploadCmdRun")
	defer span.End()

	backend := unistash.ParseBackend(cmd.Backend)

	name := cmd.Name
	if name == "" {
		name = filepath.Base(cmd.Path)
	}

	log.Info().Str("version", globals.Version).Msg("Running UploadCmd")

	span.SetAttributes(
		attribute.String("backend", backend.String()),
		attribute.String("container", cmd.Container),
		attribute.String("name", name),
	)

	if err := connect(ctx, globals, backend); err != nil {
		return trace.NewError(span, "failed to connect storage: %w", err)
	}

	buffer, err := os.ReadFile(cmd.Path)
	if err != nil {
		return trace.NewError(span, "failed to read file: %w", err)
	}

	globals.Printer.Info("⬆️", "Uploading %s (%s) to %s/%s",
		cmd.Path, humanize.Bytes(uint64(len(buffer))), cmd.Container, name)

	result, err := globals.Storage.UploadToStorage(ctx, unistash.UploadParams{
		AzureOrS3:             backend,
		Buffer:                buffer,
		FileName:              name,
		ContainerOrBucketName: cmd.Container,
	})
	if err != nil {
		return trace.NewError(span, "failed to upload: %w", err)
	}

	globals.Printer.Success("✅", "Upload completed")
	globals.Printer.Summary("📊", "Upload summary", uploadSummary(backend, cmd.Container, name, result)...)

	fmt.Println(name) // write to stdout

	return nil
}

func uploadSummary(backend unistash.Backend, container, name string, result *unistash.UploadResult) []console.Row {
	rows := []console.Row{
		{Label: "Backend", Value: backend.String()},
		{Label: "Container", Value: container},
		{Label: "Name", Value: name},
	}

	var transfer store.TransferInfo

	switch {
	case result.Azure != nil:
		rows = append(rows,
			console.Row{Label: "ETag", Value: result.Azure.ETag},
			console.Row{Label: "Content Type", Value: result.Azure.ContentType},
			console.Row{Label: "Request ID", Value: result.Azure.Transfer.RequestID},
		)
		transfer = result.Azure.Transfer
	case result.S3 != nil:
		rows = append(rows,
			console.Row{Label: "ETag", Value: result.S3.ETag},
			console.Row{Label: "Location", Value: result.S3.Location},
			console.Row{Label: "Version ID", Value: result.S3.VersionID},
		)
		transfer = result.S3.Transfer
	}

	return append(rows,
		console.Row{Label: "Size", Value: humanize.Bytes(Int64ToUint64(transfer.BytesTransferred))},
		console.Row{Label: "Transfer Speed", Value: fmt.Sprintf("%.2fMB/s", transfer.TransferSpeed)},
		console.Row{Label: "Duration", Value: transfer.Duration.String()},
	)
}
