package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/tasklist/internal/export"
	"github.com/sakif/tasklist/internal/service"
)

func (cli *CLI) newExportCmd() *cobra.Command {
	var (
		formatName string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every item to stdout, a file or S3",
		Long: `Export writes the current list, newest first, as one document.

  tasklist export                                 # JSON to stdout
  tasklist export --format yaml --out items.yaml  # local file
  tasklist export --out s3://backups/items.json   # S3 (EXPORT_S3_* settings)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			target, err := export.ParseTarget(out)
			if err != nil {
				return err
			}

			exporter := export.Exporter{
				Stdout: cli.out,
				NewS3: func(ctx context.Context) (export.ObjectPutter, error) {
					return export.NewS3Client(ctx, cli.cfg.S3)
				},
			}

			return cli.withService(cmd.Context(), func(svc *service.ItemService) error {
				items, err := svc.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				doc := export.NewDocument(items, time.Now())
				if err := exporter.Export(cmd.Context(), doc, format, target); err != nil {
					return err
				}
				if target.Kind != export.KindStdout {
					fmt.Fprintf(cli.errOut, "exported %d items to %s\n", doc.Count, target)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "json", "Output format: json|yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Destination: - (stdout), a file path or s3://bucket/key")
	return cmd
}
