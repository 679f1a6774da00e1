package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"top-ten/internal/catalog"
	"top-ten/internal/exports"

	"github.com/spf13/cobra"
)

type exportOptions struct {
	out             string
	categoryID      uint
	includeFilled   bool
	bucket          string
	endpoint        string
	region          string
	accessKeyID     string
	secretAccessKey string
}

func newScrapeCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Export scrape targets and import scraped list items",
	}

	opts := exportOptions{}
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the lists still waiting for items as a scrape config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := cfg.open()
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), catalog.NewRepository(conn), opts, cmd.OutOrStdout())
		},
	}
	fs := export.Flags()
	fs.StringVarP(&opts.out, "out", "o", "", "file to write, stdout when empty (env: TOPTEN_OUT)")
	fs.UintVar(&opts.categoryID, "category", 0, "only export lists of this category id (env: TOPTEN_CATEGORY)")
	fs.BoolVar(&opts.includeFilled, "include-filled", false, "also export lists that already have items (env: TOPTEN_INCLUDE_FILLED)")
	fs.StringVar(&opts.bucket, "bucket", "", "upload to this bucket instead of writing a file (env: TOPTEN_BUCKET)")
	fs.StringVar(&opts.endpoint, "endpoint", "", "S3-compatible endpoint for the bucket (env: TOPTEN_ENDPOINT)")
	fs.StringVar(&opts.region, "region", "auto", "bucket region (env: TOPTEN_REGION)")
	fs.StringVar(&opts.accessKeyID, "access-key-id", "", "bucket access key id (env: TOPTEN_ACCESS_KEY_ID)")
	fs.StringVar(&opts.secretAccessKey, "secret-access-key", "", "bucket secret access key (env: TOPTEN_SECRET_ACCESS_KEY)")
	fs.SetNormalizeFunc(normalizeFlag)

	var file string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Replace list items with the contents of a scraped items file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			conn, err := cfg.open()
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), catalog.NewRepository(conn), file, cmd.OutOrStdout())
		},
	}
	importCmd.Flags().StringVarP(&file, "file", "f", "", "scraped items JSON file (env: TOPTEN_FILE)")

	cmd.AddCommand(export, importCmd)
	return cmd
}

func runExport(ctx context.Context, repo catalog.Repository, opts exportOptions, stdout io.Writer) error {
	categoryName := ""
	if opts.categoryID != 0 {
		category, err := repo.Category(ctx, opts.categoryID)
		if err != nil {
			return fmt.Errorf("load category %d: %w", opts.categoryID, err)
		}
		categoryName = category.Name
	}
	entries, err := catalog.Export(ctx, repo, catalog.ExportFilter{
		CategoryID:    opts.categoryID,
		IncludeFilled: opts.includeFilled,
	})
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	name := catalog.ExportFileName(categoryName, time.Now())

	if opts.bucket != "" {
		uploader, err := exports.New(ctx, exports.Settings{
			Bucket:          opts.bucket,
			Endpoint:        opts.endpoint,
			Region:          opts.region,
			AccessKeyID:     opts.accessKeyID,
			SecretAccessKey: opts.secretAccessKey,
		})
		if err != nil {
			return err
		}
		location, err := uploader.Upload(ctx, name, body, "application/json")
		if err != nil {
			return err
		}
		log.Printf("uploaded %d lists to %s", len(entries), location)
		return nil
	}
	if opts.out == "" {
		_, err := fmt.Fprintln(stdout, string(body))
		return err
	}
	if err := os.WriteFile(opts.out, append(body, '\n'), 0o644); err != nil {
		return err
	}
	log.Printf("wrote %d lists to %s", len(entries), opts.out)
	return nil
}

func runImport(ctx context.Context, repo catalog.Repository, path string, stdout io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	records, err := catalog.DecodeImport(f)
	if err != nil {
		return err
	}
	result := catalog.Import(ctx, repo, records)
	if _, err := fmt.Fprintln(stdout, result.Message); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("%d lists failed to import", result.ErrorCount)
	}
	return nil
}
