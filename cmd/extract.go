package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/extract-chat/internal/extract"
	"github.com/sells-group/extract-chat/internal/model"
)

type submitter interface {
	Submit(ctx context.Context, url, prompt string, fields []model.SchemaField) (*extract.Outcome, error)
}

var (
	extractURL        string
	extractPrompt     string
	extractFields     []string
	extractFieldsFile string
	extractFormat     string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run a single extraction and print the result",
	Example: `  extract-chat extract --url https://example.com --prompt "list all blog posts"
  extract-chat extract --url https://shop.example --prompt "products" --field name:str --field price:float --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := collectFields(extractFields, extractFieldsFile)
		if err != nil {
			return err
		}
		return runExtract(cmd.Context(), newExtractService(cfg), cmd.OutOrStdout(), extractURL, extractPrompt, fields, extractFormat)
	},
}

func runExtract(ctx context.Context, svc submitter, w io.Writer, url, prompt string, fields []model.SchemaField, format string) error {
	f, err := parseOutputFormat(format)
	if err != nil {
		return err
	}
	out, err := svc.Submit(ctx, url, prompt, fields)
	if err != nil {
		return err
	}
	return renderOutcome(w, out, f)
}

// collectFields merges rows from a YAML file with --field name:type specs,
// file rows first.
func collectFields(specs []string, path string) ([]model.SchemaField, error) {
	var fields []model.SchemaField
	if path != "" {
		fromFile, err := loadFieldsFile(path)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fromFile...)
	}
	for _, spec := range specs {
		f, err := model.ParseFieldSpec(spec)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// loadFieldsFile reads a YAML list of {name, type} rows.
func loadFieldsFile(path string) ([]model.SchemaField, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read fields file %s", path)
	}

	var rows []struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "parse fields file %s", path)
	}

	fields := make([]model.SchemaField, 0, len(rows))
	for i, r := range rows {
		ft := model.FieldString
		if r.Type != "" {
			ft, err = model.ParseFieldType(r.Type)
			if err != nil {
				return nil, eris.Wrapf(err, "fields file %s: row %d", path, i+1)
			}
		}
		fields = append(fields, model.SchemaField{Name: r.Name, Type: ft})
	}
	return fields, nil
}

func init() {
	extractCmd.Flags().StringVar(&extractURL, "url", "", "website URL (http:// or https://)")
	extractCmd.Flags().StringVar(&extractPrompt, "prompt", "", "what to extract")
	extractCmd.Flags().StringArrayVar(&extractFields, "field", nil, "schema field as name:type (repeatable)")
	extractCmd.Flags().StringVar(&extractFieldsFile, "fields", "", "YAML file listing schema fields")
	extractCmd.Flags().StringVar(&extractFormat, "format", string(formatTable), "output format: table, json, csv or raw")
	_ = extractCmd.MarkFlagRequired("url")
	_ = extractCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(extractCmd)
}
