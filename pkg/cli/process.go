package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// documentFile is the JSON layout of a document given as a file argument
type documentFile struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func cmdProcess() *cli.Command {
	var docID string
	var limit int
	var cfgs pipelineConfigs

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "id",
			Usage:       "Reprocess a single stored document by ID",
			Destination: &docID,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Reprocess the N most recently stored documents",
			Destination: &limit,
		},
	}
	flags = append(flags, cfgs.flags()...)

	return &cli.Command{
		Name:      "process",
		Aliases:   []string{"p"},
		Usage:     "Run the pipeline over documents (JSON files, a stored ID, or recent documents)",
		ArgsUsage: "[document.json ...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, repo, err := cfgs.configure(ctx)
			if err != nil {
				return err
			}
			defer repo.Close() //nolint:errcheck // process is exiting

			docs, err := collectDocuments(ctx, c.Args().Slice(), docID, limit, uc)
			if err != nil {
				return err
			}

			report, err := uc.RunBatch(ctx, docs)
			if err != nil {
				return err
			}

			printReport(report)

			if !report.Usable() {
				return goerr.New("no document produced a usable record",
					goerr.V("failed", report.Failed), goerr.V("rejected", report.Rejected))
			}
			return nil
		},
	}
}

func collectDocuments(ctx context.Context, files []string, docID string, limit int, uc *usecase.UseCases) ([]*model.Document, error) {
	var docs []*model.Document

	for _, path := range files {
		// #nosec G304 - path is expected to be provided by CLI argument
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read document file", goerr.V("path", path))
		}

		var f documentFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, goerr.Wrap(err, "failed to parse document file", goerr.V("path", path))
		}

		docs = append(docs, &model.Document{
			ID:       types.DocumentID(f.ID),
			Type:     types.DocumentType(f.Type).Normalize(),
			Content:  f.Content,
			Metadata: f.Metadata,
		})
	}

	if docID != "" {
		doc, err := uc.Repository().Document().Get(ctx, types.DocumentID(docID))
		if err != nil {
			return nil, goerr.Wrap(err, "stored document not found", goerr.V("document_id", docID))
		}
		docs = append(docs, doc)
	}

	if limit > 0 {
		stored, err := uc.Repository().Document().List(ctx, limit)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list stored documents")
		}
		docs = append(docs, stored...)
	}

	return docs, nil
}

func printReport(report *usecase.Report) {
	complete := color.New(color.FgGreen)
	partial := color.New(color.FgYellow)
	failed := color.New(color.FgRed)
	rejected := color.New(color.FgMagenta)

	for _, o := range report.Outcomes {
		switch {
		case o.Rejected:
			rejected.Printf("REJECTED  %s", o.DocumentID)
			if o.Err != nil {
				fmt.Printf("  (%s)", o.Err.Error())
			}
			fmt.Println()
		case o.Status == types.RecordStatusComplete:
			complete.Printf("COMPLETE  %s", o.DocumentID)
			fmt.Printf("  attempt=%s\n", o.AttemptID)
		case o.Status == types.RecordStatusPartial:
			partial.Printf("PARTIAL   %s", o.DocumentID)
			fmt.Printf("  attempt=%s\n", o.AttemptID)
		default:
			failed.Printf("FAILED    %s", o.DocumentID)
			fmt.Printf("  attempt=%s\n", o.AttemptID)
		}
	}

	fmt.Printf("\n%d complete, %d partial, %d failed, %d rejected\n",
		report.Complete, report.Partial, report.Failed, report.Rejected)
}
