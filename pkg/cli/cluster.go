package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdCluster() *cli.Command {
	var threshold float64
	var cfgs pipelineConfigs

	flags := []cli.Flag{
		&cli.FloatFlag{
			Name:        "threshold",
			Usage:       "Similarity threshold for cluster edges, within [0, 1]",
			Value:       0.8,
			Sources:     cli.EnvVars("THEMIS_CLUSTER_THRESHOLD"),
			Destination: &threshold,
		},
	}
	flags = append(flags, cfgs.flags()...)

	return &cli.Command{
		Name:      "cluster",
		Usage:     "Group stored documents by embedding similarity",
		ArgsUsage: "<document-id> [document-id ...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			args := c.Args().Slice()
			if len(args) == 0 {
				return goerr.New("at least one document ID is required")
			}

			uc, repo, err := cfgs.configure(ctx)
			if err != nil {
				return err
			}
			defer repo.Close() //nolint:errcheck // process is exiting

			ids := make([]types.DocumentID, len(args))
			for i, raw := range args {
				ids[i] = types.DocumentID(raw)
			}

			clusters, err := uc.ClusterDocuments(ctx, ids, threshold)
			if err != nil {
				return err
			}

			header := color.New(color.FgCyan, color.Bold)
			for i, cl := range clusters {
				header.Printf("Cluster %d (%d documents)\n", i+1, len(cl.Members))
				for _, m := range cl.Members {
					fmt.Printf("  %s\n", m)
				}
				for _, p := range cl.Pairs {
					fmt.Printf("  %s <-> %s  distance=%.4f similarity=%.4f\n",
						p.A, p.B, p.Distance, p.Similarity)
				}
				fmt.Println()
			}

			return nil
		},
	}
}
