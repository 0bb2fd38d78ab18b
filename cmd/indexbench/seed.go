package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/indexbench/internal/dataset"
	"github.com/vanshika/indexbench/internal/graph"
)

type seedConfig struct {
	books    int
	batch    int
	workers  int
	seed     int64
	dumpDir  string
	fromFile string
}

func newSeedCmd(a *app) *cobra.Command {
	def := dataset.DefaultConfig()
	cfg := seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a synthetic Book dataset and load it into the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.seed(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.books, "books", def.NumBooks, "Number of books to generate")
	flags.IntVar(&cfg.batch, "batch", 1000, "Books per write transaction")
	flags.IntVar(&cfg.workers, "workers", 4, "Concurrent loader workers")
	flags.Int64Var(&cfg.seed, "seed", def.Seed, "Random seed for deterministic generation (0 = current time)")
	flags.StringVar(&cfg.dumpDir, "dump", "", "Write books.json to this directory instead of loading")
	flags.StringVar(&cfg.fromFile, "from", "", "Load books from a books.json file instead of generating")

	return cmd
}

func (a *app) seed(ctx context.Context, out io.Writer, cfg seedConfig) error {
	books, err := a.books(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.dumpDir != "" {
		path, err := dataset.WriteDataset(books, cfg.dumpDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Generated %d books into %s\n", len(books), path)
		return nil
	}

	client, err := a.graphClient(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(context.Background()); err != nil {
			a.logger.Warn("closing graph client failed", "error", err)
		}
	}()

	start := time.Now()
	a.logger.Info("loading books", "count", len(books), "batch", cfg.batch, "workers", cfg.workers)
	written, err := dataset.NewBulkLoader(client, a.logger, cfg.batch, cfg.workers).Load(ctx, books)
	if err != nil {
		return fmt.Errorf("load books (%d written): %w", written, err)
	}
	a.logger.Info("seeding complete", "duration", time.Since(start).String(), "books", written)
	fmt.Fprintf(out, "Loaded %d books\n", written)
	return nil
}

func (a *app) books(ctx context.Context, cfg seedConfig) ([]dataset.Book, error) {
	if cfg.fromFile != "" {
		books, err := dataset.ReadDataset(cfg.fromFile)
		if err != nil {
			return nil, err
		}
		if len(books) == 0 {
			return nil, fmt.Errorf("dataset %s is empty", cfg.fromFile)
		}
		return books, nil
	}

	def := dataset.DefaultConfig()
	gen := dataset.New(dataset.Config{
		NumBooks:          cfg.books,
		EbookChance:       def.EbookChance,
		MissingYearChance: def.MissingYearChance,
		LongBookChance:    def.LongBookChance,
		Seed:              cfg.seed,
	})
	books, err := gen.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate books: %w", err)
	}
	return books, nil
}

// graphClient opens a bare client for bulk writes, which run concurrently and
// so bypass the single-connection harness.
func (a *app) graphClient(ctx context.Context) (graph.Client, error) {
	if err := a.cfg.Graph.Validate(); err != nil {
		return nil, err
	}
	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            a.cfg.Graph.URI,
		Database:       a.cfg.Graph.Database,
		Username:       a.cfg.Graph.Username,
		Password:       a.cfg.Graph.Password,
		MaxConnections: a.cfg.Graph.MaxConnections,
		ConnectTimeout: a.cfg.Graph.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("connected to graph", "uri", a.cfg.Graph.URI, "database", a.cfg.Graph.Database)
	return client, nil
}
