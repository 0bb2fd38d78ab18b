package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vanshika/indexbench/internal/bench"
)

func newIndexesCmd(a *app) *cobra.Command {
	var suitePath string

	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Manage the indexes of a suite",
	}
	cmd.PersistentFlags().StringVar(&suitePath, "suite", "",
		"Suite YAML file (default: built-in books suite)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "drop",
			Short: "Drop every index the suite declares",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withSuiteHarness(cmd.Context(), suitePath, func(ctx context.Context, h *bench.Harness, s bench.Suite) error {
					return h.DropIndexes(ctx, bench.IndexNames(s.Indexes))
				})
			},
		},
		&cobra.Command{
			Use:   "create",
			Short: "Create every index the suite declares",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withSuiteHarness(cmd.Context(), suitePath, func(ctx context.Context, h *bench.Harness, s bench.Suite) error {
					return h.CreateIndexes(ctx, s.Indexes)
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the indexes the server reports",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.listIndexes(cmd.Context(), cmd.OutOrStdout())
			},
		},
	)
	return cmd
}

func (a *app) withSuiteHarness(ctx context.Context, suitePath string, fn func(context.Context, *bench.Harness, bench.Suite) error) error {
	suite, err := loadSuite(suitePath)
	if err != nil {
		return err
	}
	h, cleanup, err := a.openHarness(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(ctx, h, suite)
}

func (a *app) listIndexes(ctx context.Context, out io.Writer) error {
	h, cleanup, err := a.openHarness(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	names, err := h.Indexes(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
