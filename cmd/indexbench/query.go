package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanshika/indexbench/internal/bench"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		cypher string
		params []string
		write  bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Time a single Cypher statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}
			return a.runQuery(cmd.Context(), cmd.OutOrStdout(), bench.NamedQuery{
				Name:   "adhoc",
				Cypher: cypher,
				Params: parsed,
				Write:  write,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cypher, "cypher", "", "Statement to run")
	flags.StringArrayVar(&params, "param", nil, "Query parameter as key=value (repeatable)")
	flags.BoolVar(&write, "write", false, "Run in a write session")
	_ = cmd.MarkFlagRequired("cypher")

	return cmd
}

func (a *app) runQuery(ctx context.Context, out io.Writer, q bench.NamedQuery) error {
	h, cleanup, err := a.openHarness(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	rows, elapsed, err := h.ExecuteTimed(ctx, q)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}
	fmt.Fprintf(out, "%d rows in %ss\n", len(rows), bench.FormatSeconds(elapsed))
	return nil
}

// parseParams turns key=value pairs into driver parameters. Values that parse
// as integers, floats or booleans keep that type; anything else is a string.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q (want key=value)", pair)
		}
		out[key] = parseValue(value)
	}
	return out, nil
}

func parseValue(v string) any {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}
