// Package cli implements the command-line interface for lakezonal.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/hab-forecasting/lakezonal/pkg/logging"
	"github.com/hab-forecasting/lakezonal/pkg/pipeline"
	"github.com/hab-forecasting/lakezonal/pkg/raster"
	"github.com/hab-forecasting/lakezonal/pkg/s3fetch"
	"github.com/hab-forecasting/lakezonal/pkg/table"
)

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: lakezonal <command> [options]\ncommands: climate, index")
	}

	switch args[0] {
	case "climate":
		return runClimate(args[1:])
	case "index":
		return runIndex(args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func runClimate(args []string) error {
	fs := flag.NewFlagSet("climate", flag.ContinueOnError)
	dir := fs.String("dir", "", "directory holding the yearly climate raster files")
	lakesPath := fs.String("lakes", "", "lake polygon shapefile")
	year := fs.Int("year", 0, "year of the raster files")
	vars := fs.String("vars", "", "comma-separated variable subset (default: all)")
	out := fs.String("out", "", "output table path (.csv or parquet)")
	s3URI := fs.String("s3", "", "optional s3://bucket/prefix to mirror into --dir first")
	debug := fs.Bool("debug", false, "enable debug logging")
	human := fs.Bool("human", false, "human-readable console logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if *dir == "" {
		return errors.New("--dir is required")
	}
	if *lakesPath == "" {
		return errors.New("--lakes is required")
	}
	if *out == "" {
		return errors.New("--out is required")
	}
	if *year == 0 {
		return errors.New("--year is required")
	}
	varList, err := parseVars(*vars)
	if err != nil {
		return err
	}
	if err := mirror(*s3URI, *dir); err != nil {
		return err
	}

	return pipeline.RunClimate(pipeline.ClimateConfig{
		Dir:       *dir,
		LakesPath: *lakesPath,
		Year:      *year,
		Vars:      varList,
		Out:       *out,
	})
}

func runIndex(args []string) error {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	dir := fs.String("dir", "", "directory holding the composite raster files")
	lakesPath := fs.String("lakes", "", "lake polygon shapefile")
	product := fs.String("product", "daily", "composite kind: daily or monthly")
	out := fs.String("out", "", "output table path (.csv or parquet)")
	s3URI := fs.String("s3", "", "optional s3://bucket/prefix to mirror into --dir first")
	debug := fs.Bool("debug", false, "enable debug logging")
	human := fs.Bool("human", false, "human-readable console logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if *dir == "" {
		return errors.New("--dir is required")
	}
	if *lakesPath == "" {
		return errors.New("--lakes is required")
	}
	if *out == "" {
		return errors.New("--out is required")
	}
	p := raster.Product(*product)
	if p != raster.ProductDaily && p != raster.ProductMonthly {
		return fmt.Errorf("--product must be daily or monthly, got %q", *product)
	}
	if err := mirror(*s3URI, *dir); err != nil {
		return err
	}

	return pipeline.RunIndex(pipeline.IndexConfig{
		Dir:       *dir,
		LakesPath: *lakesPath,
		Product:   p,
		Out:       *out,
	})
}

// parseVars validates a comma-separated variable subset against the
// known climate variable set.
func parseVars(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	known := make(map[string]bool, len(table.ClimateVariables))
	for _, v := range table.ClimateVariables {
		known[v] = true
	}
	var out []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !known[v] {
			return nil, fmt.Errorf("--vars: unknown variable %q (known: %s)",
				v, strings.Join(table.ClimateVariables, ", "))
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("--vars: no variables given")
	}
	return out, nil
}

// mirror optionally pulls raster inputs down from S3 before the run.
func mirror(uri, dir string) error {
	if uri == "" {
		return nil
	}
	ctx := context.Background()
	client, err := s3fetch.NewClient(ctx)
	if err != nil {
		return err
	}
	n, err := client.Mirror(ctx, uri, dir)
	if err != nil {
		return fmt.Errorf("mirror %s: %w", uri, err)
	}
	logging.L().Info().Int("downloaded", n).Str("uri", uri).Msg("inputs mirrored")
	return nil
}
