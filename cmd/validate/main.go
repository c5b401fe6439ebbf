// Command validate runs a one-shot validation batch over a spreadsheet and
// writes the augmented copy next to it as <base>_validated<ext>.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/twhitfield/addrcheck/internal"
	"github.com/twhitfield/addrcheck/internal/address"
	"github.com/twhitfield/addrcheck/internal/pipeline"
	"github.com/twhitfield/addrcheck/internal/tabular"
)

func run() error {
	var (
		inPath  = flag.String("in", "", "input spreadsheet (.csv or .xlsx)")
		outPath = flag.String("out", "", "output path (default: <base>_validated<ext>)")
	)
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		return fmt.Errorf("-in is required")
	}

	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)

	token := cfg.USPS.Token
	if token == "" {
		tokenClient := address.NewTokenClient(cfg.USPS.BaseURL, cfg.Batch.RequestTimeout)
		token, err = tokenClient.FetchToken(ctx, cfg.USPS.ClientID, cfg.USPS.ClientSecret)
		if err != nil {
			return fmt.Errorf("failed to fetch USPS token: %w", err)
		}
	}

	f, err := os.Open(*inPath)
	if err != nil {
		return fmt.Errorf("could not open input: %w", err)
	}
	input, err := tabular.Read(*inPath, f)
	f.Close()
	if err != nil {
		return fmt.Errorf("could not read input: %w", err)
	}

	standardizer := address.NewUSPSStandardizer(address.USPSConfig{
		BaseURL:      cfg.USPS.BaseURL,
		Timeout:      cfg.Batch.RequestTimeout,
		MaxRetries:   cfg.Batch.MaxRetries,
		RetryBackoff: cfg.Batch.RetryBackoff,
		Logger:       logger,
	})
	processor := pipeline.NewProcessor(standardizer, cfg.Batch.IDColumns, logger)
	runner := pipeline.NewRunner(processor, nil, logger)

	logger.Info("starting batch", "file", *inPath, "rows", input.Len())
	output, summary := runner.Run(ctx, input, token)

	dest := *outPath
	if dest == "" {
		dest = tabular.OutputPath(*inPath)
	}
	if err := tabular.Write(dest, output); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}

	fmt.Printf("wrote %s: %d rows (%d valid, %d validation errors, %d service errors)\n",
		dest, summary.Total, summary.Valid, summary.ValidationErrors, summary.ServiceErrors)
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
