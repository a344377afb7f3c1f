package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"tubebatch/internal/adapters/csvsource"
	"tubebatch/internal/adapters/downloader"
	"tubebatch/internal/adapters/localstorage"
	"tubebatch/internal/adapters/proxy"
	"tubebatch/internal/adapters/ytdlp"
	"tubebatch/internal/config"
	"tubebatch/internal/service"
)

func main() {
	// Load .env file if it exists
	if err := config.LoadDotEnv(); err != nil {
		log.Println(err)
	}

	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		fmt.Println("\nUsage: tubebatch -jobs <videos.csv> [-out <dir>] [-workers N] [-proxy-host IP] [-proxy-port PORT]")
		fmt.Println("\nExample:")
		fmt.Println("  tubebatch -jobs ./data/tennis/videos.csv -out ./datasets/tennis")
		os.Exit(2)
	}

	// Setup logger
	logger := log.New(os.Stdout, "", log.LstdFlags)

	logger.Println("=== Batch Video Downloader ===")
	logger.Printf("Jobs:       %s", cfg.JobsFile)
	logger.Printf("Output:     %s", cfg.OutputDir)
	logger.Printf("Proxy:      %s:%d (probe=%t)", cfg.ProxyHost, cfg.ProxyPort, cfg.Probe)

	// Initialize adapters
	source := csvsource.NewSource(cfg.JobsFile)
	validator := proxy.NewValidator(cfg.ProbeURL, cfg.ProbeTimeout, logger)
	fetcher := ytdlp.NewFetcher(cfg.YtDlpPath)
	storage := localstorage.NewLocalStorage()
	transfer := service.NewTransfer(downloader.NewHTTPDownloader(), storage, logger)

	// Build the execution chain
	executor := service.NewExecutor(fetcher, transfer, storage, logger)
	controller := service.NewRetryController(executor, service.DefaultMaxAttempts, logger)
	pool := service.NewPool(controller, cfg.Workers, cfg.OutputDir, logger)
	orchestrator := service.NewOrchestrator(source, validator, pool, storage, logger)

	result, err := orchestrator.RunBatch(context.Background(), service.BatchOptions{
		ProxyHost:  cfg.ProxyHost,
		ProxyPort:  cfg.ProxyPort,
		Probe:      cfg.Probe,
		ResultPath: cfg.ResultPath,
	})
	if err != nil {
		logger.Printf("Batch failed: %v", err)
		os.Exit(1)
	}

	// Print summary
	fmt.Println("\n=== Batch Summary ===")
	fmt.Printf("Run ID:       %s\n", result.RunID)
	fmt.Printf("Proxy OK:     %t\n", result.ProxyOK)
	fmt.Printf("Jobs:         %d\n", len(result.Results))
	fmt.Printf("Succeeded:    %d\n", result.Succeeded)
	fmt.Printf("Failed:       %d\n", result.Failed)
	fmt.Printf("Results:      %s\n", result.ResultPath)
	fmt.Printf("Completed At: %s\n", result.CompletedAt.Format("2006-01-02 15:04:05 UTC"))
}
