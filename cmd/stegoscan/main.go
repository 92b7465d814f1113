// Command stegoscan validates one file, a directory of files, or runs
// the REST API server, using the pkg/stego detection engine.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/stashapp/stego/internal/api"
	"github.com/stashapp/stego/internal/config"
	"github.com/stashapp/stego/pkg/logger"
	"github.com/stashapp/stego/pkg/stego"
)

func printInfo(format string, args ...interface{}) {
	color.New(color.FgBlue).Printf("[*] "+format+"\n", args...)
}

func printSuccess(format string, args ...interface{}) {
	color.New(color.FgGreen).Printf("[+] "+format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	color.New(color.FgYellow).Printf("[!] "+format+"\n", args...)
}

func printAlert(format string, args ...interface{}) {
	color.New(color.FgRed, color.Bold).Printf("[!!!] "+format+"\n", args...)
}

func main() {
	flags := pflag.NewFlagSet("stegoscan", pflag.ExitOnError)
	filePtr := flags.String("file", "", "single file to validate")
	dirPtr := flags.String("dir", "", "directory of files to validate")
	serveFlag := flags.Bool("serve", false, "run the REST API server instead of scanning")
	sanitizeOutPtr := flags.String("sanitize-out", "", "if set, sanitize --file to this path after validation")
	configPathPtr := flags.String("config", "", "path to a YAML config file")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPathPtr, flags)
	if err != nil {
		printAlert("loading configuration: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	switch {
	case *serveFlag:
		runServer(cfg)
	case *filePtr != "":
		runSingleFile(*filePtr, *sanitizeOutPtr)
	case *dirPtr != "":
		runDirectory(*dirPtr, cfg.Concurrency)
	default:
		printAlert("one of --file, --dir, or --serve is required")
		os.Exit(1)
	}
}

func runServer(cfg config.Config) {
	printInfo("starting stegoscan API on %s", cfg.ListenAddr)
	server, err := api.NewServer(cfg)
	if err != nil {
		printAlert("starting server: %v", err)
		os.Exit(1)
	}
	if err := server.ListenAndServe(); err != nil {
		printAlert("server exited: %v", err)
		os.Exit(1)
	}
}

func runSingleFile(path, sanitizeOut string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := stego.ValidateFile(ctx, path, filepath.Base(path))
	if err != nil {
		printAlert("validating %s: %v", path, err)
		os.Exit(1)
	}

	printReport(path, report)

	if sanitizeOut != "" {
		ok, err := stego.SanitizeImage(path, sanitizeOut)
		if err != nil {
			printAlert("sanitizing %s: %v", path, err)
			os.Exit(1)
		}
		if ok {
			printSuccess("sanitized copy written to %s", sanitizeOut)
		}
	}
}

func runDirectory(dir string, concurrency int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		printAlert("reading %s: %v", dir, err)
		os.Exit(1)
	}

	var paths, names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
		names = append(names, e.Name())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	results := stego.ValidateBatch(ctx, paths, names, concurrency, func(description string, completed, total int) {
		printInfo("progress: %d/%d (%s)", completed, total, description)
	})

	for _, r := range results {
		if r.Err != nil {
			printAlert("%s: %v", r.Path, r.Err)
			continue
		}
		printReport(r.Path, r.Report)
	}
}

func printReport(path string, report *stego.SecurityReport) {
	if report.IsSafe {
		printSuccess("%s: %s (confidence %.2f)", path, report.ThreatLevel, report.Confidence)
	} else {
		printWarning("%s: %s (confidence %.2f)", path, report.ThreatLevel, report.Confidence)
	}
	for _, issue := range report.Issues {
		fmt.Printf("    issue: %s\n", issue)
	}
	for _, w := range report.Warnings {
		fmt.Printf("    warning: %s\n", w)
	}
}
