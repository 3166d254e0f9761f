// Package cmd contains the newsrag command-line entry points.
//
// All application logic lives here; main.go stays a minimal shim.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// Execute is the main entry point for the newsrag binary.
// Special flags are handled before full initialization so --version and
// --help work even with an invalid configuration.
func Execute() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			return printVersionInfo()
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "serve":
			return runServe()
		default:
			printHelp()
			return fmt.Errorf("unknown command %q", os.Args[1])
		}
	}

	// Serving is the default behavior.
	return runServe()
}

// initLogger initializes the structured logger.
// Setting the DEBUG environment variable (any value) raises the level.
func initLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// printHelp displays the help message.
func printHelp() {
	fmt.Println("newsrag - retrieval-augmented chat over a news article corpus")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  newsrag [serve]      Start the HTTP server (default)")
	fmt.Println("  newsrag version      Show version information")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  GEMINI_API_KEY   API key for embeddings and generation (required)")
	fmt.Println("  PORT             HTTP listen port (default 3000)")
	fmt.Println("  QDRANT_URL       Vector index base URL (default http://localhost:6333)")
	fmt.Println("  REDIS_URL        Session store URL (default redis://localhost:6379)")
	fmt.Println("  DATABASE_URL     PostgreSQL audit store (optional)")
}
