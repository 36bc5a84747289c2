// Command locationservice runs one Location Service instance (spec
// §4.2): the per-site component owning a registry of fingerprint
// devices. Subcommands and exit codes follow spec §6's CLI surface.
//
// @title Location Service API
// @version 1.0
// @description Per-site fingerprint device gateway: devices, users, attendance, summaries.
// @BasePath /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/biometricfleet/attendance/internal/app"
	"github.com/biometricfleet/attendance/internal/infrastructure/config"
	"github.com/biometricfleet/attendance/pkg/logger"
)

const (
	exitOK = iota
	exitConfigError
	exitRuntimeFailure
	exitAuthMisconfigured
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("locationservice", flag.ContinueOnError)
	configPath := fs.String("config", envOr("LOCATION_CONFIG", "config/location.yaml"), "path to the location config file")

	sub := "start"
	rest := args
	if len(args) > 0 && !isFlag(args[0]) {
		sub = args[0]
		rest = args[1:]
	}
	if err := fs.Parse(rest); err != nil {
		return exitConfigError
	}

	switch sub {
	case "start":
		return cmdStart(*configPath)
	case "reload-config":
		return cmdReloadConfig(*configPath)
	case "health":
		return cmdHealth(*configPath)
	case "generate-keys":
		return cmdGenerateKeys()
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q (want start|reload-config|health|generate-keys)\n", sub)
		return exitConfigError
	}
}

func cmdStart(configPath string) int {
	application := app.NewLocationApplication(configPath)

	if err := application.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize location service: %v\n", err)
		if app.IsAuthMisconfigured(err) {
			return exitAuthMisconfigured
		}
		return exitConfigError
	}

	if err := application.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start location service: %v\n", err)
		return exitRuntimeFailure
	}

	application.WaitForShutdown()

	if err := application.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
		return exitRuntimeFailure
	}
	return exitOK
}

// cmdReloadConfig validates that configPath still parses cleanly. The
// running process picks up file changes on its own via fsnotify (spec
// §4.4); this subcommand gives an operator a dry-run check to run
// before (or instead of) touching the file the live process watches.
func cmdReloadConfig(configPath string) int {
	log := logger.New("info", "production")
	if _, err := config.LoadLocation(configPath, log); err != nil {
		fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
		return exitConfigError
	}
	fmt.Println("config OK")
	return exitOK
}

// cmdHealth reads configPath to find this service's own listen
// address and probes GET /health against it, for use as a container
// healthcheck command.
func cmdHealth(configPath string) int {
	log := logger.New("error", "production")
	store, err := config.LoadLocation(configPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
		return exitConfigError
	}
	snap := store.Snapshot()
	host := snap.Server.Host
	if host == "0.0.0.0" || host == "" {
		host = "127.0.0.1"
	}
	url := fmt.Sprintf("http://%s:%d/health", host, snap.Server.Port)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		return exitRuntimeFailure
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "health check returned status %d\n", resp.StatusCode)
		return exitRuntimeFailure
	}
	fmt.Println("healthy")
	return exitOK
}

// cmdGenerateKeys prints a random 32-byte hex secret suitable for
// jwt_secret or api_key, the operator's bootstrap step before a first
// `start` (spec §4.4: secrets must be >=32 bytes).
func cmdGenerateKeys() int {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
		return exitRuntimeFailure
	}
	fmt.Println(hex.EncodeToString(buf))
	return exitOK
}

func isFlag(arg string) bool {
	return len(arg) > 0 && arg[0] == '-'
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
