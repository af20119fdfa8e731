// Command issue-token mints a principal bearer token for the sales agent API
// and MCP endpoint.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/numaras/salesagent-sub000/internal/config"
	"github.com/numaras/salesagent-sub000/internal/database"
	"github.com/numaras/salesagent-sub000/internal/services/auth"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "issue-token: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var tenantID, principalID, protocol string
	var ttl time.Duration

	_ = godotenv.Load()
	cfg := config.Load()

	flagSet := pflag.NewFlagSet("issue-token", pflag.ContinueOnError)
	flagSet.StringVar(&tenantID, "tenant", "", "tenant ID the principal belongs to (required)")
	flagSet.StringVar(&principalID, "principal", "", "principal ID to issue the token for (required)")
	flagSet.StringVar(&protocol, "protocol", "mcp", "protocol recorded in the token: mcp or a2a")
	flagSet.DurationVar(&ttl, "ttl", cfg.TokenTTL, "token lifetime")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if tenantID == "" || principalID == "" {
		return fmt.Errorf("--tenant and --principal are required")
	}
	if protocol != "mcp" && protocol != "a2a" {
		return fmt.Errorf("unsupported protocol %q", protocol)
	}
	if cfg.Database.Driver == config.DriverMemory {
		return fmt.Errorf("DB_DRIVER=memory has no principals to issue tokens for")
	}

	logrus.SetLevel(logrus.WarnLevel)
	store, err := database.OpenStore(cfg.Database)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token, err := auth.NewTokenService(store.Principals(), cfg.JWTSecret, ttl).IssueToken(ctx, tenantID, principalID, protocol)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
