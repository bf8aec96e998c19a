package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ipede/oauth2-server/internal/application"
	"github.com/ipede/oauth2-server/internal/infrastructure/config"
	"github.com/ipede/oauth2-server/internal/infrastructure/database"
	"github.com/ipede/oauth2-server/internal/infrastructure/repository"
	"go.uber.org/zap"
)

// create-client provisions a client_credentials client together with its
// service identity user and prints the generated credentials once.
//
// Usage:
//
//	create-client -scopes all,clients:read <client-name>
func main() {
	scopesCsv := flag.String("scopes", "", "Comma separated scopes granted to the client's service identity")
	flag.Parse()

	clientName := flag.Arg(0)
	if clientName == "" {
		log.Fatal("A client name must be supplied as the first argument. Example: create-client -scopes all ADD")
	}

	var scopes []string
	for _, s := range strings.Split(*scopesCsv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	provision := application.NewProvisionService(
		repository.NewClientRepository(db, logger),
		repository.NewUserRepository(db, logger),
		logger,
	)

	creds, err := provision.CreateClient(ctx, clientName, scopes)
	if err != nil {
		logger.Fatal("Error loading new client", zap.Error(err))
	}

	logger.Info("Successfully loaded new client", zap.String("client_id", creds.ClientID))

	// Print the plaintext credentials; they are not recoverable later.
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(creds); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
