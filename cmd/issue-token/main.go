package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dimitrije/capacity-planner/internal/config"
	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/dimitrije/capacity-planner/internal/storage"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: issue-token <member-email>")
		os.Exit(1)
	}

	email := strings.TrimSpace(os.Args[1])

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	backend, release, err := storage.Open(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer release()

	snap, err := backend.FetchAll(ctx)
	if err != nil {
		log.Fatalf("Failed to read team members: %v", err)
	}

	for _, member := range snap.TeamMembers {
		if !strings.EqualFold(member.Email, email) {
			continue
		}
		if !member.IsActive {
			log.Fatalf("Team member %s is inactive", email)
		}

		token, err := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry).GenerateAccessToken(member.ID, member.Email)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}

		fmt.Fprintf(os.Stderr, "Token for %s (%s), valid for %ds\n", member.FullName, member.ID, token.ExpiresIn)
		fmt.Println(token.Token)
		return
	}

	log.Fatalf("No team member found with email: %s", email)
}
