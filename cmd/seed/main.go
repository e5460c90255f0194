package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"tenant-fanout-pipeline/internal/config"
	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/repository"
	pg "tenant-fanout-pipeline/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	tenantRepo := pg.NewTenantRepo(pool)

	// If tenants already exist, do nothing
	existing, err := tenantRepo.ListActive(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list tenants: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d active tenants already present. No changes.\n", len(existing))
		for _, t := range existing {
			fmt.Printf("  - %s (%s)\n", t.Name, t.ID)
		}
		return
	}

	// Seed a few sample tenants for exercising the pipeline locally
	seed := []struct {
		ID   string
		Name string
	}{
		{"acme", "Acme Corp"},
		{"globex", "Globex Inc"},
		{"initech", "Initech LLC"},
	}

	for _, s := range seed {
		t := model.NewTenant(s.ID, s.Name)
		if err := tenantRepo.Save(ctx, repository.NoTX, t); err != nil {
			log.Fatalf("save tenant %q: %v", s.ID, err)
		}
		fmt.Printf("seeded: %s (id=%s)\n", t.Name, t.ID)
	}

	fmt.Println("Seeding complete.")
}
