// seed inserts a local-dev admin user, a category, and a handful of jobs
// exercising the registered job classes. Run: go run ./cmd/seed
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cronhub/scheduler/internal/domain"
	"github.com/cronhub/scheduler/internal/store/postgres"

	_ "github.com/cronhub/scheduler/jobs/echo"
	_ "github.com/cronhub/scheduler/jobs/httpping"
)

const seedAdminUsername = "seed-admin"
const seedAdminPassword = "seed-admin-password"

type jobSpec struct {
	name           string
	jobClassString string
	pubArgs        []any
	trigger        domain.Trigger
}

var jobSpecs = []jobSpec{
	{
		name:           "echo-every-minute",
		jobClassString: "echo",
		pubArgs:        []any{"hello from seed"},
		trigger:        domain.Trigger{Minute: "*"},
	},
	{
		name:           "echo-every-five-minutes",
		jobClassString: "echo",
		pubArgs:        []any{map[string]any{"seeded": true}},
		trigger:        domain.Trigger{Minute: "*/5"},
	},
	{
		name:           "httpping-hourly",
		jobClassString: "httpping",
		pubArgs:        []any{"https://example.com"},
		trigger:        domain.Trigger{Minute: "0"},
	},
	{
		name:           "echo-paused",
		jobClassString: "echo",
		pubArgs:        []any{"never runs"},
		trigger:        domain.Trigger{Minute: "*"},
	},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_CONFIG")
	if dbURL == "" {
		log.Fatal("DATABASE_CONFIG is not set")
	}

	st, err := postgres.New(ctx, postgres.DefaultPoolConfig(dbURL), postgres.DefaultTableNames(), nil)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer st.Close()

	if err := st.AddUser(ctx, &domain.User{Username: seedAdminUsername, IsAdmin: true, IsPermission: true}, seedAdminPassword); err != nil {
		log.Printf("seed admin user: %v (may already exist)", err)
	}

	category := &domain.Category{Name: "seed", Description: "jobs inserted by cmd/seed"}
	if err := st.AddCategory(ctx, category); err != nil {
		log.Printf("seed category: %v (may already exist)", err)
	}

	now := time.Now()
	var created []string
	for i, spec := range jobSpecs {
		pubArgs, err := marshalArgs(spec.pubArgs)
		if err != nil {
			log.Fatalf("marshal pub_args for %s: %v", spec.name, err)
		}

		job := &domain.Job{
			ID:             strings.ReplaceAll(uuid.NewString(), "-", ""),
			Name:           spec.name,
			JobClassString: spec.jobClassString,
			PubArgs:        pubArgs,
			Trigger:        spec.trigger,
			Paused:         spec.name == "echo-paused",
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := st.CreateJob(ctx, job); err != nil {
			log.Fatalf("create job %s: %v", spec.name, err)
		}
		if i == 0 {
			if err := st.SetJobCategory(ctx, job.ID, category.ID); err != nil {
				log.Printf("link job %s to category: %v", job.Name, err)
			}
		}
		created = append(created, job.ID)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Admin user:   %s / %s\n", seedAdminUsername, seedAdminPassword)
	fmt.Printf("  Category:     %q (id %d)\n", category.Name, category.ID)
	fmt.Printf("  Jobs created: %d\n", len(created))
	fmt.Println()
	for i, id := range created {
		fmt.Printf("    %-28s %s\n", jobSpecs[i].name, id)
	}
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  curl -s localhost:8080/api/v1/auth/login -d '{\"username\":\"seed-admin\",\"password\":\"seed-admin-password\"}'")
	fmt.Println("  export JWT=<token from above>")
	fmt.Println("  curl -s localhost:8080/api/v1/jobs -H \"Authorization: Bearer $JWT\"")
}

func marshalArgs(args []any) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(args))
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
