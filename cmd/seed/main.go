// Command main fills the configured store with demo users and posts.
package main

import (
	"context"
	"flag"
	"log"

	"postblog/internal/auth"
	"postblog/internal/bootstrap"
	"postblog/internal/config"
	"postblog/internal/middleware"
	"postblog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	postsPerUser := flag.Int("posts", 3, "Number of posts per user")
	seedValue := flag.Int64("seed", 0, "Random seed (0 for a random run)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.ConfigureLogger(cfg.IsProduction())

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to store: %v", err)
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	log.Printf("Target: %d users, %d posts each (store=%s)", *numUsers, *postsPerUser, cfg.StoreBackend)

	s := seed.NewSeeder(rt.Users, auth.NewPasswordHasher(cfg.BcryptCost), *seedValue)
	users, err := s.Run(ctx, seed.Options{NumUsers: *numUsers, PostsPerUser: *postsPerUser})
	if err != nil {
		log.Printf("Seeding stopped after %d users: %v", len(users), err)
		return
	}

	log.Printf("Created %d users. All of them use the password %q", len(users), seed.DefaultPassword)
}
