package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"clientregistry/internal/auth"
	"clientregistry/internal/clients"
	"clientregistry/internal/shared/config"
	"clientregistry/internal/shared/database"
	"clientregistry/pkg/cache"
	"clientregistry/pkg/logger"
)

const seedPassword = "senhaforte"

type Seeder struct {
	db      *database.DB
	repo    clients.Repository
	service clients.Service
	log     *logger.Logger
}

func main() {
	clean := flag.Bool("clean", true, "truncate the clients table before seeding")
	flag.Parse()

	fmt.Println("🌱 Starting client registry seeder...")
	_ = godotenv.Load()

	// Only the database and auth sections are needed here
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewWithLevel(cfg.LogLevel)

	db, err := database.InitDB(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db.GetPostgreSQL(), &clients.Client{}); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordAlgorithm, cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to build password hasher: %v", err)
	}

	repo := clients.NewRepository(db.GetPostgreSQL())
	seeder := &Seeder{
		db:      db,
		repo:    repo,
		service: clients.NewService(repo, hasher, cache.NewService(db.GetRedisClient()), nil, appLogger),
		log:     appLogger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *clean {
		fmt.Println("\n🧹 Cleaning database...")
		if err := seeder.CleanDatabase(ctx); err != nil {
			log.Fatalf("Failed to clean database: %v", err)
		}
		fmt.Println("✅ Database cleaned successfully")
	}

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(ctx, cfg.Admin); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("\n🎉 Seeding completed! Every seeded account uses the password:", seedPassword)
}

// CleanDatabase truncates the clients table and drops cached client entries.
func (s *Seeder) CleanDatabase(ctx context.Context) error {
	if err := s.db.PostgreSQL.WithContext(ctx).Exec("TRUNCATE TABLE clients").Error; err != nil {
		return fmt.Errorf("failed to truncate clients: %w", err)
	}
	return cache.NewService(s.db.GetRedisClient()).DeletePattern(ctx, "clientregistry:clients:*")
}

// SeedAll seeds the administrator and a handful of regular clients.
func (s *Seeder) SeedAll(ctx context.Context, admin config.AdminConfig) error {
	if admin.Password == "" {
		admin.Password = seedPassword
	}
	if err := clients.BootstrapAdmin(ctx, s.service, s.repo, clients.AdminSeed{
		Name:     admin.Name,
		Email:    admin.Email,
		Password: admin.Password,
		Birthday: admin.Birthday,
		Phone:    admin.Phone,
		CPF:      admin.CPF,
	}, s.log); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	fmt.Printf("  👑 Admin: %s\n", admin.Email)

	return s.SeedClients(ctx)
}

// SeedClients creates regular USER accounts.
func (s *Seeder) SeedClients(ctx context.Context) error {
	fmt.Println("  👤 Seeding clients...")

	samples := []clients.CreateClientRequest{
		{Name: "Maria Oliveira", Birthday: "1990-05-17", Email: "maria@email.com", Phone: "11987654321", CPF: "52998224725"},
		{Name: "João Santos", Birthday: "1985-11-02", Email: "joao@email.com", Phone: "21998765432", CPF: "11144477735"},
		{Name: "Ana Costa", Birthday: "2001-02-28", Email: "ana@email.com", Phone: "31991234567", CPF: "39053344705"},
		{Name: "Pedro Lima", Birthday: "1978-07-09", Email: "pedro@email.com", Phone: "41999887766", CPF: "12345678909"},
		{Name: "Carla Souza", Birthday: "1995-12-24", Email: "carla@email.com", Phone: "51988776655", CPF: "24681357928"},
	}

	for _, req := range samples {
		req.Password = seedPassword
		created, err := s.service.CreateClient(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", req.Email, err)
		}
		fmt.Printf("    ✓ %s (%s)\n", created.Name, created.ID)
	}
	return nil
}
