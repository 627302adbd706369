package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/xelth-com/eckdocs/internal/config"
	"github.com/xelth-com/eckdocs/internal/database"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/render"
	"github.com/xelth-com/eckdocs/internal/services/businesses"
	"github.com/xelth-com/eckdocs/internal/services/templates"
	"github.com/xelth-com/eckdocs/internal/storage"
	"github.com/xelth-com/eckdocs/internal/theme"
	"github.com/xelth-com/eckdocs/internal/utils"
)

// starter themes seeded as global templates, the first of each type becomes its default
var starters = []struct {
	name  string
	theme theme.Theme
}{
	{"Classic", theme.Default()},
	{"Ocean", theme.Theme{PrimaryColor: "#0E7490", SecondaryColor: "#164E63", AccentColor: "#F59E0B", FontFamily: "Open Sans"}},
	{"Serif", theme.Theme{PrimaryColor: "#1F2937", SecondaryColor: "#374151", AccentColor: "#B91C1C", FontFamily: "Times New Roman"}},
}

func main() {
	demoEmail := flag.String("demo-email", "", "also create a demo owner with this email and a demo business")
	demoPassword := flag.String("demo-password", "demo-password", "password for the demo owner")
	flag.Parse()

	fmt.Println("🌱 eckdocs Seeder")
	fmt.Println(strings.Repeat("=", 60))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	blobs, _, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Failed to initialize storage: %v", err)
	}

	ctx := context.Background()
	store := templates.NewGormStore(db.DB)
	svc := templates.NewService(store, blobs, nil, templates.Config{
		TemplatesContainer: cfg.Storage.TemplatesContainer,
		PreviewsContainer:  cfg.Storage.PreviewsContainer,
		DefaultCurrency:    cfg.Documents.DefaultCurrency,
	})

	for _, docType := range models.DocumentTypes() {
		existing, err := store.DefaultTemplate(ctx, nil, docType)
		if err != nil {
			log.Fatalf("❌ Failed to check templates: %v", err)
		}
		if existing != nil {
			fmt.Printf("⏭️  %s: global default %q already present\n", docType, existing.Name)
			continue
		}
		for i, s := range starters {
			data, err := render.StarterTemplate(s.name, s.theme)
			if err != nil {
				log.Fatalf("❌ Failed to build %s template: %v", s.name, err)
			}
			th := s.theme
			res, err := svc.Upload(ctx, templates.UploadRequest{
				Type:      docType,
				Name:      s.name,
				Data:      data,
				Theme:     &th,
				IsDefault: i == 0,
			})
			if err != nil {
				log.Fatalf("❌ Failed to upload %s %s: %v", docType, s.name, err)
			}
			fmt.Printf("📝 %s: %s v%d -> %s\n", docType, res.Template.Name, res.Template.Version, res.Template.BlobPath)
		}
	}

	if *demoEmail != "" {
		if err := seedDemoOwner(ctx, db.DB, cfg, *demoEmail, *demoPassword); err != nil {
			log.Fatalf("❌ Failed to seed demo owner: %v", err)
		}
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("✅ Seeding complete")
}

func seedDemoOwner(ctx context.Context, db *gorm.DB, cfg *config.Config, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.UserAuth
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		fmt.Printf("⏭️  User %s already exists\n", email)
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	user = models.UserAuth{
		Username: strings.Split(email, "@")[0],
		Email:    email,
		Password: hash,
		Name:     "Demo Owner",
		Role:     "user",
		IsActive: true,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	biz, err := businesses.NewService(businesses.NewGormStore(db), cfg.Documents.DefaultCurrency).Create(ctx, user.ID, businesses.CreateRequest{
		Name:     "Demo Shop",
		Category: "Retail",
		County:   "Nairobi",
		Town:     "Nairobi",
		Phone:    "+254 700 000 000",
	})
	if err != nil {
		return err
	}
	fmt.Printf("👤 Demo owner %s / business %s (%s)\n", email, biz.Name, biz.ID)
	return nil
}
