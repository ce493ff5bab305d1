// Package main implements a standalone seed script that populates the
// storefront database with the bakery catalog and a default admin account.
// Re-runs are idempotent: IDs are derived deterministically from slugs and
// inserts use ON CONFLICT DO NOTHING.
//
// Run: go run scripts/seed_catalog.go
//   (from the repo root, or: cd scripts && go run seed_catalog.go)
package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// deterministicUUID produces a stable UUID-shaped string from a namespace and
// a name so that re-runs always produce the same row IDs.
func deterministicUUID(namespace, name string) string {
	h := sha256.Sum256([]byte(namespace + ":" + name))
	hex := fmt.Sprintf("%x", h[:16])
	return fmt.Sprintf("%s-%s-4%s-%x%s-%s",
		hex[0:8],
		hex[8:12],
		hex[13:16],
		0x8|(h[8]&0x3),
		hex[17:20],
		hex[20:32],
	)
}

type productDef struct {
	Name        string
	Slug        string
	Description string
	Category    string
	Price       int64 // whole KES
}

var catalog = []productDef{
	{"Sourdough Loaf", "sourdough-loaf", "Naturally leavened country loaf, baked daily.", "bread", 450},
	{"Whole Wheat Loaf", "whole-wheat-loaf", "Stone-milled whole wheat sandwich loaf.", "bread", 350},
	{"Baguette", "baguette", "Classic French baguette with an open crumb.", "bread", 250},
	{"Seeded Rye", "seeded-rye", "Dense rye with sunflower and pumpkin seeds.", "bread", 500},
	{"Chapati Pack (5)", "chapati-pack-5", "Soft layered chapati, pack of five.", "bread", 200},
	{"Chocolate Croissant", "chocolate-croissant", "Laminated butter pastry with dark chocolate batons.", "pastries", 250},
	{"Butter Croissant", "butter-croissant", "Plain croissant, 27 layers of butter.", "pastries", 200},
	{"Cinnamon Roll", "cinnamon-roll", "Brioche roll with cinnamon sugar and cream cheese glaze.", "pastries", 300},
	{"Cinnamon Rolls (Box of 6)", "cinnamon-rolls-box-of-6", "Half a dozen cinnamon rolls, boxed for sharing.", "pastries", 1600},
	{"Mandazi (4)", "mandazi-4", "Lightly sweet coconut mandazi, pack of four.", "pastries", 150},
	{"Chocolate Fudge Cake", "chocolate-fudge-cake", "Three-layer chocolate cake with fudge frosting.", "cakes", 2800},
	{"Vanilla Birthday Cake", "vanilla-birthday-cake", "Vanilla sponge with buttercream, serves twelve.", "cakes", 2500},
	{"Carrot Cake", "carrot-cake", "Spiced carrot cake with cream cheese frosting.", "cakes", 2600},
	{"Lemon Drizzle Loaf", "lemon-drizzle-loaf", "Buttery loaf cake soaked in lemon syrup.", "cakes", 1200},
	{"Red Velvet Cupcakes (6)", "red-velvet-cupcakes-6", "Six red velvet cupcakes with cream cheese swirl.", "cakes", 1100},
	{"Chocolate Chip Cookies (10)", "chocolate-chip-cookies-10", "Chewy cookies with dark chocolate chunks.", "cookies", 600},
	{"Oatmeal Raisin Cookies (10)", "oatmeal-raisin-cookies-10", "Old-fashioned oatmeal cookies with raisins.", "cookies", 550},
	{"Shortbread Tin", "shortbread-tin", "All-butter shortbread fingers in a gift tin.", "cookies", 900},
	{"Queen Cakes (6)", "queen-cakes-6", "Traditional queen cakes, pack of six.", "cookies", 300},
	{"Samosa (Beef, 4)", "samosa-beef-4", "Crisp pastry triangles with spiced beef filling.", "savoury", 400},
	{"Sausage Roll", "sausage-roll", "Flaky pastry around seasoned pork sausage.", "savoury", 180},
	{"Meat Pie", "meat-pie", "Hand pie with slow-cooked beef and gravy.", "savoury", 350},
	{"Cheese Twist", "cheese-twist", "Puff pastry twist with mature cheddar.", "savoury", 220},
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("POSTGRES_USER", "storefront"),
		getEnv("POSTGRES_PASSWORD", "storefront_secret"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB_NAME", "storefront_db"),
		getEnv("POSTGRES_SSL_MODE", "disable"),
	)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping postgres: %v", err)
	}

	// -------------------------------------------------------------------
	// 1. Seed the admin account
	// -------------------------------------------------------------------
	log.Println("Inserting admin user...")

	adminEmail := getEnv("SEED_ADMIN_EMAIL", "admin@ovenworks.co.ke")
	adminPassword := getEnv("SEED_ADMIN_PASSWORD", "ChangeMe123")
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, phone, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'admin', TRUE, NOW(), NOW())
		ON CONFLICT (email) DO NOTHING
	`, deterministicUUID("user", adminEmail), adminEmail, string(hash), "Shop Admin", getEnv("SHOP_WHATSAPP_NUMBER", "254700000000"))
	if err != nil {
		log.Fatalf("insert admin user: %v", err)
	}

	// -------------------------------------------------------------------
	// 2. Seed the product catalog
	// -------------------------------------------------------------------
	log.Println("Inserting products...")

	inserted := 0
	for _, p := range catalog {
		tag, err := pool.Exec(ctx, `
			INSERT INTO products (id, name, slug, description, category, price, currency, image_url, in_stock, rating_mean, ratings_count, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'KES', $7, TRUE, 0, 0, NOW(), NOW())
			ON CONFLICT (slug) DO NOTHING
		`,
			deterministicUUID("product", p.Slug),
			p.Name, p.Slug, p.Description, p.Category, p.Price,
			fmt.Sprintf("https://picsum.photos/seed/%s/600/600", p.Slug),
		)
		if err != nil {
			log.Fatalf("insert product %s: %v", p.Slug, err)
		}
		inserted += int(tag.RowsAffected())
	}

	log.Printf("Done. Inserted %d of %d products (existing rows skipped).", inserted, len(catalog))
}
