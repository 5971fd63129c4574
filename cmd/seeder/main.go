package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/adapters/postgres"
	"github.com/Sajhaaan/salespilots-backup-sub003/internal/config"
)

// CatalogItem represents a product in the seed data JSON
type CatalogItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Stock       int      `json:"stock"`
	MediaRefs   []string `json:"media_refs"`
}

// CatalogData holds the boutique catalog to be seeded
var CatalogData = []byte(`[
  { "name": "Cotton Shirt", "description": "Lightweight pure cotton shirt, full sleeves", "price": 499, "category": "Shirts", "stock": 40, "media_refs": ["DEMO_ctnshirt01"] },
  { "name": "Linen Shirt", "description": "Breathable linen shirt for summer", "price": 799, "category": "Shirts", "stock": 25, "media_refs": ["DEMO_lnshirt01"] },
  { "name": "Printed Kurti", "description": "Floral printed rayon kurti, knee length", "price": 649, "category": "Kurtis", "stock": 30, "media_refs": ["DEMO_kurti01", "DEMO_kurti02"] },
  { "name": "Anarkali Kurti", "description": "Flared anarkali kurti with embroidery", "price": 1099, "category": "Kurtis", "stock": 15, "media_refs": [] },
  { "name": "Silk Saree", "description": "Banarasi silk saree with zari border", "price": 2499, "category": "Sarees", "stock": 10, "media_refs": ["DEMO_saree01"] },
  { "name": "Cotton Saree", "description": "Handloom cotton saree, daily wear", "price": 899, "category": "Sarees", "stock": 20, "media_refs": [] },
  { "name": "Denim Jeans", "description": "Slim fit stretchable denim jeans", "price": 1299, "category": "Jeans", "stock": 35, "media_refs": ["DEMO_jeans01"] },
  { "name": "Palazzo Pants", "description": "Flowy palazzo pants, elastic waist", "price": 549, "category": "Pants", "stock": 28, "media_refs": [] },
  { "name": "Embroidered Dupatta", "description": "Chiffon dupatta with mirror work", "price": 399, "category": "Dupattas", "stock": 50, "media_refs": [] },
  { "name": "Ethnic Jacket", "description": "Sleeveless bandhgala ethnic jacket", "price": 1499, "category": "Jackets", "stock": 12, "media_refs": ["DEMO_jacket01"] }
]`)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := gorm.Open(pgdriver.Open(cfg.DBURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	repo := postgres.NewRepositoryFromDB(db)
	if err := repo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}
	log.Println("✓ Schema ready")

	businessID := seedBusiness(db, cfg)
	seedCatalog(db, businessID)

	log.Println("✓ Seeding complete")
}

func seedBusiness(db *gorm.DB, cfg *config.Config) string {
	var existing postgres.BusinessModel
	if err := db.Table("businesses").Where("name = ?", "Meera Boutique").First(&existing).Error; err == nil {
		log.Printf("Business already seeded: %s", existing.ID)
		return existing.ID
	}

	business := postgres.BusinessModel{
		ID:       uuid.New().String(),
		Name:     "Meera Boutique",
		Currency: "₹",
		UPIID:    "meeraboutique@upi",
		Language: "en",
	}
	if err := db.Table("businesses").Create(&business).Error; err != nil {
		log.Fatalf("Failed to seed business: %v", err)
	}

	// Route both platform accounts to the same business. The page id comes
	// from config so local and hosted runs can differ.
	pageID := cfg.MetaPageID
	if pageID == "" {
		pageID = "1784203991"
	}
	accounts := []postgres.BusinessAccountModel{
		{ID: uuid.New().String(), Platform: "instagram", PlatformAccountID: pageID, BusinessID: business.ID},
		{ID: uuid.New().String(), Platform: "whatsapp", PlatformAccountID: pageID, BusinessID: business.ID},
	}
	for _, account := range accounts {
		if err := db.Table("business_accounts").Create(&account).Error; err != nil {
			log.Fatalf("Failed to seed business account: %v", err)
		}
	}

	log.Printf("✓ Seeded business %s with %d platform accounts", business.ID, len(accounts))
	return business.ID
}

func seedCatalog(db *gorm.DB, businessID string) {
	var items []CatalogItem
	if err := json.Unmarshal(CatalogData, &items); err != nil {
		log.Fatalf("Failed to parse catalog data: %v", err)
	}

	var count int64
	db.Table("products").Where("business_id = ?", businessID).Count(&count)
	if count > 0 {
		log.Printf("Catalog already seeded (%d products)", count)
		return
	}

	for _, item := range items {
		product := postgres.ProductModel{
			ID:            uuid.New().String(),
			BusinessID:    businessID,
			Name:          item.Name,
			Description:   sql.NullString{String: item.Description, Valid: item.Description != ""},
			Category:      item.Category,
			Price:         item.Price,
			StockQuantity: item.Stock,
			IsActive:      true,
			CreatedAt:     time.Now(),
		}
		if err := db.Table("products").Create(&product).Error; err != nil {
			log.Fatalf("Failed to seed product %s: %v", item.Name, err)
		}
		for _, ref := range item.MediaRefs {
			media := postgres.ProductMediaModel{
				ID:        uuid.New().String(),
				ProductID: product.ID,
				Ref:       ref,
			}
			if err := db.Table("product_media").Create(&media).Error; err != nil {
				log.Fatalf("Failed to seed product media %s: %v", ref, err)
			}
		}
	}

	log.Printf("✓ Seeded %d products", len(items))
}
