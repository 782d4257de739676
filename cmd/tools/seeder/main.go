package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedLocations(db)
	seedStockRecords(db)
	seedPriceLists(db)
	seedDiscountTiers(db)
	seedDeliveryZones(db)

	log.Println("Seeding completed successfully!")
}

func seedLocations(db *sql.DB) {
	locations := []struct {
		ID    string
		Name  string
		Phone string
		Email string
	}{
		{"depot-industrial-a", "Industrial Area Depot A", "+254700111001", "industrial-a@nyotafuel.co.ke"},
		{"depot-industrial-b", "Industrial Area Depot B", "+254700111002", "industrial-b@nyotafuel.co.ke"},
		{"depot-westlands", "Westlands Depot", "+254700111003", "westlands@nyotafuel.co.ke"},
		{"depot-thika-road", "Thika Road Depot", "+254700111004", "thika-road@nyotafuel.co.ke"},
	}

	fmt.Println("Seeding Locations...")
	for _, l := range locations {
		_, err := db.Exec(`
			INSERT INTO locations (id, name, contact_phone, contact_email)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, contact_phone = EXCLUDED.contact_phone, contact_email = EXCLUDED.contact_email;
		`, l.ID, l.Name, l.Phone, l.Email)
		if err != nil {
			log.Printf("Failed to upsert location %s: %v", l.ID, err)
		}
	}
}

func seedStockRecords(db *sql.DB) {
	records := []struct {
		LocationID string
		FuelType   string
		Capacity   int64
		Stock      int64
	}{
		{"depot-industrial-a", "PMS", 150_000, 85_000},
		{"depot-industrial-a", "AGO", 200_000, 140_000},
		{"depot-industrial-a", "IK", 50_000, 22_000},
		{"depot-industrial-b", "PMS", 120_000, 60_000},
		{"depot-industrial-b", "AGO", 180_000, 95_000},
		{"depot-westlands", "PMS", 80_000, 45_000},
		{"depot-westlands", "IK", 30_000, 12_000},
		{"depot-thika-road", "PMS", 100_000, 70_000},
		{"depot-thika-road", "AGO", 100_000, 55_000},
	}

	fmt.Println("Seeding Stock Records...")
	for _, s := range records {
		_, err := db.Exec(`
			INSERT INTO stock_records (location_id, fuel_type, capacity, current_stock, reserved, version)
			VALUES ($1, $2, $3, $4, 0, 1)
			ON CONFLICT (location_id, fuel_type) DO NOTHING;
		`, s.LocationID, s.FuelType, s.Capacity, s.Stock)
		if err != nil {
			log.Printf("Failed to seed stock %s/%s: %v", s.LocationID, s.FuelType, err)
		}
	}
}

func seedDiscountTiers(db *sql.DB) {
	// max_volume -1 marks the open-ended top bracket.
	tiers := []struct {
		Name      string
		MinVolume int64
		MaxVolume int64
		RateBps   int32
	}{
		{"Retail", 0, 999, 0},
		{"Small Bulk", 1_000, 4_999, 250},
		{"Medium Bulk", 5_000, 9_999, 500},
		{"Large Bulk", 10_000, 24_999, 750},
		{"Commercial", 25_000, -1, 1_000},
	}

	fmt.Println("Seeding Discount Tiers...")
	for _, t := range tiers {
		_, err := db.Exec(`
			INSERT INTO discount_tiers (name, min_volume, max_volume, rate_bps)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO UPDATE SET min_volume = EXCLUDED.min_volume, max_volume = EXCLUDED.max_volume, rate_bps = EXCLUDED.rate_bps;
		`, t.Name, t.MinVolume, t.MaxVolume, t.RateBps)
		if err != nil {
			log.Printf("Failed to upsert discount tier %s: %v", t.Name, err)
		}
	}
}

func seedDeliveryZones(db *sql.DB) {
	zones := []struct {
		ID            string
		Name          string
		BaseCost      int64
		EstimatedTime string
		FreeThreshold int64
	}{
		{"cbd", "CBD", 0, "2-4 hours", 0},
		{"westlands", "Westlands", 50_000, "3-5 hours", 10_000},
		{"industrial-area", "Industrial Area", 30_000, "2-4 hours", 5_000},
		{"karen", "Karen", 80_000, "4-6 hours", 15_000},
		{"thika-road", "Thika Road", 60_000, "4-6 hours", 10_000},
	}

	fmt.Println("Seeding Delivery Zones...")
	for _, z := range zones {
		_, err := db.Exec(`
			INSERT INTO delivery_zones (id, name, base_cost_minor, estimated_time, free_delivery_threshold)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, base_cost_minor = EXCLUDED.base_cost_minor, estimated_time = EXCLUDED.estimated_time, free_delivery_threshold = EXCLUDED.free_delivery_threshold;
		`, z.ID, z.Name, z.BaseCost, z.EstimatedTime, z.FreeThreshold)
		if err != nil {
			log.Printf("Failed to upsert delivery zone %s: %v", z.ID, err)
		}
	}
}

func seedPriceLists(db *sql.DB) {
	// Prices are pump prices in minor units (cents) per litre.
	prices := []struct {
		FuelType string
		Price    int64
	}{
		{"PMS", 18_452},
		{"AGO", 17_128},
		{"IK", 14_990},
	}
	locations := []string{"depot-industrial-a", "depot-industrial-b", "depot-westlands", "depot-thika-road"}

	fmt.Println("Seeding Price Lists...")
	for _, loc := range locations {
		for _, p := range prices {
			_, err := db.Exec(`
				INSERT INTO price_lists (location_id, fuel_type, price_minor, effective_date)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (location_id, fuel_type, effective_date) DO NOTHING;
			`, loc, p.FuelType, p.Price)
			if err != nil {
				log.Printf("Failed to seed price %s/%s: %v", loc, p.FuelType, err)
			}
		}
	}
}
