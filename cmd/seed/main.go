package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/shopspring/decimal"

	"github.com/lunchuis/panel/internal/repo"
	"github.com/lunchuis/panel/internal/store"
)

func main() {
	// CLI flags
	dataPath := flag.String("data", "", "Path to the panel data file")
	force := flag.Bool("force", false, "Seed even if combos already exist")
	flag.Parse()

	// Fall back to environment variables, then defaults
	if *dataPath == "" {
		*dataPath = os.Getenv("DATA_PATH")
	}
	if *dataPath == "" {
		*dataPath = "panel.db"
	}

	s, err := store.Open(*dataPath)
	if err != nil {
		log.Fatalf("Unable to open data file %s: %v", *dataPath, err)
	}
	defer s.Close()

	ctx := context.Background()
	combos := repo.NewComboRepo(s)

	existing, err := combos.List(ctx)
	if err != nil {
		log.Fatalf("Failed to read combos: %v", err)
	}
	if len(existing) > 0 && !*force {
		log.Printf("Data file already has %d combos, skipping (use -force to seed anyway)", len(existing))
		return
	}

	seeds := []repo.CreateComboInput{
		{
			Name:           "Combo Ejecutivo",
			Description:    "Sopa del dia, arroz, carne a la plancha, ensalada y jugo",
			DailyPrice:     decimal.NewFromInt(12000),
			MonthlyPrice:   decimal.NewFromInt(10000),
			AvailableQuota: 25,
			CreatedBy:      "seed",
		},
		{
			Name:           "Combo Vegetariano",
			Description:    "Crema de verduras, arroz integral, proteina vegetal y limonada",
			DailyPrice:     decimal.NewFromInt(11000),
			MonthlyPrice:   decimal.NewFromInt(9500),
			AvailableQuota: 15,
			CreatedBy:      "seed",
		},
		{
			Name:           "Combo Especial",
			Description:    "Entrada, bandeja paisa, postre y bebida",
			DailyPrice:     decimal.NewFromInt(15000),
			MonthlyPrice:   decimal.NewFromInt(13000),
			AvailableQuota: 10,
			CreatedBy:      "seed",
		},
	}

	for _, in := range seeds {
		combo, err := combos.Create(ctx, in)
		if err != nil {
			log.Fatalf("Failed to seed combo %q: %v", in.Name, err)
		}
		log.Printf("Seeded combo %q (ID: %s)", combo.Name, combo.ID)
	}

	log.Println("Seed completed successfully")
}
