package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/lunchuis/panel/internal/config"
	"github.com/lunchuis/panel/internal/gateway"
	"github.com/lunchuis/panel/internal/repo"
	"github.com/lunchuis/panel/internal/router"
	"github.com/lunchuis/panel/internal/store"
	"github.com/lunchuis/panel/internal/ws"
)

func main() {
	cfg := config.Load()

	s, err := store.Open(cfg.DataPath)
	if err != nil {
		log.Fatalf("ERROR: failed to open data file %s: %v", cfg.DataPath, err)
	}
	defer s.Close()

	comboRepo := repo.NewComboRepo(s)
	orderRepo := repo.NewOrderRepo(s)

	// Outbound calls reuse the service token when one is configured,
	// otherwise they go out anonymous.
	client := gateway.NewClient(cfg.ComboServiceURL, cfg.OrderServiceURL, func() string {
		return os.Getenv("SERVICE_TOKEN")
	})
	gw := gateway.New(client, comboRepo, orderRepo, cfg.ProbeTimeout)

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, s, gw, hub)

	log.Printf("Starting panel server on :%s (data: %s)", cfg.Port, cfg.DataPath)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
