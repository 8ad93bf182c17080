// Package main provides a tool to inspect the persisted wishlist and bookings.
//
// It opens the storage configured for the server (STORAGE_DRIVER, DATA_PATH,
// REDIS_URL and the matching flags) and prints what the stores rehydrate.
// The server should be stopped first when using the badger driver.
//
// Usage:
//
//	go run ./cmd/stateinspect
//	go run ./cmd/stateinspect --raw           # Also dump every stored blob
//	STORAGE_DRIVER=sqlite go run ./cmd/stateinspect
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/kellerblick/storefront/internal/config"
	"github.com/kellerblick/storefront/internal/di/providers"
	"github.com/kellerblick/storefront/internal/domain"
	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/state"
	"github.com/kellerblick/storefront/internal/validation"
)

func main() {
	args, raw := splitRawFlag(os.Args[1:])

	cfg, err := config.Load(args)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg := logger.New(logger.Config{
		Writer: os.Stderr,
		Level:  logger.ParseLevel("warn"),
	})

	ctx := context.Background()
	storage, err := providers.OpenStorage(ctx, cfg.Storage, lg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer storage.Close()

	fmt.Printf("=== State Inspection (%s) ===\n\n", cfg.Storage.Driver)

	keys, err := storage.Keys(ctx)
	if err != nil {
		log.Fatalf("Failed to list keys: %v", err)
	}
	fmt.Printf("Keys: %d\n", len(keys))
	for _, key := range keys {
		fmt.Printf("  %s\n", key)
	}
	fmt.Println()

	wishlist := state.NewWishlist(ctx, storage, lg.Logger)
	fmt.Printf("Wishlist: %d items\n", wishlist.Count())
	for i, id := range wishlist.Items() {
		fmt.Printf("  [%d] %s\n", i+1, id)
	}
	fmt.Println()

	bookings := state.NewBookings(ctx, storage, validation.New(), lg.Logger)
	printBookings(bookings.All())

	if raw {
		fmt.Println()
		fmt.Println("=== Raw Blobs ===")
		for _, key := range keys {
			data, err := storage.Get(ctx, key)
			if err != nil {
				log.Printf("Error reading %s: %v", key, err)
				continue
			}
			fmt.Printf("%s:\n%s\n\n", key, data)
		}
	}
}

func printBookings(all []domain.Booking) {
	byEvent := make(map[string][]domain.Booking)
	for _, b := range all {
		byEvent[b.EventID] = append(byEvent[b.EventID], b)
	}

	events := make([]string, 0, len(byEvent))
	for id := range byEvent {
		events = append(events, id)
	}
	slices.Sort(events)

	confirmed, cancelled, guests := 0, 0, 0
	revenue := 0.0

	fmt.Printf("Bookings: %d\n", len(all))
	for _, eventID := range events {
		list := byEvent[eventID]
		fmt.Printf("  Event %s (%s, %s %s)\n", eventID, list[0].EventTitle, list[0].Date, list[0].Time)
		for _, b := range list {
			fmt.Printf("    %s  %-9s  %2d guests  %8.2f  %s\n",
				b.ID, b.Status, b.Guests, b.TotalAmount, b.CreatedAt.Format("2006-01-02 15:04"))
			if b.Cancelled() {
				cancelled++
				continue
			}
			confirmed++
			guests += b.Guests
			revenue += b.TotalAmount
		}
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Active bookings: %d\n", confirmed)
	fmt.Printf("Cancelled bookings: %d\n", cancelled)
	fmt.Printf("Booked guests: %d\n", guests)
	fmt.Printf("Booked revenue: %.2f\n", revenue)
}

// splitRawFlag removes --raw from args so the rest can go to config.Load.
func splitRawFlag(args []string) ([]string, bool) {
	raw := false
	rest := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--raw" || a == "-raw" {
			raw = true
			continue
		}
		rest = append(rest, a)
	}
	return rest, raw
}
