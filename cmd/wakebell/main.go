package main

import (
	"log"

	"github.com/wakebell/wakebell/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ wakebell failed to start: %v", err)
	}
}
