package main

import (
	"fmt"
	"os"

	"taskboard/dao/query"

	"github.com/joho/godotenv"
)

// Standalone schema migration, for deployments where the server
// process must not own DDL.
func main() {
	_ = godotenv.Load()

	if err := query.InitDB(); err != nil {
		fmt.Println("err init:", err)
		os.Exit(1)
	}
	if err := query.Migrate(query.DB); err != nil {
		fmt.Println("err migrate:", err)
		os.Exit(1)
	}
	fmt.Println("migration complete")
}
