package main

import (
	"log"

	"github.com/joho/godotenv"

	"library/config"
	"library/db"
	"library/service"
)

const INDEX_NAME = "books"

func main() {
	// A missing .env is fine; the connectors fall back to defaults.
	godotenv.Load()

	library, err := config.SetupLibrary()
	if err != nil {
		log.Fatal(err)
	}
	defer library.Close()
	service.Library = library

	config.SetupRedis()

	elasticClient, err := config.SetupElasticSearch()
	if err != nil {
		log.Fatal(err)
	}
	if elasticClient != nil {
		service.BookIndex = db.NewElasticBookIndex(INDEX_NAME, elasticClient)
	}

	routes := service.SetupRoutes()
	if err := routes.Run(); err != nil {
		log.Fatal(err)
	}
}
