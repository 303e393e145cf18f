package config

import (
	"os"

	"github.com/olivere/elastic/v7"
)

// SetupElasticSearch connects to the cluster named by ELASTIC_URL. A
// nil client with a nil error means no cluster is configured.
func SetupElasticSearch() (*elastic.Client, error) {
	elasticUrl := os.Getenv("ELASTIC_URL")
	if elasticUrl == "" {
		return nil, nil
	}
	return elastic.NewClient(elastic.SetURL(elasticUrl))
}
