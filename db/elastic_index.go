package db

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/olivere/elastic/v7"

	"library/models"
)

// ElasticBookIndex mirrors the catalog into an elasticsearch index so
// the quick-search endpoint gets full-text matching. It is optional:
// when no ELASTIC_URL is configured the handlers fall back to the
// linear scan.
type ElasticBookIndex struct {
	IndexName string
	Client    *elastic.Client
}

func NewElasticBookIndex(indexName string, client *elastic.Client) *ElasticBookIndex {
	return &ElasticBookIndex{IndexName: indexName, Client: client}
}

func (index *ElasticBookIndex) Index(book *models.Book) error {
	_, err := index.Client.
		Index().
		Index(index.IndexName).
		Id(strconv.FormatInt(book.ID, 10)).
		BodyJson(book).
		Do(context.Background())

	return err
}

func (index *ElasticBookIndex) Remove(id int64) error {
	_, err := index.Client.
		Delete().
		Index(index.IndexName).
		Id(strconv.FormatInt(id, 10)).
		Do(context.Background())

	return err
}

// Search runs a multi-match query over title, author and genre and
// returns at most size books.
func (index *ElasticBookIndex) Search(query string, size int) ([]models.Book, error) {
	result, err := index.Client.
		Search().
		Index(index.IndexName).
		Query(elastic.NewMultiMatchQuery(query, "title", "author", "genre")).
		Size(size).
		Do(context.Background())

	if err != nil {
		return nil, err
	}

	books := make([]models.Book, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var book models.Book
		if err := json.Unmarshal(hit.Source, &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	return books, nil
}
