package algorithms

import (
	"fmt"
	"strconv"
	"strings"

	"library/models"
)

// Search scans every book and returns the ones whose title, author or
// genre contains the query, case-insensitive, in their original order.
// An empty query matches every book (strings.Contains with an empty
// substring is always true); handlers that want "no query, no results"
// guard before calling. Works on unsorted data and supports partial
// matches, unlike BinarySearchBooks.
func Search(books []models.Book, query string) []models.Book {
	results := make([]models.Book, 0)
	q := strings.ToLower(query)

	for _, book := range books {
		if strings.Contains(strings.ToLower(book.Title), q) ||
			strings.Contains(strings.ToLower(book.Author), q) ||
			strings.Contains(strings.ToLower(book.Genre), q) {
			results = append(results, book)
		}
	}

	return results
}

// BinarySearch finds target in a slice sorted ascending and returns its
// index, or -1 if absent. The slice must already be sorted; that is a
// caller precondition, not something this function detects.
func BinarySearch(values []int, target int) int {
	left, right := 0, len(values)-1

	for left <= right {
		middle := (left + right) / 2
		switch {
		case values[middle] == target:
			return middle
		case values[middle] < target:
			left = middle + 1
		default:
			right = middle - 1
		}
	}

	return -1
}

// BinarySearchBooks finds the book whose selected field equals value
// (case-insensitive for text, numeric for year) and returns its index,
// or -1 if absent. The books must already be sorted ascending on the
// same field — passing an unsorted slice yields undefined results.
func BinarySearchBooks(books []models.Book, field Field, value string) (int, error) {
	switch field {
	case FieldTitle, FieldAuthor, FieldGenre, FieldYear:
	default:
		return -1, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	target := models.Book{Title: value, Author: value, Genre: value}
	if field == FieldYear {
		year, err := strconv.Atoi(value)
		if err != nil {
			return -1, fmt.Errorf("algorithms: year target %q: %v", value, err)
		}
		target.Year = year
	}

	left, right := 0, len(books)-1
	for left <= right {
		middle := (left + right) / 2
		switch cmp := compareBooks(books[middle], target, field); {
		case cmp == 0:
			return middle, nil
		case cmp < 0:
			left = middle + 1
		default:
			right = middle - 1
		}
	}

	return -1, nil
}
