package algorithms

import (
	"errors"
	"fmt"
	"strings"

	"library/models"
)

// Field selects the book attribute used as a sort or lookup key.
type Field string

const (
	FieldTitle  Field = "title"
	FieldAuthor Field = "author"
	FieldGenre  Field = "genre"
	FieldYear   Field = "year"
)

// ErrInvalidField is returned when a field selector names an attribute
// that books cannot be sorted or searched on.
var ErrInvalidField = errors.New("algorithms: invalid field selector")

// ParseField validates a field selector coming from a request.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(s)); f {
	case FieldTitle, FieldAuthor, FieldGenre, FieldYear:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
	}
}

// SortByField returns a new slice with the same books ordered
// non-decreasing by the selected field. Text fields compare
// case-normalized, year compares numerically. The sort is stable: books
// with equal keys keep their input order. The input slice is not
// mutated.
func SortByField(books []models.Book, field Field) ([]models.Book, error) {
	switch field {
	case FieldTitle, FieldAuthor, FieldGenre, FieldYear:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return mergeSort(books, field), nil
}

func mergeSort(books []models.Book, field Field) []models.Book {
	if len(books) <= 1 {
		// Still return a copy so callers always own the result.
		return append([]models.Book(nil), books...)
	}

	middle := len(books) / 2
	left := mergeSort(books[:middle], field)
	right := mergeSort(books[middle:], field)

	return merge(left, right, field)
}

// merge combines two sorted halves, taking the left element on ties so
// the overall sort stays stable.
func merge(left, right []models.Book, field Field) []models.Book {
	result := make([]models.Book, 0, len(left)+len(right))
	i, j := 0, 0

	for i < len(left) && j < len(right) {
		if compareBooks(left[i], right[j], field) <= 0 {
			result = append(result, left[i])
			i++
		} else {
			result = append(result, right[j])
			j++
		}
	}

	result = append(result, left[i:]...)
	result = append(result, right[j:]...)
	return result
}

func compareBooks(a, b models.Book, field Field) int {
	if field == FieldYear {
		switch {
		case a.Year < b.Year:
			return -1
		case a.Year > b.Year:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(textKey(a, field), textKey(b, field))
}

func textKey(b models.Book, field Field) string {
	switch field {
	case FieldTitle:
		return strings.ToLower(b.Title)
	case FieldAuthor:
		return strings.ToLower(b.Author)
	case FieldGenre:
		return strings.ToLower(b.Genre)
	}
	return ""
}
