package service

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"library/algorithms"
	"library/db"
	"library/models"
)

const QUICK_SEARCH_SIZE = 10

// Set by main before the routes run. BookIndex stays nil when no
// elasticsearch cluster is configured.
var (
	Library   db.Library
	BookIndex *db.ElasticBookIndex
)

func CreateBook(c *gin.Context) {
	var book models.Book
	if err := c.ShouldBindJSON(&book); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if book.TotalCopies <= 0 {
		book.TotalCopies = 1
	}
	book.AvailableCopies = book.TotalCopies

	id, err := Library.AddBook(&book)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	indexBook(&book)

	c.JSON(http.StatusOK, gin.H{
		"status": "created",
		"id":     id,
	})
}

func GetBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	book, err := Library.GetBook(id)
	if errors.Is(err, db.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "book not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	all, err := Library.ListBooks()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	// Same-genre picks, like the original detail page showed.
	related := make([]models.Book, 0, 5)
	for _, other := range all {
		if other.ID == book.ID {
			continue
		}
		if strings.EqualFold(other.Genre, book.Genre) {
			related = append(related, other)
		}
		if len(related) >= 5 {
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"book":            book,
		"recommendations": related,
	})
}

func UpdateBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var book models.Book
	if err := c.ShouldBindJSON(&book); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	book.ID = id

	err := Library.UpdateBook(&book)
	if errors.Is(err, db.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "book not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	indexBook(&book)

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func DeleteBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	err := Library.DeleteBook(id)
	if errors.Is(err, db.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "book not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if BookIndex != nil {
		if err := BookIndex.Remove(id); err != nil {
			log.Printf("elastic: remove book %d: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func ListBooks(c *gin.Context) {
	books, err := Library.ListBooks()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	if genre := c.Query("genre"); genre != "" {
		filtered := make([]models.Book, 0, len(books))
		for _, b := range books {
			if strings.EqualFold(b.Genre, genre) {
				filtered = append(filtered, b)
			}
		}
		books = filtered
	}

	sortParam := c.DefaultQuery("sort", "title")
	field, err := algorithms.ParseField(sortParam)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	books, err = algorithms.SortByField(books, field)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if field == algorithms.FieldYear {
		reverse(books) // newest first
	}

	c.JSON(http.StatusOK, gin.H{
		"sort":  sortParam,
		"books": books,
	})
}

func SearchBooks(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"query": "", "books": []models.Book{}})
		return
	}

	books, err := Library.ListBooks()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	results := algorithms.Search(books, query)

	sortParam := c.DefaultQuery("sort", "relevance")
	if sortParam != "relevance" {
		field, err := algorithms.ParseField(sortParam)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		results, err = algorithms.SortByField(results, field)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		if field == algorithms.FieldYear {
			reverse(results)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"query": query,
		"sort":  sortParam,
		"books": results,
	})
}

// QuickSearch backs the typeahead box: elastic when configured, the
// linear scan otherwise.
func QuickSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"results": []models.Book{}})
		return
	}

	if BookIndex != nil {
		results, err := BookIndex.Search(query, QUICK_SEARCH_SIZE)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
		return
	}

	books, err := Library.ListBooks()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	results := algorithms.Search(books, query)
	if len(results) > QUICK_SEARCH_SIZE {
		results = results[:QUICK_SEARCH_SIZE]
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func Borrow(c *gin.Context) {
	bookID, ok := pathID(c)
	if !ok {
		return
	}
	userID := queryUserID(c)

	borrowID, err := Library.BorrowBook(userID, bookID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "book not found"})
		return
	case errors.Is(err, db.ErrNotAvailable):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "book not available"})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "borrowed",
		"borrow_id": borrowID,
	})
}

func Return(c *gin.Context) {
	borrowID, ok := pathID(c)
	if !ok {
		return
	}

	err := Library.ReturnBook(borrowID)
	if errors.Is(err, db.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "borrowing record not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "returned"})
}

func MyBooks(c *gin.Context) {
	userID := queryUserID(c)

	records, err := Library.ListBorrowedBy(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	type borrowedBook struct {
		models.BorrowRecord
		Book *models.Book `json:"book,omitempty"`
	}

	borrowed := make([]borrowedBook, 0, len(records))
	for _, rec := range records {
		entry := borrowedBook{BorrowRecord: rec}
		if book, err := Library.GetBook(rec.BookID); err == nil {
			entry.Book = book
		}
		borrowed = append(borrowed, entry)
	}

	c.JSON(http.StatusOK, gin.H{"borrowed_books": borrowed})
}

func Recommendations(c *gin.Context) {
	userID := queryUserID(c)

	topN := 10
	if n := c.Query("n"); n != "" {
		parsed, err := strconv.Atoi(n)
		if err != nil || parsed <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "n must be a positive integer"})
			return
		}
		topN = parsed
	}

	records, err := Library.ListBorrowedBy(userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	seen := make(map[int64]bool)
	var borrowed []models.Book
	for _, rec := range records {
		if seen[rec.BookID] {
			continue
		}
		seen[rec.BookID] = true
		if book, err := Library.GetBook(rec.BookID); err == nil {
			borrowed = append(borrowed, *book)
		}
	}

	all, err := Library.ListBooks()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recommendations": algorithms.Recommend(borrowed, all, topN),
	})
}

func Store(c *gin.Context) {
	stats, err := Library.Stats()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func CreateUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	id, err := Library.AddUser(&user)
	if errors.Is(err, db.ErrDuplicateUser) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "username or email already exists"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "created",
		"id":     id,
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "id must be an integer"})
		return 0, false
	}
	return id, true
}

// queryUserID reads ?user_id=, defaulting to the demo user like the
// original app did for anonymous sessions.
func queryUserID(c *gin.Context) int64 {
	id, err := strconv.ParseInt(c.DefaultQuery("user_id", "1"), 10, 64)
	if err != nil {
		return 1
	}
	return id
}

func reverse(books []models.Book) {
	for i, j := 0, len(books)-1; i < j; i, j = i+1, j-1 {
		books[i], books[j] = books[j], books[i]
	}
}

func indexBook(book *models.Book) {
	if BookIndex == nil {
		return
	}
	if err := BookIndex.Index(book); err != nil {
		log.Printf("elastic: index book %d: %v", book.ID, err)
	}
}
