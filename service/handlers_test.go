package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"library/db"
	"library/models"
)

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	Library = db.NewMemoryDB()
	BookIndex = nil

	routes := SetupRoutes()

	seed := []models.Book{
		{Title: "Harry Potter", Author: "J.K. Rowling", Genre: "Fantasy", Year: 1997, TotalCopies: 2, AvailableCopies: 2},
		{Title: "1984", Author: "George Orwell", Genre: "Fiction", Year: 1949, TotalCopies: 1, AvailableCopies: 1},
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", Year: 1937, TotalCopies: 1, AvailableCopies: 1},
	}
	for i := range seed {
		if _, err := Library.AddBook(&seed[i]); err != nil {
			t.Fatalf("seed AddBook: %v", err)
		}
	}
	return routes
}

func doRequest(routes *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestListBooks_SortedByTitle(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodGet, "/books", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Books []models.Book `json:"books"`
	}
	decodeBody(t, w, &resp)

	want := []string{"1984", "Harry Potter", "The Hobbit"}
	if len(resp.Books) != len(want) {
		t.Fatalf("expected %d books, got %d", len(want), len(resp.Books))
	}
	for i, title := range want {
		if resp.Books[i].Title != title {
			t.Errorf("[%d] got %q, want %q", i, resp.Books[i].Title, title)
		}
	}
}

func TestListBooks_SortByYearNewestFirst(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodGet, "/books?sort=year", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Books []models.Book `json:"books"`
	}
	decodeBody(t, w, &resp)

	if resp.Books[0].Year != 1997 || resp.Books[len(resp.Books)-1].Year != 1937 {
		t.Errorf("year order wrong: first %d, last %d", resp.Books[0].Year, resp.Books[len(resp.Books)-1].Year)
	}
}

func TestListBooks_GenreFilter(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodGet, "/books?genre=fantasy", nil)
	var resp struct {
		Books []models.Book `json:"books"`
	}
	decodeBody(t, w, &resp)

	if len(resp.Books) != 2 {
		t.Fatalf("expected 2 fantasy books, got %d", len(resp.Books))
	}
	for _, b := range resp.Books {
		if b.Genre != "Fantasy" {
			t.Errorf("unexpected genre %q", b.Genre)
		}
	}
}

func TestListBooks_InvalidSortField(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodGet, "/books?sort=price", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchBooks(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodGet, "/search?q=harr", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Books []models.Book `json:"books"`
	}
	decodeBody(t, w, &resp)

	if len(resp.Books) != 1 || resp.Books[0].Title != "Harry Potter" {
		t.Errorf("search harr: got %v", resp.Books)
	}
}

func TestSearchBooks_EmptyQuery(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodGet, "/search", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Books []models.Book `json:"books"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Books) != 0 {
		t.Errorf("empty query: expected no books, got %d", len(resp.Books))
	}
}

func TestQuickSearch_FallsBackToLinearScan(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodGet, "/api/search?q=tolkien", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Results []models.Book `json:"results"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Results) != 1 || resp.Results[0].Title != "The Hobbit" {
		t.Errorf("quick search: got %v", resp.Results)
	}
}

func TestCreateAndGetBook(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodPut, "/book", models.Book{
		Title:       "Lord of the Rings",
		Author:      "J.R.R. Tolkien",
		Genre:       "Fantasy",
		Year:        1954,
		TotalCopies: 3,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}

	var created struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, w, &created)

	w = doRequest(routes, http.MethodGet, fmt.Sprintf("/book/%d", created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	var resp struct {
		Book            models.Book   `json:"book"`
		Recommendations []models.Book `json:"recommendations"`
	}
	decodeBody(t, w, &resp)

	if resp.Book.Title != "Lord of the Rings" {
		t.Errorf("Title = %q", resp.Book.Title)
	}
	if resp.Book.AvailableCopies != 3 {
		t.Errorf("AvailableCopies = %d, want 3", resp.Book.AvailableCopies)
	}
	// The two seeded Fantasy books should come back as related picks.
	if len(resp.Recommendations) != 2 {
		t.Errorf("expected 2 recommendations, got %d", len(resp.Recommendations))
	}
	for _, rec := range resp.Recommendations {
		if rec.ID == created.ID {
			t.Error("book recommended itself")
		}
	}
}

func TestCreateBook_MissingTitle(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodPut, "/book", map[string]string{"author": "Nobody"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetBook_NotFound(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodGet, "/book/999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestBorrowAndReturnFlow(t *testing.T) {
	routes := setupTestServer(t)

	userID, err := Library.AddUser(&models.User{Username: "reader", Email: "reader@example.com"})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	// Seeded 1984 has one copy; its ID comes from the catalog.
	books, _ := Library.ListBooks()
	var bookID int64
	for _, b := range books {
		if b.Title == "1984" {
			bookID = b.ID
		}
	}

	url := fmt.Sprintf("/borrow/%d?user_id=%d", bookID, userID)
	w := doRequest(routes, http.MethodPost, url, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("borrow status = %d, body %s", w.Code, w.Body.String())
	}
	var borrowed struct {
		BorrowID int64 `json:"borrow_id"`
	}
	decodeBody(t, w, &borrowed)

	// Out of copies now.
	w = doRequest(routes, http.MethodPost, url, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("borrow with no copies: status = %d, want 400", w.Code)
	}

	w = doRequest(routes, http.MethodGet, fmt.Sprintf("/my-books?user_id=%d", userID), nil)
	var myBooks struct {
		BorrowedBooks []struct {
			Status string       `json:"status"`
			Book   *models.Book `json:"book"`
		} `json:"borrowed_books"`
	}
	decodeBody(t, w, &myBooks)
	if len(myBooks.BorrowedBooks) != 1 {
		t.Fatalf("expected 1 borrowed book, got %d", len(myBooks.BorrowedBooks))
	}
	if myBooks.BorrowedBooks[0].Book == nil || myBooks.BorrowedBooks[0].Book.Title != "1984" {
		t.Errorf("borrowed book details missing or wrong: %+v", myBooks.BorrowedBooks[0])
	}

	w = doRequest(routes, http.MethodPost, fmt.Sprintf("/return/%d", borrowed.BorrowID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("return status = %d, body %s", w.Code, w.Body.String())
	}

	book, err := Library.GetBook(bookID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if book.AvailableCopies != 1 {
		t.Errorf("AvailableCopies after return = %d, want 1", book.AvailableCopies)
	}
}

func TestBorrow_UnknownBook(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodPost, "/borrow/999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRecommendations(t *testing.T) {
	routes := setupTestServer(t)

	userID, err := Library.AddUser(&models.User{Username: "reader", Email: "reader@example.com"})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	books, _ := Library.ListBooks()
	var fantasyID int64
	for _, b := range books {
		if b.Title == "Harry Potter" {
			fantasyID = b.ID
		}
	}
	if _, err := Library.BorrowBook(userID, fantasyID); err != nil {
		t.Fatalf("BorrowBook: %v", err)
	}

	w := doRequest(routes, http.MethodGet, fmt.Sprintf("/recommendations?user_id=%d&n=2", userID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Recommendations []struct {
			Book  models.Book `json:"book"`
			Score float64     `json:"score"`
		} `json:"recommendations"`
	}
	decodeBody(t, w, &resp)

	if len(resp.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(resp.Recommendations))
	}
	for _, rec := range resp.Recommendations {
		if rec.Book.ID == fantasyID {
			t.Error("recommended the borrowed book")
		}
	}
	// The remaining Fantasy book should outrank the Fiction one.
	if resp.Recommendations[0].Book.Title != "The Hobbit" {
		t.Errorf("top recommendation = %q, want %q", resp.Recommendations[0].Book.Title, "The Hobbit")
	}
}

func TestStore(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodGet, "/store", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var stats models.Stats
	decodeBody(t, w, &stats)
	if stats.TotalBooks != 3 {
		t.Errorf("TotalBooks = %d, want 3", stats.TotalBooks)
	}
	if stats.AvailableBooks != 4 {
		t.Errorf("AvailableBooks = %d, want 4", stats.AvailableBooks)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	routes := setupTestServer(t)

	u := models.User{Username: "reader", Email: "reader@example.com"}
	w := doRequest(routes, http.MethodPut, "/user", u)
	if w.Code != http.StatusOK {
		t.Fatalf("create user status = %d, body %s", w.Code, w.Body.String())
	}

	w = doRequest(routes, http.MethodPut, "/user", u)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate user status = %d, want 409", w.Code)
	}
}

func TestActivity_NotConfigured(t *testing.T) {
	routes := setupTestServer(t)

	w := doRequest(routes, http.MethodGet, "/activity/reader", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
