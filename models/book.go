package models

// Book is one record in the library catalog. The search and sort
// routines only read its fields; they never mutate a Book.
type Book struct {
	ID              int64  `json:"book_id"`
	Title           string `json:"title" binding:"required"`
	Author          string `json:"author"`
	Genre           string `json:"genre"`
	Year            int    `json:"year"`
	Description     string `json:"description"`
	AvailableCopies int    `json:"available_copies"`
	TotalCopies     int    `json:"total_copies"`
}

type User struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

const (
	StatusBorrowed = "borrowed"
	StatusReturned = "returned"
)

// BorrowRecord tracks one borrowing of a book by a user. ReturnDate is
// empty while the book is still out.
type BorrowRecord struct {
	ID         int64  `json:"borrow_id"`
	UserID     int64  `json:"user_id"`
	BookID     int64  `json:"book_id"`
	BorrowDate string `json:"borrow_date"`
	ReturnDate string `json:"return_date,omitempty"`
	Status     string `json:"status"`
}

// Stats are the counters behind the store endpoint.
type Stats struct {
	TotalBooks     int `json:"total_books"`
	AvailableBooks int `json:"available_books"`
	BorrowedBooks  int `json:"borrowed_books"`
	TotalUsers     int `json:"total_users"`
}
