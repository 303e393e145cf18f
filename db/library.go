package db

import (
	"errors"

	"library/models"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("db: record not found")
	// ErrNotAvailable is returned when a borrow request hits a book
	// with no copies left.
	ErrNotAvailable = errors.New("db: no copies available")
	// ErrDuplicateUser is returned when a username or email is taken.
	ErrDuplicateUser = errors.New("db: username or email already exists")
)

// Library is the storage contract shared by the MySQL and in-memory
// backends. Handlers depend on this interface only.
type Library interface {
	AddBook(b *models.Book) (int64, error)
	GetBook(id int64) (*models.Book, error)
	ListBooks() ([]models.Book, error)
	UpdateBook(b *models.Book) error
	DeleteBook(id int64) error

	AddUser(u *models.User) (int64, error)
	GetUser(id int64) (*models.User, error)

	BorrowBook(userID, bookID int64) (int64, error)
	ReturnBook(borrowID int64) error
	ListBorrowedBy(userID int64) ([]models.BorrowRecord, error)

	Stats() (*models.Stats, error)
	Close() error
}
