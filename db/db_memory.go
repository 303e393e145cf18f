package db

import (
	"sort"
	"strings"
	"sync"
	"time"

	"library/models"
)

var _ Library = &memoryDB{}

// memoryDB keeps the whole library in maps. It backs the tests and the
// server when no MySQL connection is configured.
type memoryDB struct {
	mu           sync.Mutex
	nextBookID   int64
	nextUserID   int64
	nextBorrowID int64
	books        map[int64]models.Book
	users        map[int64]models.User
	borrows      map[int64]models.BorrowRecord
}

func NewMemoryDB() Library {
	return &memoryDB{
		nextBookID:   1,
		nextUserID:   1,
		nextBorrowID: 1,
		books:        make(map[int64]models.Book),
		users:        make(map[int64]models.User),
		borrows:      make(map[int64]models.BorrowRecord),
	}
}

func (m *memoryDB) AddBook(b *models.Book) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b.ID = m.nextBookID
	m.nextBookID++
	m.books[b.ID] = *b
	return b.ID, nil
}

func (m *memoryDB) GetBook(id int64) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &book, nil
}

// ListBooks returns the catalog ordered by title, matching the MySQL
// backend's ORDER BY.
func (m *memoryDB) ListBooks() ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	books := make([]models.Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool {
		return strings.ToLower(books[i].Title) < strings.ToLower(books[j].Title)
	})
	return books, nil
}

func (m *memoryDB) UpdateBook(b *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[b.ID]; !ok {
		return ErrNotFound
	}
	m.books[b.ID] = *b
	return nil
}

func (m *memoryDB) DeleteBook(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *memoryDB) AddUser(u *models.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return 0, ErrDuplicateUser
		}
	}
	u.ID = m.nextUserID
	m.nextUserID++
	m.users[u.ID] = *u
	return u.ID, nil
}

func (m *memoryDB) GetUser(id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *memoryDB) BorrowBook(userID, bookID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[bookID]
	if !ok {
		return 0, ErrNotFound
	}
	if book.AvailableCopies <= 0 {
		return 0, ErrNotAvailable
	}

	book.AvailableCopies--
	m.books[bookID] = book

	rec := models.BorrowRecord{
		ID:         m.nextBorrowID,
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: time.Now().UTC().Format("2006-01-02 15:04:05"),
		Status:     models.StatusBorrowed,
	}
	m.nextBorrowID++
	m.borrows[rec.ID] = rec
	return rec.ID, nil
}

func (m *memoryDB) ReturnBook(borrowID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.borrows[borrowID]
	if !ok {
		return ErrNotFound
	}
	if rec.Status != models.StatusBorrowed {
		return ErrNotFound
	}

	rec.Status = models.StatusReturned
	rec.ReturnDate = time.Now().UTC().Format("2006-01-02 15:04:05")
	m.borrows[borrowID] = rec

	if book, ok := m.books[rec.BookID]; ok {
		book.AvailableCopies++
		m.books[rec.BookID] = book
	}
	return nil
}

func (m *memoryDB) ListBorrowedBy(userID int64) ([]models.BorrowRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]models.BorrowRecord, 0)
	for _, rec := range m.borrows {
		if rec.UserID == userID {
			records = append(records, rec)
		}
	}
	// Newest first, like the MySQL backend.
	sort.Slice(records, func(i, j int) bool {
		if records[i].BorrowDate != records[j].BorrowDate {
			return records[i].BorrowDate > records[j].BorrowDate
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

func (m *memoryDB) Stats() (*models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &models.Stats{
		TotalBooks: len(m.books),
		TotalUsers: len(m.users),
	}
	for _, b := range m.books {
		stats.AvailableBooks += b.AvailableCopies
	}
	for _, rec := range m.borrows {
		if rec.Status == models.StatusBorrowed {
			stats.BorrowedBooks++
		}
	}
	return stats, nil
}

func (m *memoryDB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books = nil
	m.users = nil
	m.borrows = nil
	return nil
}
