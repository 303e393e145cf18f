package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"library/models"
)

const databaseName = "library"

var createTableStatements = []string{
	`CREATE DATABASE IF NOT EXISTS library DEFAULT CHARACTER SET = 'utf8mb4';`,
	`USE library;`,
	`CREATE TABLE IF NOT EXISTS books (
		book_id INT UNSIGNED NOT NULL AUTO_INCREMENT,
		title VARCHAR(255) NOT NULL,
		author VARCHAR(255) NOT NULL,
		genre VARCHAR(255) NOT NULL,
		year INT NULL,
		description TEXT NULL,
		available_copies INT NOT NULL DEFAULT 1,
		total_copies INT NOT NULL DEFAULT 1,
		PRIMARY KEY (book_id),
		INDEX idx_title (title),
		INDEX idx_author (author),
		INDEX idx_genre (genre)
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id INT UNSIGNED NOT NULL AUTO_INCREMENT,
		username VARCHAR(255) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		PRIMARY KEY (user_id)
	);`,
	`CREATE TABLE IF NOT EXISTS borrowing (
		borrow_id INT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id INT UNSIGNED NOT NULL,
		book_id INT UNSIGNED NOT NULL,
		borrow_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		return_date TIMESTAMP NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'borrowed',
		PRIMARY KEY (borrow_id)
	);`,
}

type mysqlDB struct {
	conn *sql.DB

	listBooks  *sql.Stmt
	getBook    *sql.Stmt
	insertBook *sql.Stmt
	updateBook *sql.Stmt
	deleteBook *sql.Stmt

	insertUser *sql.Stmt
	getUser    *sql.Stmt

	listBorrowed *sql.Stmt
}

var _ Library = &mysqlDB{}

// MySQLConfig holds the connection parameters read from the
// environment by config.SetupMySQL.
type MySQLConfig struct {
	Username   string
	Password   string
	Host       string
	Port       int
	UnixSocket string
}

func (c MySQLConfig) dataStoreName(databaseName string) string {
	var cred string
	if c.Username != "" {
		cred = c.Username
		if c.Password != "" {
			cred = cred + ":" + c.Password
		}
		cred = cred + "@"
	}
	if c.UnixSocket != "" {
		return fmt.Sprintf("%sunix(%s)/%s", cred, c.UnixSocket, databaseName)
	}
	return fmt.Sprintf("%stcp(%s:%d)/%s", cred, c.Host, c.Port, databaseName)
}

// NewMySQLDB connects to MySQL, creating the database and tables on
// first use.
func NewMySQLDB(config MySQLConfig) (Library, error) {
	if err := config.ensureTablesExist(); err != nil {
		return nil, err
	}
	conn, err := sql.Open("mysql", config.dataStoreName(databaseName))
	if err != nil {
		return nil, fmt.Errorf("mysql: could not get a connection: %v", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mysql: could not establish a good connection: %v", err)
	}
	db := &mysqlDB{conn: conn}

	if db.listBooks, err = conn.Prepare(listBooksStatement); err != nil {
		return nil, fmt.Errorf("mysql: prepare list: %v", err)
	}
	if db.getBook, err = conn.Prepare(getBookStatement); err != nil {
		return nil, fmt.Errorf("mysql: prepare get: %v", err)
	}
	if db.insertBook, err = conn.Prepare(insertBookStatement); err != nil {
		return nil, fmt.Errorf("mysql: prepare insert: %v", err)
	}
	if db.updateBook, err = conn.Prepare(updateBookStatement); err != nil {
		return nil, fmt.Errorf("mysql: prepare update: %v", err)
	}
	if db.deleteBook, err = conn.Prepare(deleteBookStatement); err != nil {
		return nil, fmt.Errorf("mysql: prepare delete: %v", err)
	}
	if db.insertUser, err = conn.Prepare(insertUserStatement); err != nil {
		return nil, fmt.Errorf("mysql: prepare insert user: %v", err)
	}
	if db.getUser, err = conn.Prepare(getUserStatement); err != nil {
		return nil, fmt.Errorf("mysql: prepare get user: %v", err)
	}
	if db.listBorrowed, err = conn.Prepare(listBorrowedStatement); err != nil {
		return nil, fmt.Errorf("mysql: prepare list borrowed: %v", err)
	}

	return db, nil
}

func (db *mysqlDB) Close() error {
	return db.conn.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(s rowScanner) (*models.Book, error) {
	var (
		id              int64
		title           sql.NullString
		author          sql.NullString
		genre           sql.NullString
		year            sql.NullInt64
		description     sql.NullString
		availableCopies int
		totalCopies     int
	)
	if err := s.Scan(&id, &title, &author, &genre, &year, &description,
		&availableCopies, &totalCopies); err != nil {
		return nil, err
	}
	return &models.Book{
		ID:              id,
		Title:           title.String,
		Author:          author.String,
		Genre:           genre.String,
		Year:            int(year.Int64),
		Description:     description.String,
		AvailableCopies: availableCopies,
		TotalCopies:     totalCopies,
	}, nil
}

const listBooksStatement = `SELECT * FROM books ORDER BY title`

func (db *mysqlDB) ListBooks() ([]models.Book, error) {
	rows, err := db.listBooks.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]models.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("mysql: could not read row: %v", err)
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}

const getBookStatement = `SELECT * FROM books WHERE book_id = ?`

func (db *mysqlDB) GetBook(id int64) (*models.Book, error) {
	book, err := scanBook(db.getBook.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: could not get book %d: %v", id, err)
	}
	return book, nil
}

const insertBookStatement = `
	INSERT INTO books (
		title, author, genre, year, description, available_copies, total_copies
	) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (db *mysqlDB) AddBook(b *models.Book) (int64, error) {
	r, err := execAffectingOneRow(db.insertBook, b.Title, b.Author, b.Genre,
		b.Year, b.Description, b.AvailableCopies, b.TotalCopies)
	if err != nil {
		return 0, err
	}
	lastInsertID, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("mysql: could not get last insert ID: %v", err)
	}
	return lastInsertID, nil
}

const updateBookStatement = `
	UPDATE books
	SET title = ?, author = ?, genre = ?, year = ?, description = ?,
		available_copies = ?, total_copies = ?
	WHERE book_id = ?`

func (db *mysqlDB) UpdateBook(b *models.Book) error {
	if b.ID == 0 {
		return fmt.Errorf("mysql: book with unassigned ID passed into UpdateBook")
	}
	_, err := execAffectingOneRow(db.updateBook, b.Title, b.Author, b.Genre,
		b.Year, b.Description, b.AvailableCopies, b.TotalCopies, b.ID)
	return err
}

const deleteBookStatement = `DELETE FROM books WHERE book_id = ?`

func (db *mysqlDB) DeleteBook(id int64) error {
	if id == 0 {
		return fmt.Errorf("mysql: book with unassigned ID passed into DeleteBook")
	}
	_, err := execAffectingOneRow(db.deleteBook, id)
	return err
}

const insertUserStatement = `INSERT INTO users (username, email) VALUES (?, ?)`

func (db *mysqlDB) AddUser(u *models.User) (int64, error) {
	r, err := db.insertUser.Exec(u.Username, u.Email)
	if err != nil {
		if mErr, ok := err.(*mysql.MySQLError); ok && mErr.Number == 1062 {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("mysql: could not insert user: %v", err)
	}
	return r.LastInsertId()
}

const getUserStatement = `SELECT user_id, username, email FROM users WHERE user_id = ?`

func (db *mysqlDB) GetUser(id int64) (*models.User, error) {
	var u models.User
	err := db.getUser.QueryRow(id).Scan(&u.ID, &u.Username, &u.Email)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: could not get user %d: %v", id, err)
	}
	return &u, nil
}

// BorrowBook creates a borrowing record and decrements the available
// copies, all inside one transaction so two readers cannot take the
// last copy.
func (db *mysqlDB) BorrowBook(userID, bookID int64) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("mysql: could not begin transaction: %v", err)
	}
	defer tx.Rollback()

	var available int
	err = tx.QueryRow(`SELECT available_copies FROM books WHERE book_id = ? FOR UPDATE`, bookID).
		Scan(&available)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("mysql: could not check availability: %v", err)
	}
	if available <= 0 {
		return 0, ErrNotAvailable
	}

	r, err := tx.Exec(`INSERT INTO borrowing (user_id, book_id, status) VALUES (?, ?, 'borrowed')`,
		userID, bookID)
	if err != nil {
		return 0, fmt.Errorf("mysql: could not insert borrowing record: %v", err)
	}
	if _, err := tx.Exec(`UPDATE books SET available_copies = available_copies - 1 WHERE book_id = ?`,
		bookID); err != nil {
		return 0, fmt.Errorf("mysql: could not decrement copies: %v", err)
	}

	borrowID, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("mysql: could not get borrow ID: %v", err)
	}
	return borrowID, tx.Commit()
}

func (db *mysqlDB) ReturnBook(borrowID int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("mysql: could not begin transaction: %v", err)
	}
	defer tx.Rollback()

	var bookID int64
	var status string
	err = tx.QueryRow(`SELECT book_id, status FROM borrowing WHERE borrow_id = ? FOR UPDATE`, borrowID).
		Scan(&bookID, &status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mysql: could not read borrowing record: %v", err)
	}
	if status != models.StatusBorrowed {
		return fmt.Errorf("mysql: borrowing record %d already returned", borrowID)
	}

	if _, err := tx.Exec(`UPDATE borrowing SET return_date = CURRENT_TIMESTAMP, status = 'returned' WHERE borrow_id = ?`,
		borrowID); err != nil {
		return fmt.Errorf("mysql: could not update borrowing record: %v", err)
	}
	if _, err := tx.Exec(`UPDATE books SET available_copies = available_copies + 1 WHERE book_id = ?`,
		bookID); err != nil {
		return fmt.Errorf("mysql: could not increment copies: %v", err)
	}

	return tx.Commit()
}

const listBorrowedStatement = `
	SELECT borrow_id, user_id, book_id, borrow_date, IFNULL(return_date, ''), status
	FROM borrowing
	WHERE user_id = ?
	ORDER BY borrow_date DESC`

func (db *mysqlDB) ListBorrowedBy(userID int64) ([]models.BorrowRecord, error) {
	rows, err := db.listBorrowed.Query(userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.BorrowRecord, 0)
	for rows.Next() {
		var rec models.BorrowRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.BookID,
			&rec.BorrowDate, &rec.ReturnDate, &rec.Status); err != nil {
			return nil, fmt.Errorf("mysql: could not read borrowing row: %v", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (db *mysqlDB) Stats() (*models.Stats, error) {
	var stats models.Stats
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM books`).Scan(&stats.TotalBooks); err != nil {
		return nil, fmt.Errorf("mysql: could not count books: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT IFNULL(SUM(available_copies), 0) FROM books`).Scan(&stats.AvailableBooks); err != nil {
		return nil, fmt.Errorf("mysql: could not sum copies: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM borrowing WHERE status = 'borrowed'`).Scan(&stats.BorrowedBooks); err != nil {
		return nil, fmt.Errorf("mysql: could not count borrowings: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("mysql: could not count users: %v", err)
	}
	return &stats, nil
}

func (config MySQLConfig) ensureTablesExist() error {
	conn, err := sql.Open("mysql", config.dataStoreName(""))
	if err != nil {
		return fmt.Errorf("mysql: could not get a connection: %v", err)
	}
	defer conn.Close()

	if conn.Ping() == driver.ErrBadConn {
		return fmt.Errorf("mysql: could not connect to the database. " +
			"could be bad address, or this address is not whitelisted for access")
	}

	if _, err := conn.Exec("USE " + databaseName); err != nil {
		if mErr, ok := err.(*mysql.MySQLError); ok && mErr.Number == 1049 {
			return createTables(conn)
		}
	}

	if _, err := conn.Exec("DESCRIBE books"); err != nil {
		if mErr, ok := err.(*mysql.MySQLError); ok && mErr.Number == 1146 {
			return createTables(conn)
		}
		return fmt.Errorf("mysql: could not connect to the database: %v", err)
	}
	return nil
}

func createTables(conn *sql.DB) error {
	for _, stmt := range createTableStatements {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func execAffectingOneRow(stmt *sql.Stmt, args ...interface{}) (sql.Result, error) {
	r, err := stmt.Exec(args...)
	if err != nil {
		return r, fmt.Errorf("mysql: could not execute statement: %v", err)
	}
	rowsAffected, err := r.RowsAffected()
	if err != nil {
		return r, fmt.Errorf("mysql: could not get rows affected: %v", err)
	} else if rowsAffected != 1 {
		return r, fmt.Errorf("mysql: expected 1 row affected, got %d", rowsAffected)
	}
	return r, nil
}
