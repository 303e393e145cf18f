package config

import (
	"os"
	"strconv"

	"library/db"
)

// SetupLibrary picks the storage backend from the environment: MySQL
// when MYSQL_USER is set, the in-memory store otherwise.
func SetupLibrary() (db.Library, error) {
	user := os.Getenv("MYSQL_USER")
	if user == "" {
		return db.NewMemoryDB(), nil
	}

	port := 3306
	if p := os.Getenv("MYSQL_PORT"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		port = parsed
	}
	host := os.Getenv("MYSQL_HOST")
	if host == "" {
		host = "localhost"
	}

	return db.NewMySQLDB(db.MySQLConfig{
		Username:   user,
		Password:   os.Getenv("MYSQL_PASSWORD"),
		Host:       host,
		Port:       port,
		UnixSocket: os.Getenv("MYSQL_SOCKET"),
	})
}
