package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/kas-kelas-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "kas", Password: "secret", Name: "kas_kelas", SSLMode: "require"})

	assert.Equal(t, "host=db port=5433 user=kas password=secret dbname=kas_kelas sslmode=require", dsn)
}
