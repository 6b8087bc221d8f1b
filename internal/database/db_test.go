package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("shop", "s3cret", "db.internal", "3306", "catalicor")

	assert.Contains(t, dsn, "shop:s3cret@tcp(db.internal:3306)/catalicor?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "loc=UTC")
	// Identical-value UPDATEs must still report a matched row, or the
	// ownership classification in the repositories misfires.
	assert.Contains(t, dsn, "clientFoundRows=true")
}

func TestBuildDSNOmitsEmptyPassword(t *testing.T) {
	dsn := buildDSN("shop", "", "localhost", "3306", "catalicor")
	assert.Contains(t, dsn, "shop@tcp(localhost:3306)/catalicor?")
}
