package db_test

import (
	"testing"

	"github.com/gnames/gnotu/internal/iodb"
	"github.com/gnames/gnotu/pkg/db"
)

func TestPgxOperatorImplementsInterface(t *testing.T) {
	var _ db.Operator = (*iodb.PgxOperator)(nil)
}
