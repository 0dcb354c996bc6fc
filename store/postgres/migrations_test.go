package postgres

import (
	"testing"

	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"
)

func TestMigrationExecutorRegistered(t *testing.T) {
	executor, err := migrate.NewExecutorFor(pgdriver.New())
	if err != nil {
		t.Fatalf("NewExecutorFor: %v", err)
	}
	if executor == nil {
		t.Fatal("expected a pg migration executor")
	}
}
