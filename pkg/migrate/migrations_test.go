package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/garagelabs/taller-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_parts_and_inventory.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS parts",
		"CHECK (stock >= 0)",
		"CREATE TABLE IF NOT EXISTS inventory_movements",
		"CHECK (stock_after >= 0)",
		"FOREIGN KEY (part_id) REFERENCES parts(id)",
		"DROP TABLE IF EXISTS inventory_movements",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInvoiceMigrationGuardsDuplicateInvoicing(t *testing.T) {
	content := readMigration(t, "*_create_invoices.sql")

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_ticket_id ON invoices(ticket_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_number ON invoices(number)",
		"INSERT INTO payment_methods",
		"DROP TABLE IF EXISTS invoices",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestTicketMigrationEnforcesStatusDomain(t *testing.T) {
	content := readMigration(t, "*_create_service_tickets.sql")

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_service_tickets_number ON service_tickets(number)",
		"CHECK (status IN ('intake', 'in_progress', 'completed', 'delivered', 'cancelled'))",
		"FOREIGN KEY (ticket_id) REFERENCES service_tickets(id) ON DELETE CASCADE",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
