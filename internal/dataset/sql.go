package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
)

// Dialect selects placeholder syntax for the SQL sources.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) placeholder(i int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkTable(table string) error {
	if !identPattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

// Schema returns the DDL for a foods table holding one column per nutrient.
// The seq column preserves source order.
func Schema(table string) (string, error) {
	if err := checkTable(table); err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", table)
	b.WriteString("\tseq INTEGER NOT NULL,\n")
	b.WriteString("\tid INTEGER PRIMARY KEY,\n")
	b.WriteString("\tdescription TEXT NOT NULL,\n")
	b.WriteString("\tcategory TEXT NOT NULL")
	for _, n := range food.Nutrients() {
		fmt.Fprintf(&b, ",\n\t%s DOUBLE PRECISION", n.Key())
	}
	b.WriteString("\n)")
	return b.String(), nil
}

// LoadSQL reads every row of table ordered by seq.
func LoadSQL(ctx context.Context, db *sql.DB, table string) (*Dataset, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY seq", table))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[strings.ToLower(c)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return FromRows(out)
}

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Export replaces the contents of table with ds inside one transaction.
func Export(ctx context.Context, db TxRunner, dialect Dialect, table string, ds *Dataset) error {
	ddl, err := Schema(table)
	if err != nil {
		return err
	}
	return db.InTx(ctx, func(tx *sql.Tx) error {
		return exportTx(ctx, tx, dialect, table, ddl, ds)
	})
}

func exportTx(ctx context.Context, tx *sql.Tx, dialect Dialect, table, ddl string, ds *Dataset) error {
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clearing table %s: %w", table, err)
	}

	cols := []string{"seq", "id", "description", "category"}
	for _, n := range food.Nutrients() {
		cols = append(cols, n.Key())
	}
	marks := make([]string, len(cols))
	for i := range marks {
		marks[i] = dialect.placeholder(i + 1)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "),
	))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for seq, f := range ds.All() {
		args[0] = seq
		args[1] = f.ID
		args[2] = f.Description
		args[3] = string(f.Category)
		for i, n := range food.Nutrients() {
			if v, ok := f.Get(n); ok {
				args[4+i] = v
			} else {
				args[4+i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting food %d: %w", f.ID, err)
		}
	}
	return nil
}
