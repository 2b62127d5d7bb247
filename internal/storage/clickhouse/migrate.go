package clickhouse

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate ensures the database named in the DSN exists, applies the
// embedded schema files in lexical order, and returns a connection to
// the migrated database for reuse. Every file uses IF NOT EXISTS
// guards, so running this on each startup is safe.
func Migrate(ctx context.Context, dsn string) (*Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	// The target database may not exist yet, so the CREATE DATABASE
	// runs over a connection with no database selected.
	admin, err := NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	err = admin.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName))
	if cerr := admin.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}

	conn, err := NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}
	if err := applySchema(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func applySchema(ctx context.Context, conn *Conn) error {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list schema files: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		ddl, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return fmt.Errorf("read schema file %s: %w", name, err)
		}
		stmts, err := splitStatements(string(ddl))
		if err != nil {
			return fmt.Errorf("split %s: %w", name, err)
		}
		for _, stmt := range stmts {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
		}
	}

	return nil
}

// splitStatements breaks a schema file into single statements. The
// native protocol driver rejects multi-statement Exec, so files are
// split on semicolons after -- comment lines are dropped. The split
// does not parse quotes, so schema files must keep semicolons out of
// string literals; files that break the rule are rejected.
func splitStatements(ddl string) ([]string, error) {
	if err := checkQuotedSemicolons(ddl); err != nil {
		return nil, err
	}

	var kept []string
	for _, line := range strings.Split(ddl, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, chunk := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt := strings.TrimSpace(chunk); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}

	return stmts, nil
}

// checkQuotedSemicolons rejects DDL that places a semicolon inside a
// single-quoted literal. Quote parity is enough to detect this: a
// doubled quote inside a literal flips the state twice, so a semicolon
// sits inside a literal exactly when the preceding quote count is odd.
func checkQuotedSemicolons(ddl string) error {
	quoted := false
	for i := 0; i < len(ddl); i++ {
		switch ddl[i] {
		case '\'':
			quoted = !quoted
		case ';':
			if quoted {
				return fmt.Errorf("semicolon inside string literal at byte %d", i)
			}
		}
	}
	return nil
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("clickhouse dsn missing database")
	}
	return db, nil
}
