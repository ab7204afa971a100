// Command query-server is an MCP stdio server exposing read-only database
// tools over a SQLite file: list_tables, describe_table and query. Queries
// are restricted to SELECT statements and results are capped at 10 rows.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	_ "modernc.org/sqlite"
)

// maxRows caps every result set.
const maxRows = 10

func main() {
	dbPath := flag.String("db", "conclave.db", "path to the SQLite database file")
	flag.Parse()

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query-server:", err)
		os.Exit(1)
	}
	defer db.Close()

	s := server.NewMCPServer("Query", "0.1.0", server.WithToolCapabilities(false))
	registerTools(s, db)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintln(os.Stderr, "query-server:", err)
		os.Exit(1)
	}
}

func registerTools(s *server.MCPServer, db *sql.DB) {
	listTables := mcp.NewTool("list_tables",
		mcp.WithDescription("Lists the tables available in the database."),
	)
	s.AddTool(listTables, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := tableNames(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(strings.Join(names, "\n")), nil
	})

	describeTable := mcp.NewTool("describe_table",
		mcp.WithDescription("Describes the columns of a table."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Name of the table to describe"),
		),
	)
	s.AddTool(describeTable, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		desc, err := describe(ctx, db, table)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(desc), nil
	})

	queryTool := mcp.NewTool("query",
		mcp.WithDescription(fmt.Sprintf("Runs a read-only SELECT statement. Results are capped at %d rows.", maxRows)),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("The SELECT statement to run"),
		),
	)
	s.AddTool(queryTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stmt, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result, err := runQuery(ctx, db, stmt)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	})
}

func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func describe(ctx context.Context, db *sql.DB, table string) (string, error) {
	if !validIdentifier(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var b strings.Builder
	found := false
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return "", err
		}
		found = true
		fmt.Fprintf(&b, "%s %s", name, ctype)
		if notNull == 1 {
			b.WriteString(" NOT NULL")
		}
		if pk == 1 {
			b.WriteString(" PRIMARY KEY")
		}
		b.WriteString("\n")
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("table %q not found", table)
	}
	return b.String(), nil
}

// runQuery executes a SELECT statement and renders up to maxRows rows as
// JSON lines keyed by column name.
func runQuery(ctx context.Context, db *sql.DB, stmt string) (string, error) {
	if !isSelect(stmt) {
		return "", fmt.Errorf("only SELECT statements are allowed")
	}

	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	count := 0
	truncated := false
	for rows.Next() {
		if count >= maxRows {
			truncated = true
			break
		}

		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}

		record := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			v := values[i]
			if raw, ok := v.([]byte); ok {
				v = string(raw)
			}
			record[col] = v
		}
		line, err := json.Marshal(record)
		if err != nil {
			return "", err
		}
		b.Write(line)
		b.WriteString("\n")
		count++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if count == 0 {
		return "no rows", nil
	}
	if truncated {
		fmt.Fprintf(&b, "(truncated to %d rows)\n", maxRows)
	}
	return b.String(), nil
}

func isSelect(stmt string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(stmt))
	return strings.HasPrefix(trimmed, "select ") || strings.HasPrefix(trimmed, "with ")
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
