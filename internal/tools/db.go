package tools

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/example/natural-agent/internal/models"
	"github.com/example/natural-agent/internal/workspace"
)

// DatabaseTool runs one SQL statement against a connection URL and persists
// the result set as a CSV artifact in outputs/.
type DatabaseTool struct {
	Dirs Dirs
	// Open may be replaced in tests; nil means sql.Open.
	Open func(driver, dsn string) (*sql.DB, error)
}

func (t *DatabaseTool) Category() models.ToolCategory { return models.CategoryDatabase }

func (t *DatabaseTool) Run(ctx context.Context, req Request, dryRun bool, timeout time.Duration) models.ToolResult {
	if req.DSN == "" {
		return failure(errors.New("database: missing connection url"), 1)
	}
	if req.SQL == "" {
		return failure(errors.New("database: missing sql statement"), 1)
	}
	csvPath := t.Dirs.Outputs + "/query_result.csv"
	if dryRun {
		return models.ToolResult{OK: true, ExitCode: 0, Extra: map[string]string{
			"planned_url": req.DSN,
			"planned_sql": req.SQL,
			"planned_csv": csvPath,
		}}
	}

	driver, dsn, err := driverDSN(req.DSN)
	if err != nil {
		return failure(err, 1)
	}
	open := t.Open
	if open == nil {
		open = sql.Open
	}
	db, err := open(driver, dsn)
	if err != nil {
		return failure(err, 1)
	}
	defer db.Close()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	rows, err := db.QueryContext(runCtx, req.SQL)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return failure(fmt.Errorf("database: query timed out after %s", timeout), models.TimeoutExitCode)
		}
		return failure(err, 1)
	}
	defer rows.Close()

	count, content, err := rowsToCSV(rows)
	if err != nil {
		return failure(err, 1)
	}
	abs, err := workspace.WriteFile(csvPath, t.Dirs.Root, content)
	if err != nil {
		return failure(err, 1)
	}
	return models.ToolResult{
		OK:           true,
		ExitCode:     0,
		Stdout:       fmt.Sprintf("Rows: %d", count),
		ArtifactPath: abs,
		Extra:        map[string]string{"csv": abs, "rows": fmt.Sprint(count)},
	}
}

// driverDSN turns a mysql:// connection URL into a go-sql-driver DSN. Raw
// driver DSNs (user:pass@tcp(host)/db) pass through untouched.
func driverDSN(raw string) (string, string, error) {
	if !strings.Contains(raw, "://") {
		return "mysql", raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("database: parse url: %w", err)
	}
	if u.Scheme != "mysql" {
		return "", "", fmt.Errorf("database: unsupported scheme %q (only mysql is wired)", u.Scheme)
	}
	host := u.Host
	if u.Port() == "" {
		host += ":3306"
	}
	cred := ""
	if u.User != nil {
		cred = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			cred += ":" + pw
		}
		cred += "@"
	}
	return "mysql", fmt.Sprintf("%stcp(%s)%s", cred, host, u.Path), nil
}

func rowsToCSV(rows *sql.Rows) (int, []byte, error) {
	cols, err := rows.Columns()
	if err != nil {
		return 0, nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(cols); err != nil {
		return 0, nil, err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, nil, err
		}
		rec := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				rec[i] = ""
			case []byte:
				rec[i] = string(x)
			default:
				rec[i] = fmt.Sprint(x)
			}
		}
		if err := w.Write(rec); err != nil {
			return count, nil, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, nil, err
	}
	w.Flush()
	return count, buf.Bytes(), w.Error()
}
