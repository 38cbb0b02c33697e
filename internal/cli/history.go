package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"catclone/internal/clone"
)

// historySchemaVersion is used to detect incompatible on-disk schema changes.
const historySchemaVersion = 1

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

type historyEntry struct {
	ID             string    `json:"id" yaml:"id"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time `json:"finished_at" yaml:"finished_at"`
	Command        string    `json:"command" yaml:"command"`
	Base           string    `json:"base" yaml:"base"`
	Type           string    `json:"type" yaml:"type"`
	Donor          string    `json:"donor" yaml:"donor"`
	Clone          string    `json:"clone" yaml:"clone"`
	Status         string    `json:"status" yaml:"status"`
	Error          string    `json:"error,omitempty" yaml:"error,omitempty"`
	RegeneratedIDs int       `json:"regenerated_ids" yaml:"regenerated_ids"`
}

func newHistoryEntry(command string, t clone.Target, started time.Time) historyEntry {
	return historyEntry{
		ID:         uuid.NewString(),
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Command:    command,
		Base:       t.Base,
		Type:       t.Type,
		Donor:      t.Donor,
		Clone:      t.Clone,
		Status:     statusOK,
	}
}

func NewHistoryCmd(rf *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig(*rf)
			if err != nil {
				return err
			}
			path, err := historyPath(cfg)
			if err != nil {
				return err
			}

			entries, err := listRuns(path, limit)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return err
				}
				entries = []historyEntry{}
			}

			if rf.Output != "text" {
				return writeStructured(cmd.OutOrStdout(), rf.Output, map[string]any{
					"path": path,
					"runs": entries,
				})
			}

			if len(entries) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no runs recorded at %s\n", path)
				return nil
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %-7s  %-6s  %s.%s -> %s.%s  %s\n",
					e.StartedAt.Local().Format(time.DateTime), e.Command, e.Status,
					e.Type, e.Donor, e.Type, e.Clone, e.Base)
				if e.Error != "" {
					fmt.Fprintf(out, "    %s\n", e.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func historyPath(cfg Config) (string, error) {
	if cfg.HistoryPath != "" {
		return cfg.HistoryPath, nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "catclone", "history.sqlite"), nil
}

func openHistory(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := initHistorySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func initHistorySchema(db *sql.DB) error {
	// Pragmas are best-effort; ignore errors on older sqlite implementations.
	_, _ = db.Exec(`PRAGMA journal_mode=WAL`)
	_, _ = db.Exec(`PRAGMA synchronous=NORMAL`)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			command TEXT NOT NULL,
			base TEXT,
			type TEXT,
			donor TEXT,
			clone TEXT,
			status TEXT NOT NULL,
			error TEXT,
			regenerated_ids INTEGER
		)
	`); err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at)`); err != nil {
		return err
	}
	_, err := db.Exec(`INSERT INTO meta(key,value) VALUES('schema_version', ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, strconv.Itoa(historySchemaVersion))
	return err
}

func recordRun(path string, e historyEntry) error {
	db, err := openHistory(path)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`
		INSERT INTO runs(id,started_at,finished_at,command,base,type,donor,clone,status,error,regenerated_ids)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)
	`, e.ID, e.StartedAt.UnixNano(), e.FinishedAt.UnixNano(), e.Command, e.Base, e.Type, e.Donor, e.Clone, e.Status, e.Error, e.RegeneratedIDs)
	return err
}

// tryRecordRun journals e and only logs a failure: a broken history database
// never fails the run itself.
func tryRecordRun(log *slog.Logger, path string, e historyEntry) {
	if err := recordRun(path, e); err != nil {
		log.Warn("could not record run history", "path", path, "err", err)
		return
	}
	log.Debug("run recorded", "path", path, "id", e.ID)
}

// listRuns returns up to limit runs, newest first. A missing database is
// reported as os.ErrNotExist.
func listRuns(path string, limit int) ([]historyEntry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := openHistory(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT id,started_at,finished_at,command,base,type,donor,clone,status,error,regenerated_ids FROM runs ORDER BY started_at DESC, rowid DESC`
	var qargs []any
	if limit > 0 {
		q += ` LIMIT ?`
		qargs = append(qargs, limit)
	}
	rows, err := db.Query(q, qargs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []historyEntry{}
	for rows.Next() {
		var e historyEntry
		var started, finished int64
		var base, typ, donor, cl, errText sql.NullString
		var regenerated sql.NullInt64
		if err := rows.Scan(&e.ID, &started, &finished, &e.Command, &base, &typ, &donor, &cl, &e.Status, &errText, &regenerated); err != nil {
			return nil, err
		}
		e.StartedAt = time.Unix(0, started).UTC()
		e.FinishedAt = time.Unix(0, finished).UTC()
		e.Base, e.Type, e.Donor, e.Clone, e.Error = base.String, typ.String, donor.String, cl.String, errText.String
		e.RegeneratedIDs = int(regenerated.Int64)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
