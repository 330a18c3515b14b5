// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index maintains the full-text search database over converted
// papers. Markdown is split into pages and indexed in SQLite FTS5;
// re-indexing is incremental by file modification time.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mesh-intelligence/papercutter/pkg/types"
)

const dbFile = "papercutter.db"

// Store manages the search index SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the search database under indexDir.
func Open(indexDir string) (*Store, error) {
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(indexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, maxResults: 20}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT,
			bibtex_key TEXT,
			filename TEXT,
			markdown_path TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL REFERENCES papers(id),
			page INTEGER NOT NULL,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_paper_id ON pages(paper_id)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			paper_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='pages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE pages_fts USING fts5(content, content=pages, content_rowid=rowid)`,
			`CREATE TRIGGER pages_ai AFTER INSERT ON pages BEGIN
				INSERT INTO pages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER pages_ad AFTER DELETE ON pages BEGIN
				INSERT INTO pages_fts(pages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER pages_au AFTER UPDATE ON pages BEGIN
				INSERT INTO pages_fts(pages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO pages_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SyncSummary holds counts from an index synchronization run.
type SyncSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of papers processed.
func (s SyncSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Sync indexes the Markdown of every ingested paper, skipping papers
// whose files have not changed since their last indexing.
func (s *Store) Sync(ctx context.Context, entries []*types.PaperEntry, w io.Writer) (SyncSummary, error) {
	var summary SyncSummary

	for _, entry := range entries {
		if entry.MarkdownPath == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		info, err := os.Stat(entry.MarkdownPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Filename, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE paper_id = ?`, entry.ID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", entry.Filename)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		data, err := os.ReadFile(entry.MarkdownPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Filename, err)
			summary.Failed++
			continue
		}

		pages := splitPages(string(data))
		if err := s.indexPaper(ctx, entry, pages, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Filename, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d pages)\n", entry.Filename, len(pages))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%d pages)\n", entry.Filename, len(pages))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) indexPaper(ctx context.Context, entry *types.PaperEntry, pages map[int]string, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE paper_id = ?`, entry.ID); err != nil {
			return fmt.Errorf("deleting old pages: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, title, bibtex_key, filename, markdown_path)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, bibtex_key=excluded.bibtex_key,
			filename=excluded.filename, markdown_path=excluded.markdown_path`,
		entry.ID, entry.Title, entry.BibtexKey, entry.Filename, entry.MarkdownPath,
	)
	if err != nil {
		return fmt.Errorf("upserting paper: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (paper_id, page, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for page := 1; page <= maxPage(pages); page++ {
		content, ok := pages[page]
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, entry.ID, page, content); err != nil {
			return fmt.Errorf("inserting page %d: %w", page, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (paper_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		entry.ID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

func maxPage(pages map[int]string) int {
	max := 0
	for p := range pages {
		if p > max {
			max = p
		}
	}
	return max
}

// splitPages divides Markdown at <!-- page N --> markers. Content before
// the first marker (frontmatter, title) lands on page 1.
func splitPages(content string) map[int]string {
	pages := map[int]string{}
	current := 1
	var b strings.Builder

	flush := func() {
		if b.Len() > 0 {
			pages[current] += b.String()
			b.Reset()
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if page, ok := parsePageMarker(trimmed); ok {
			flush()
			current = page
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	flush()
	return pages
}

// parsePageMarker extracts the page number from an HTML comment like <!-- page 3 -->.
func parsePageMarker(line string) (int, bool) {
	if !strings.HasPrefix(line, "<!-- page ") || !strings.HasSuffix(line, " -->") {
		return 0, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "<!-- page "), " -->")
	page, err := strconv.Atoi(strings.TrimSpace(inner))
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// SearchResult is one ranked snippet from the index.
type SearchResult struct {
	PaperID   string
	Title     string
	BibtexKey string
	Filename  string
	Page      int
	Snippet   string
}

// Search runs an FTS5 query and returns ranked snippets. limit <= 0
// uses the store default.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.paper_id, papers.title, papers.bibtex_key, papers.filename, p.page,
			snippet(pages_fts, 0, '[', ']', '...', 12)
		 FROM pages_fts
		 JOIN pages p ON p.rowid = pages_fts.rowid
		 JOIN papers ON papers.id = p.paper_id
		 WHERE pages_fts MATCH ?
		 ORDER BY bm25(pages_fts)
		 LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("executing search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.PaperID, &r.Title, &r.BibtexKey, &r.Filename, &r.Page, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count returns the number of indexed papers and pages.
func (s *Store) Count(ctx context.Context) (papers, pages int, err error) {
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&papers); err != nil {
		return 0, 0, fmt.Errorf("counting papers: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM pages`).Scan(&pages); err != nil {
		return 0, 0, fmt.Errorf("counting pages: %w", err)
	}
	return papers, pages, nil
}
