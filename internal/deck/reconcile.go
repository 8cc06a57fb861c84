// Package deck reconciles card sources with the database: it walks each
// source's markdown files, hashes the cards it finds, inserts the ones
// the database has never seen (with fresh review records) and deletes the
// ones that disappeared from their source.
package deck

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cardgenie/cardgenie/internal/dedupe"
	"github.com/cardgenie/cardgenie/internal/gitsource"
	"github.com/cardgenie/cardgenie/internal/parser"
	"github.com/cardgenie/cardgenie/internal/storage"
)

// Source type values as stored in the sources table.
const (
	TypeLocal = "local"
	TypeGit   = "git"
)

// DetectType classifies a source path as local or git.
func DetectType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return TypeGit
	}
	return TypeLocal
}

// SyncAll reconciles every configured source. reposDir is where git
// sources keep their local checkouts. Per-source failures are logged and
// skipped so one broken deck does not block the rest.
func SyncAll(db *storage.DB, reposDir string, now time.Time) error {
	slog.Info("starting sync for all sources")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil
	}

	if err := os.MkdirAll(reposDir, 0o755); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		scanPath := source.Path
		if source.Type == TypeGit {
			localPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("cannot derive local path for git source", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localPath); err != nil {
				slog.Error("git sync failed", "url", source.Path, "error", err)
				continue
			}
			scanPath = localPath
		}

		if err := reconcile(db, source.ID, scanPath, now); err != nil {
			slog.Error("reconcile failed", "path", scanPath, "error", err)
		}
	}
	slog.Info("sync complete")
	return nil
}

// reconcile walks one source directory and brings its cards in the
// database up to date.
func reconcile(db *storage.DB, sourceID int64, root string, now time.Time) error {
	var (
		parsed      int
		inserted    int
		problems    []error
		foundHashes = make(map[string]bool)
	)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		cards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			problems = append(problems, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, card := range cards {
			card.Hash = dedupe.Hash(card)
			parsed++
			foundHashes[card.Hash] = true

			existing, findErr := db.FindCardByHash(card.Hash)
			if findErr != nil {
				problems = append(problems, fmt.Errorf("db check for %s: %w", card.Hash, findErr))
				continue
			}
			if existing == nil {
				if insertErr := db.InsertCard(card, sourceID, now); insertErr != nil {
					problems = append(problems, fmt.Errorf("db insert for %s: %w", card.Hash, insertErr))
					continue
				}
				inserted++
			}
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walking %s: %w", root, walkErr)
	}

	dbCards, err := db.GetCardsBySourceID(sourceID)
	if err != nil {
		return fmt.Errorf("loading cards for source %d: %w", sourceID, err)
	}

	var orphaned int
	for _, dbCard := range dbCards {
		if !foundHashes[dbCard.Card.Hash] {
			orphaned++
			if err := db.DeleteCardByHash(dbCard.Card.Hash); err != nil {
				slog.Warn("failed to delete orphaned card", "hash", dbCard.Card.Hash, "error", err)
			}
		}
	}

	if err := db.UpdateSourceLastScanned(sourceID, now); err != nil {
		slog.Warn("failed to update last scanned", "source_id", sourceID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", root,
		"parsed_cards", parsed,
		"inserted", inserted,
		"orphaned_deleted", orphaned,
		"errors", len(problems),
	)
	return nil
}

// gitURLToLocalPath maps a git URL to a stable checkout path under baseDir.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err == nil && (parsedURL.Scheme == "https" || parsedURL.Scheme == "http") {
		sanitized := strings.TrimSuffix(parsedURL.Path, ".git")
		return filepath.Join(baseDir, parsedURL.Host, sanitized), nil
	}

	// SSH form: git@host:owner/repo.git
	if strings.Contains(repoURL, "@") {
		parts := strings.Split(repoURL, ":")
		if len(parts) == 2 {
			hostAndUser := strings.Split(parts[0], "@")
			if len(hostAndUser) == 2 {
				host := hostAndUser[1]
				repoPath := strings.TrimSuffix(parts[1], ".git")
				return filepath.Join(baseDir, host, repoPath), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
