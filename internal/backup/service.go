// Package backup archives and restores the server's Saved tree, which
// holds world saves, configuration, and logs.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNothingToBackup = errors.New("backup: no Saved directory, nothing to back up")

type Backup struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt string `json:"created_at"`
}

// Service creates tar.gz snapshots of the Saved directory and records
// them in the backup catalog.
type Service struct {
	db        *sql.DB
	serverDir string
	backupDir string
}

func NewService(db *sql.DB, serverDir, backupDir string) *Service {
	return &Service{db: db, serverDir: serverDir, backupDir: backupDir}
}

// savedDir is the subtree worth preserving: SavedArks, Config and Logs.
func (s *Service) savedDir() string {
	return filepath.Join(s.serverDir, "ShooterGame", "Saved")
}

// Create archives the Saved tree into a timestamped tar.gz and records it.
func (s *Service) Create() (*Backup, error) {
	src := s.savedDir()
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil, ErrNothingToBackup
	}

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return nil, fmt.Errorf("backup: create backup dir: %w", err)
	}

	id := uuid.New().String()[:8]
	filename := fmt.Sprintf("%s-%s.tar.gz", time.Now().Format("20060102-150405"), id)
	path := filepath.Join(s.backupDir, filename)

	if err := writeArchive(path, src); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("backup: create archive: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("backup: stat archive: %w", err)
	}

	b := &Backup{
		ID:        id,
		Filename:  filename,
		SizeBytes: info.Size(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := s.db.Exec(
		`INSERT INTO backups (id, filename, size_bytes) VALUES (?, ?, ?)`,
		b.ID, b.Filename, b.SizeBytes,
	); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("backup: save record: %w", err)
	}

	return b, nil
}

// List returns all recorded backups, newest first.
func (s *Service) List() ([]Backup, error) {
	rows, err := s.db.Query(
		`SELECT id, filename, size_bytes, created_at FROM backups ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	backups := []Backup{}
	for rows.Next() {
		var b Backup
		if err := rows.Scan(&b.ID, &b.Filename, &b.SizeBytes, &b.CreatedAt); err != nil {
			continue
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// FilePath resolves a backup ID to its archive on disk.
func (s *Service) FilePath(id string) (string, error) {
	var filename string
	err := s.db.QueryRow(`SELECT filename FROM backups WHERE id = ?`, id).Scan(&filename)
	if err != nil {
		return "", fmt.Errorf("backup %s not found: %w", id, err)
	}
	return filepath.Join(s.backupDir, filename), nil
}

// Delete removes the archive and its catalog record.
func (s *Service) Delete(id string) error {
	path, err := s.FilePath(id)
	if err != nil {
		return err
	}
	os.Remove(path)
	_, err = s.db.Exec(`DELETE FROM backups WHERE id = ?`, id)
	return err
}

// Restore replaces the Saved tree with the archive's contents. The
// server must be stopped first; callers enforce that.
func (s *Service) Restore(id string) error {
	path, err := s.FilePath(id)
	if err != nil {
		return err
	}

	dest := s.savedDir()
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("backup: clear Saved: %w", err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("backup: recreate Saved: %w", err)
	}
	return extractArchive(path, dest)
}

func writeArchive(dest, srcDir string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	defer gw.Close()
	tw := tar.NewWriter(gw)
	defer tw.Close()

	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil || rel == "." {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
}

func extractArchive(src, destDir string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, filepath.FromSlash(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("backup: archive entry escapes destination: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
}
