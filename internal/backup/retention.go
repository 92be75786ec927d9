package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// BackupInfo describes one backup file on disk.
type BackupInfo struct {
	Path      string
	Size      int64
	CreatedAt time.Time
	Version   int
}

// Retention decides which backups survive rotation. A backup is kept when
// it is among the MaxCount newest or younger than MaxAge. Zero disables a
// limit; with both zero everything is kept.
type Retention struct {
	MaxCount int
	MaxAge   time.Duration
}

// Keep returns the backups to retain from a newest-first list.
func (r Retention) Keep(backups []BackupInfo, now time.Time) []BackupInfo {
	if r.MaxCount <= 0 && r.MaxAge <= 0 {
		return backups
	}
	cutoff := now.Add(-r.MaxAge)
	var keep []BackupInfo
	for i, b := range backups {
		if (r.MaxCount > 0 && i < r.MaxCount) || (r.MaxAge > 0 && b.CreatedAt.After(cutoff)) {
			keep = append(keep, b)
		}
	}
	return keep
}

// ListBackups scans dir for penney-backup-* files and returns them sorted newest-first.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, e := range entries {
		if e.IsDir() || !isBackupFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		bi := BackupInfo{
			Path:      filepath.Join(dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		}
		if version, err := DetectFormat(bi.Path); err == nil {
			bi.Version = version
		}
		backups = append(backups, bi)
	}

	// Timestamp is embedded in the name
	slices.SortFunc(backups, func(a, b BackupInfo) int {
		return strings.Compare(filepath.Base(b.Path), filepath.Base(a.Path))
	})
	return backups, nil
}

// Rotate deletes the backups in dir that r does not keep.
func Rotate(dir string, r Retention) (deleted []string, err error) {
	backups, err := ListBackups(dir)
	if err != nil {
		return nil, err
	}

	kept := make(map[string]bool)
	for _, b := range r.Keep(backups, time.Now()) {
		kept[b.Path] = true
	}

	for _, b := range backups {
		if kept[b.Path] {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(b.Path), err)
		}
		deleted = append(deleted, b.Path)
	}
	return deleted, nil
}

// ParseDuration parses duration strings like "30d", "2w", "720h".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	switch s[len(s)-1] {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", s[len(s)-1:], s)
	}
}

func isBackupFile(name string) bool {
	return strings.HasPrefix(name, FilePrefix) &&
		(strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz"))
}
