package backup

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nvandessel/penney/internal/pathutil"
)

// Format version constants.
const (
	FormatV1 = 1
	FormatV2 = 2
)

// MaxDecompressedSize is the maximum allowed size of decompressed backup data (200MB).
const MaxDecompressedSize = 200 * 1024 * 1024

// BackupHeader is the plain-text first line of a V2 backup file.
type BackupHeader struct {
	Version     int               `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	Checksum    string            `json:"checksum"`
	TotalRounds int               `json:"total_rounds_played"`
	DeckCount   int               `json:"deck_count"`
	Compressed  bool              `json:"compressed"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DetectFormat reads the first bytes of a file to determine V1 vs V2.
// V2 files have a header line with "version":2. V1 files are plain JSON starting with '{'.
func DetectFormat(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("reading first line: %w", err)
		}
		return 0, fmt.Errorf("file is empty")
	}

	firstLine := strings.TrimSpace(scanner.Text())
	if firstLine == "" {
		return 0, fmt.Errorf("first line is empty")
	}

	// Try to parse as a header
	var header BackupHeader
	if err := json.Unmarshal([]byte(firstLine), &header); err == nil {
		if header.Version == FormatV2 {
			return FormatV2, nil
		}
	}

	// If first line starts with '{', it's a V1 plain JSON file
	if firstLine[0] == '{' {
		return FormatV1, nil
	}

	return 0, fmt.Errorf("unrecognized backup format")
}

// WriteV1 writes a snapshot as indented plain JSON.
func WriteV1(path string, s *Snapshot) error {
	v1 := *s
	v1.Version = FormatV1
	data, err := json.MarshalIndent(&v1, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return pathutil.WriteFileAtomic(path, append(data, '\n'), 0600)
}

// WriteV2 writes a snapshot as a V2 file: header line + gzip-compressed payload.
func WriteV2(path string, s *Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	var compressed bytes.Buffer
	gzw, err := gzip.NewWriterLevel(&compressed, gzip.DefaultCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gzw.Write(payload); err != nil {
		return fmt.Errorf("compressing payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	header := BackupHeader{
		Version:     FormatV2,
		CreatedAt:   s.CreatedAt,
		Checksum:    checksum(compressed.Bytes()),
		TotalRounds: s.TotalRounds,
		DeckCount:   len(s.DeckHistory),
		Compressed:  true,
	}
	if s.Source != "" {
		header.Metadata = map[string]string{"source": s.Source}
	}

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	var out bytes.Buffer
	out.Grow(len(headerBytes) + 1 + compressed.Len())
	out.Write(headerBytes)
	out.WriteByte('\n')
	out.Write(compressed.Bytes())

	return pathutil.WriteFileAtomic(path, out.Bytes(), 0600)
}

// ReadV2 reads a V2 backup file, verifies the checksum, and decompresses the payload.
func ReadV2(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	header, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	compressedData, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading compressed payload: %w", err)
	}

	if actual := checksum(compressedData); actual != header.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, actual)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressedData))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	// Limit decompressed size
	limitedReader := io.LimitReader(gzr, MaxDecompressedSize+1)
	decompressed, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("decompressing payload: %w", err)
	}
	if int64(len(decompressed)) > MaxDecompressedSize {
		return nil, fmt.Errorf("decompressed payload exceeds maximum size of %d bytes", MaxDecompressedSize)
	}

	var snap Snapshot
	if err := json.Unmarshal(decompressed, &snap); err != nil {
		return nil, fmt.Errorf("parsing backup data: %w", err)
	}

	return &snap, nil
}

// ReadV2Header reads only the header line from a V2 backup file without decompressing.
func ReadV2Header(path string) (*BackupHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return readHeader(bufio.NewReader(f))
}

// VerifyChecksum checks the integrity of a V2 backup file without full decompression.
func VerifyChecksum(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	header, err := readHeader(reader)
	if err != nil {
		return err
	}

	compressedData, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("reading compressed payload: %w", err)
	}

	if actual := checksum(compressedData); actual != header.Checksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, actual)
	}

	return nil
}

func readHeader(r *bufio.Reader) (*BackupHeader, error) {
	headerLine, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header line: %w", err)
	}

	var header BackupHeader
	if err := json.Unmarshal(bytes.TrimSpace(headerLine), &header); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}

	if header.Version != FormatV2 {
		return nil, fmt.Errorf("expected V2 format, got version %d", header.Version)
	}

	return &header, nil
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}
