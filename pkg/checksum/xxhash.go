package checksum

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// GetFileChecksum hashes the file content. Two byte-identical files share a checksum
// whatever their names, which is what the import ledger keys on.
func GetFileChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to copy file content to hasher for file %s: %w", filePath, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// CalculateHash hashes one record's values joined by ';'.
func CalculateHash(record []string) string {
	digest := xxhash.New()
	digest.WriteString(strings.Join(record, ";"))
	return hex.EncodeToString(digest.Sum(nil))
}
