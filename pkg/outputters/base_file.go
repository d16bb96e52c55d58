package outputters

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/praetorian-inc/rolecall/pkg/types"
)

var (
	_ types.Outputter = (*JSONFileOutputter)(nil)
	_ types.Outputter = (*CSVFileOutputter)(nil)
	_ types.Outputter = (*SummaryConsoleOutputter)(nil)
	_ types.Outputter = (*HTMLReportOutputter)(nil)
)

// GetFullPath constructs the full file path from filename and output path
func GetFullPath(filename string, outputPath string) string {
	return filepath.Join(outputPath, filename)
}

// DefaultFileName builds a timestamped file name for a report artifact.
func DefaultFileName(prefix, extension string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, time.Now().Format("20060102-150405"), extension)
}

// ensureDir creates the directory for a full path if it does not exist.
func ensureDir(fullpath string) error {
	dir := filepath.Dir(fullpath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, os.ModePerm)
	}
	return nil
}
