// Package outputters renders a completed AuditResult to files and the
// console. Renderers are pure presentation: every number and flag they
// show was computed upstream.
package outputters

import (
	"encoding/json"
	"os"

	"github.com/praetorian-inc/rolecall/internal/message"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

// JSONFileOutputter writes the full audit result as indented JSON.
type JSONFileOutputter struct {
	OutputPath string
	FileName   string
}

func NewJSONFileOutputter(outputPath string) *JSONFileOutputter {
	return &JSONFileOutputter{OutputPath: outputPath}
}

func (o *JSONFileOutputter) Write(result *types.AuditResult) error {
	filename := o.FileName
	if filename == "" {
		filename = DefaultFileName("rolecall-audit", "json")
	}
	fullpath := GetFullPath(filename, o.OutputPath)

	if err := ensureDir(fullpath); err != nil {
		return err
	}

	file, err := os.Create(fullpath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return err
	}

	message.Success("Output written to %s", fullpath)
	return nil
}
