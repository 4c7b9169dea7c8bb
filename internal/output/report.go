package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/torosent/wordstress/internal/metrics"
)

// Formatter renders a finished run.
type Formatter interface {
	Format(w io.Writer, doc Document) error
}

// Document is the report handed to formatters: the aggregate statistics plus
// the run's identity.
type Document struct {
	metrics.Report `yaml:",inline"`

	RunID     string    `json:"runId" yaml:"runId"`
	Target    string    `json:"target" yaml:"target"`
	Mode      string    `json:"mode" yaml:"mode"`
	StartedAt time.Time `json:"startedAt" yaml:"startedAt"`
}

// NewDocument wraps report with a fresh run ID.
func NewDocument(report metrics.Report, target, mode string, startedAt time.Time) Document {
	return Document{
		Report:    report,
		RunID:     ulid.Make().String(),
		Target:    target,
		Mode:      mode,
		StartedAt: startedAt.UTC(),
	}
}

// Formats lists the names accepted by NewFormatter.
var Formats = []string{"table", "json", "csv", "yaml"}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, noColor bool) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "table", "":
		return NewTableFormatter(noColor), nil
	case "json":
		return jsonFormatter{}, nil
	case "csv":
		return csvFormatter{}, nil
	case "yaml", "yml":
		return yamlFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s. Valid formats: %s", name, strings.Join(Formats, ", "))
	}
}

type jsonFormatter struct{}

func (jsonFormatter) Format(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

type yamlFormatter struct{}

func (yamlFormatter) Format(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
