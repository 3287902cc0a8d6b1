// Package bindgraph drives resolution of setup files and writes the plans.
package bindgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/engine"
	"github.com/mazrean/bindgraph/internal/model"
	"github.com/mazrean/bindgraph/internal/plan"
	"github.com/mazrean/bindgraph/internal/setupfile"
)

// Processor resolves setup files and reports their plans.
type Processor struct {
	options []engine.Option
	// stdout receives every report when set, instead of <file>_plan.txt.
	stdout io.Writer
}

// NewProcessor creates a new processor instance.
func NewProcessor(opts ...engine.Option) *Processor {
	return &Processor{
		options: opts,
	}
}

// WithStdout makes the processor write reports to w instead of files.
func (p *Processor) WithStdout(w io.Writer) *Processor {
	p.stdout = w
	return p
}

type fileSetups struct {
	filename string
	setups   []*model.Setup
}

// ProcessFiles resolves every setup of the files and writes one report per
// file. It returns diag.ErrHandled when any setup reported errors.
func (p *Processor) ProcessFiles(ctx context.Context, files []string) error {
	loaded, results, err := p.resolve(ctx, files)
	if err != nil && !errors.Is(err, diag.ErrHandled) {
		return err
	}

	offset := 0
	for _, f := range loaded {
		rs := results[offset : offset+len(f.setups)]
		offset += len(f.setups)

		if writeErr := p.writeReport(f.filename, rs); writeErr != nil {
			return writeErr
		}
	}

	return err
}

// CheckFiles resolves the files and only prints diagnostics to w.
func (p *Processor) CheckFiles(ctx context.Context, w io.Writer, files []string) error {
	_, results, err := p.resolve(ctx, files)
	if err != nil && !errors.Is(err, diag.ErrHandled) {
		return err
	}

	for _, res := range results {
		for _, d := range res.Diagnostics {
			if _, writeErr := fmt.Fprintln(w, d.String()); writeErr != nil {
				return fmt.Errorf("write diagnostics: %w", writeErr)
			}
		}
	}
	return err
}

func (p *Processor) resolve(ctx context.Context, files []string) ([]fileSetups, []*engine.Result, error) {
	var (
		loaded []fileSetups
		all    []*model.Setup
	)
	for _, filename := range files {
		slog.Debug("Loading setup file", "file", filename)

		setups, err := setupfile.LoadFile(filename)
		if err != nil {
			return nil, nil, fmt.Errorf("load setup file: %w", err)
		}
		loaded = append(loaded, fileSetups{filename: filename, setups: setups})
		all = append(all, setups...)
	}

	slog.Info("Resolving setups", "files", len(files), "setups", len(all))

	results, err := engine.BuildAll(ctx, all, p.options...)
	if err != nil && !errors.Is(err, diag.ErrHandled) {
		return nil, nil, fmt.Errorf("resolve setups: %w", err)
	}
	return loaded, results, err
}

func (p *Processor) writeReport(filename string, results []*engine.Result) error {
	if p.stdout != nil {
		return Report(p.stdout, results)
	}

	outputFileName := outputFileName(filename)
	slog.Debug("Writing plan", "file", outputFileName)

	f, err := os.Create(outputFileName)
	if err != nil {
		return fmt.Errorf("create file %s: %w", outputFileName, err)
	}
	defer f.Close()

	return Report(f, results)
}

// Report writes the diagnostics and plan of each result.
func Report(w io.Writer, results []*engine.Result) error {
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "setup %s\n", res.Setup.Name)
		for _, d := range res.Diagnostics {
			fmt.Fprintf(&b, "%s\n", d)
		}
		if res.Plan == nil {
			b.WriteString("no plan\n")
			continue
		}
		b.WriteByte('\n')
		if err := plan.Format(&b, res.Plan); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func outputFileName(filename string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "_plan.txt"
}
