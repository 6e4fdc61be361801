package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"rfm-segmentation/internal/errors"
	"rfm-segmentation/internal/models"
)

const (
	IdentifierHeader = "master_id"
	SummaryFile      = "rfm_summary.json"
	HTMLFile         = "rfm_report.html"
)

// WriteIdentifiers writes ids to path as a one-column CSV headed by
// master_id. Parent directories are created as needed and an existing file is
// replaced.
func WriteIdentifiers(path string, ids []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("create directory for %s", path))
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("create %s", path))
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{IdentifierHeader}); err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("write %s", path))
	}
	for _, id := range ids {
		if err := w.Write([]string{id}); err != nil {
			return errors.ExportWrap(err, fmt.Sprintf("write %s", path))
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("write %s", path))
	}

	if err := file.Close(); err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("close %s", path))
	}
	return nil
}

// ExportJSON writes v to path as indented JSON.
func ExportJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("create directory for %s", path))
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("create %s", path))
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("encode %s", path))
	}

	if err := file.Close(); err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("close %s", path))
	}
	return nil
}

// WriteHTML renders the static segment report to path.
func WriteHTML(ctx context.Context, path string, summary models.RunSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("create directory for %s", path))
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("create %s", path))
	}
	defer file.Close()

	if err := SegmentReport(summary).Render(ctx, file); err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("render %s", path))
	}

	if err := file.Close(); err != nil {
		return errors.ExportWrap(err, fmt.Sprintf("close %s", path))
	}
	return nil
}

type Options struct {
	Dir         string
	SummaryJSON bool
	HTML        bool
}

// Write exports every campaign's identifier file into opts.Dir, plus the
// optional summary JSON and HTML report, and returns the paths written.
func Write(ctx context.Context, summary models.RunSummary, opts Options) ([]string, error) {
	var written []string

	for _, campaign := range summary.Campaigns {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path := filepath.Join(opts.Dir, campaign.Output)
		if err := WriteIdentifiers(path, campaign.CustomerIDs); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if opts.SummaryJSON {
		path := filepath.Join(opts.Dir, SummaryFile)
		if err := ExportJSON(path, summary); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if opts.HTML {
		path := filepath.Join(opts.Dir, HTMLFile)
		if err := WriteHTML(ctx, path, summary); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}
