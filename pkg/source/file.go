package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/bubblechart/pkg/errors"
	"github.com/matzehuels/bubblechart/pkg/intent"
)

// File reads intents from a JSON or YAML file. The path "-" reads stdin.
type File struct {
	Path   string
	Format string
	// Stdin replaces os.Stdin for the "-" path.
	Stdin io.Reader
}

// NewFile validates path and returns a file source. An empty format is
// detected from the extension.
func NewFile(path, format string) (*File, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	if format == "" {
		format = intent.FormatFromPath(path)
	}
	if format != intent.FormatJSON && format != intent.FormatYAML {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported intent format %q (must be json or yaml)", format)
	}
	return &File{Path: path, Format: format}, nil
}

func (f *File) Kind() string { return "file" }
func (f *File) Ref() string  { return f.Path }

// Load reads and decodes the file.
func (f *File) Load(ctx context.Context) ([]intent.Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var r io.Reader
	if f.Path == "-" {
		r = f.Stdin
		if r == nil {
			r = os.Stdin
		}
	} else {
		file, err := os.Open(f.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "intents file %s", f.Path)
			}
			return nil, fmt.Errorf("open intents: %w", err)
		}
		defer file.Close()
		r = file
	}

	intents, err := intent.Read(r, f.Format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", f.Path)
	}
	return intents, nil
}

// Close does nothing for files.
func (f *File) Close() error { return nil }

var _ Source = (*File)(nil)
