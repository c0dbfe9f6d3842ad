package codec

import (
	"log/slog"

	"github.com/JonMunkholm/modelcsv/internal/keywords"
)

// Options control the layout written by a Writer and the strictness of both
// Writer and Reader. Use the same Options for both sides.
type Options struct {
	// KeyAndDataInSameRow places values on the keyword's row. Otherwise
	// they go on the following row.
	KeyAndDataInSameRow bool
	// Indentation is the column of the first value. It is at least 1 when
	// KeyAndDataInSameRow is set.
	Indentation int
	// ThrowOnDataErrors turns repairable write problems, such as missing
	// names, into DataQualityErrors.
	ThrowOnDataErrors bool
	// Keywords classifies cells. Nil means the default registry.
	Keywords *keywords.Registry
	// Logger receives warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns same-row layout indented by one column.
func DefaultOptions() Options {
	return Options{
		KeyAndDataInSameRow: true,
		Indentation:         1,
		Keywords:            keywords.NewRegistry(),
	}
}

func (o Options) normalized() Options {
	if o.Keywords == nil {
		o.Keywords = keywords.NewRegistry()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Indentation < 0 {
		o.Indentation = 0
	}
	if o.KeyAndDataInSameRow && o.Indentation < 1 {
		o.Indentation = 1
	}
	return o
}
