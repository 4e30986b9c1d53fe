package signatureengine

import (
	"log/slog"
	"time"

	"github.com/prathamesonar/signature-engine/coords"
	"github.com/prathamesonar/signature-engine/fields"
)

// Stamping bounds in PDF points. Positions are clamped into the box and
// sizes are capped; nothing is rejected for being out of range.
const (
	MinX      = 10
	MaxX      = 500
	MinY      = 10
	MaxY      = 800
	MaxWidth  = 150
	MaxHeight = 80

	// TextSize is the font size of text and date fields.
	TextSize = 12
	// DefaultText is drawn for text fields without a label.
	DefaultText = "Text Field"
)

// Status is the result of stamping a single field.
type Status string

const (
	StatusStamped Status = "stamped"
	StatusSkipped Status = "skipped"
)

// Reasons reported on skipped fields.
const (
	ReasonInertType = "inert field type"
)

// FieldOutcome records what happened to one submitted field.
type FieldOutcome struct {
	Index  int             `json:"index"`
	Type   fields.Type     `json:"type"`
	Status Status          `json:"status"`
	Reason string          `json:"reason,omitempty"`
	Rect   coords.PdfCoord `json:"rect"`
	// Err holds the cause of a skip, such as an *AssetDecodeError.
	Err error `json:"-"`
}

// StampedDocument is the output of a successful stamping run.
type StampedDocument struct {
	Bytes        []byte
	OriginalHash string
	FinalHash    string
	Outcomes     []FieldOutcome
}

// Stamped returns the number of fields drawn onto the page.
func (s *StampedDocument) Stamped() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == StatusStamped {
			n++
		}
	}
	return n
}

// Option configures a stamping run.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	now           func() time.Time
	dateLayout    string
	maxImageSide  int
	maxPixels     int64
	compressLevel *int
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the time source for date fields.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithDateLayout overrides the host locale's short date layout.
func WithDateLayout(layout string) Option {
	return func(o *options) { o.dateLayout = layout }
}

// WithMaxImageSide bounds the signature image; larger images are
// downscaled before embedding. Zero keeps the original size.
func WithMaxImageSide(px int) Option {
	return func(o *options) { o.maxImageSide = px }
}

// WithMaxImagePixels rejects signature images whose header declares more
// pixels, before they are decoded. Zero uses images.DefaultMaxPixels.
func WithMaxImagePixels(px int64) Option {
	return func(o *options) { o.maxPixels = px }
}

// WithCompression sets the zlib level for new streams, overriding the
// document setting.
func WithCompression(level int) Option {
	return func(o *options) { o.compressLevel = &level }
}

func newOptions(opts []Option) *options {
	o := &options{
		now:          time.Now,
		maxImageSide: 2048,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
