package signatureengine

import (
	"bytes"
	"fmt"

	"github.com/prathamesonar/signature-engine/coords"
	"github.com/prathamesonar/signature-engine/fields"
	"github.com/prathamesonar/signature-engine/images"
	"github.com/prathamesonar/signature-engine/integrity"
	"github.com/prathamesonar/signature-engine/internal/locale"
	"github.com/prathamesonar/signature-engine/internal/pdf"
	"github.com/prathamesonar/signature-engine/internal/render"
)

// Stamp validates the request, parses base and stamps the placements onto
// its first page.
func Stamp(base []byte, signature string, placements []fields.Placement, opts ...Option) (*StampedDocument, error) {
	if err := validate(signature, placements); err != nil {
		return nil, err
	}
	doc, err := Open(base)
	if err != nil {
		return nil, err
	}
	return doc.Stamp(signature, placements, opts...)
}

func validate(signature string, placements []fields.Placement) error {
	if signature == "" {
		return &ValidationError{Msg: "No signature"}
	}
	if len(placements) == 0 {
		return &ValidationError{Msg: "No fields"}
	}
	return nil
}

// Stamp draws the placements onto the first page and returns the updated
// document. Fields are processed in order. A signature image that cannot be
// decoded skips the signature fields but does not fail the run.
func (d *Document) Stamp(signature string, placements []fields.Placement, opts ...Option) (result *StampedDocument, err error) {
	if err := validate(signature, placements); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, &DocumentError{Msg: "failed to stamp PDF", Err: fmt.Errorf("%v", r)}
		}
	}()

	page, err := pdf.FirstPage(d.rdr)
	if err != nil {
		return nil, &DocumentError{Msg: "failed to find first page", Err: err}
	}

	w, err := pdf.NewWriter(d.data, d.rdr)
	if err != nil {
		return nil, &DocumentError{Msg: "failed to start update", Err: err}
	}
	w.CompressLevel = d.compressLevel
	if o.compressLevel != nil {
		w.CompressLevel = *o.compressLevel
	}

	canvas := render.NewCanvas(w, page)
	asset := newSignatureAsset(signature, images.Limits{MaxSide: o.maxImageSide, MaxPixels: o.maxPixels})
	dateLayout := o.dateLayout
	if dateLayout == "" {
		dateLayout = locale.HostLayout()
	}

	outcomes := make([]FieldOutcome, 0, len(placements))
	for i, p := range placements {
		rect := ClampRect(p.PdfCoord)
		outcome := FieldOutcome{Index: i, Type: p.Type, Status: StatusStamped, Rect: rect}

		var drawErr error
		switch p.Type {
		case fields.TypeSignature:
			img, err := asset.Image()
			if err != nil {
				outcome.Status = StatusSkipped
				outcome.Reason = err.Error()
				outcome.Err = err
				o.logger.Warn("signature field skipped", "index", i, "error", err)
				break
			}
			drawErr = canvas.Draw(render.ImageElement{
				Image: img, X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height,
			})

		case fields.TypeText:
			text := p.Label
			if text == "" {
				text = DefaultText
			}
			drawErr = canvas.Draw(render.TextElement{
				Content: text, Font: render.Helvetica, Size: TextSize, X: rect.X, Y: rect.Y, Color: render.Black,
			})

		case fields.TypeDate:
			drawErr = canvas.Draw(render.TextElement{
				Content: locale.Format(o.now(), dateLayout), Font: render.Helvetica, Size: TextSize, X: rect.X, Y: rect.Y, Color: render.Black,
			})

		default:
			// checkbox, radio, image and unrecognised types have no stamping
			// behaviour.
			outcome.Status = StatusSkipped
			outcome.Reason = ReasonInertType
		}

		if drawErr != nil {
			return nil, &DocumentError{Msg: fmt.Sprintf("failed to draw field %d", i), Err: drawErr}
		}
		o.logger.Debug("field processed", "index", i, "type", p.Type.String(), "status", outcome.Status,
			"x", rect.X, "y", rect.Y, "width", rect.Width, "height", rect.Height)
		outcomes = append(outcomes, outcome)
	}

	// Nothing drawn: the document is returned unchanged.
	out := bytes.Clone(d.data)
	if !canvas.Empty() {
		if err := w.Apply(page, canvas.Overlay()); err != nil {
			return nil, &DocumentError{Msg: "failed to update page", Err: err}
		}
		out, err = w.Finish()
		if err != nil {
			return nil, &DocumentError{Msg: "failed to serialize PDF", Err: err}
		}
	}

	result = &StampedDocument{
		Bytes:        out,
		OriginalHash: integrity.Hash(d.data),
		FinalHash:    integrity.Hash(out),
		Outcomes:     outcomes,
	}
	o.logger.Info("document stamped",
		"fields", len(placements), "stamped", result.Stamped(),
		"original_hash", result.OriginalHash, "final_hash", result.FinalHash, "size", len(out))
	return result, nil
}

// ClampRect forces a rectangle into the stamping bounds.
func ClampRect(c coords.PdfCoord) coords.PdfCoord {
	return coords.PdfCoord{
		X:      coords.Clamp(c.X, MinX, MaxX),
		Y:      coords.Clamp(c.Y, MinY, MaxY),
		Width:  min(c.Width, MaxWidth),
		Height: min(c.Height, MaxHeight),
	}
}
