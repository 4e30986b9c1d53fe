package signatureengine

import (
	"github.com/prathamesonar/signature-engine/images"
)

// signatureAsset decodes the shared signature image on first use. Every
// signature field of a request reuses the same result, including a failure.
type signatureAsset struct {
	raw    string
	limits images.Limits

	decoded bool
	img     *images.Image
	err     error
}

func newSignatureAsset(raw string, limits images.Limits) *signatureAsset {
	return &signatureAsset{raw: raw, limits: limits}
}

func (a *signatureAsset) Image() (*images.Image, error) {
	if !a.decoded {
		a.decoded = true
		a.img, a.err = images.DecodeAsset(a.raw, a.limits)
		if a.err != nil {
			a.err = &AssetDecodeError{Err: a.err}
		}
	}
	return a.img, a.err
}
