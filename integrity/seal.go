package integrity

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/digitorus/pkcs7"
	"github.com/digitorus/timestamp"
	"golang.org/x/crypto/pkcs12"
)

// TSA configures an RFC 3161 time-stamp authority.
type TSA struct {
	URL      string
	Username string
	Password string
}

// Sealer produces detached CMS signatures over stamped documents. The
// signed messageDigest attribute is the document's SHA-256 digest, so a
// seal vouches for the final hash.
type Sealer struct {
	Signer      crypto.Signer
	Certificate *x509.Certificate
	Chain       []*x509.Certificate
	TSA         TSA
	Client      *http.Client
}

// LoadSealer reads a PKCS#12 bundle holding a key and its certificate.
func LoadSealer(path, password string) (*Sealer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seal credentials: %w", err)
	}
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decode seal credentials: %w", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("seal key of type %T cannot sign", key)
	}
	return &Sealer{Signer: signer, Certificate: cert}, nil
}

// Seal signs document and returns the DER-encoded CMS structure. When a
// TSA is configured the signature is timestamped.
func (s *Sealer) Seal(ctx context.Context, document []byte) ([]byte, error) {
	if s.Signer == nil || s.Certificate == nil {
		return nil, errors.New("sealer has no key or certificate")
	}

	signedData, err := pkcs7.NewSignedData(document)
	if err != nil {
		return nil, fmt.Errorf("new signed data: %w", err)
	}
	signedData.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	if err := signedData.AddSignerChain(s.Certificate, s.Signer, s.Chain, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("add signer chain: %w", err)
	}
	signedData.Detach()

	if s.TSA.URL != "" {
		sd := signedData.GetSignedData()

		response, err := s.timestamp(ctx, sd.SignerInfos[0].EncryptedDigest)
		if err != nil {
			return nil, fmt.Errorf("get timestamp: %w", err)
		}

		ts, err := timestamp.ParseResponse(response)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}

		attr := pkcs7.Attribute{
			Type:  asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 14},
			Value: asn1.RawValue{FullBytes: ts.RawToken},
		}
		if err := sd.SignerInfos[0].SetUnauthenticatedAttributes([]pkcs7.Attribute{attr}); err != nil {
			return nil, err
		}
	}

	return signedData.Finish()
}

func (s *Sealer) timestamp(ctx context.Context, digest []byte) ([]byte, error) {
	tsRequest, err := timestamp.CreateRequest(bytes.NewReader(digest), &timestamp.RequestOptions{
		Certificates: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.TSA.URL, bytes.NewReader(tsRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare request (%s): %w", s.TSA.URL, err)
	}
	req.Header.Add("Content-Type", "application/timestamp-query")
	req.Header.Add("Content-Transfer-Encoding", "binary")
	if s.TSA.Username != "" && s.TSA.Password != "" {
		req.SetBasicAuth(s.TSA.Username, s.TSA.Password)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timestamp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New("non success response (" + strconv.Itoa(resp.StatusCode) + "): " + string(body))
	}
	return body, nil
}
