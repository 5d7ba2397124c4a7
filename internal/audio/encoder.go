// Package audio prepares recorded calls for transport inside an inference request.
package audio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/satriahrh/callqa/domain"
)

// EncodedPayload is the base64 form of a complete audio file
type EncodedPayload struct {
	MediaType string
	Data      string // base64, standard alphabet with padding
	Size      int    // raw byte count before encoding
}

// Decode returns the original audio bytes
func (p *EncodedPayload) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.Data)
}

// IsAudioMediaType reports whether mediaType is a well-formed audio/* type
func IsAudioMediaType(mediaType string) bool {
	_, err := NormalizeMediaType(mediaType)
	return err == nil
}

// NormalizeMediaType parses mediaType and returns it without parameters,
// lower-cased. Anything that is not audio/<subtype> is rejected.
func NormalizeMediaType(mediaType string) (string, error) {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return "", fmt.Errorf("invalid media type %q: %w", mediaType, err)
	}
	subtype, ok := strings.CutPrefix(mt, "audio/")
	if !ok || subtype == "" {
		return "", fmt.Errorf("media type %q is not audio/*", mediaType)
	}
	return mt, nil
}

// Encode reads r to completion and base64-encodes it. The content is not
// truncated, resampled or otherwise transformed.
func Encode(r io.Reader, mediaType string) (*EncodedPayload, error) {
	mt, err := NormalizeMediaType(mediaType)
	if err != nil {
		return nil, domain.WrapError(domain.KindUnsupportedMedia, err, "cannot encode non-audio content")
	}

	var buf strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	n, err := io.Copy(enc, r)
	if err != nil {
		return nil, domain.WrapError(domain.KindEncoding, err, "failed to read audio")
	}
	if err := enc.Close(); err != nil {
		return nil, domain.WrapError(domain.KindEncoding, err, "failed to flush audio encoding")
	}

	return &EncodedPayload{
		MediaType: mt,
		Data:      buf.String(),
		Size:      int(n),
	}, nil
}

// EncodeBytes is Encode for audio already held in memory
func EncodeBytes(data []byte, mediaType string) (*EncodedPayload, error) {
	return Encode(bytes.NewReader(data), mediaType)
}
