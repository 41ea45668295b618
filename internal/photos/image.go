package photos

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

const (
	// maxEncodedBytes is the largest photo accepted for storage.
	maxEncodedBytes = 5 * 1024 * 1024

	startQuality = 85
	qualityStep  = 5
	minQuality   = 10
)

// Reencode decodes an uploaded image and re-encodes it as JPEG, lowering
// quality in steps until the result fits within the storage size limit.
// EXIF orientation is applied during decode so rotated phone photos come
// out upright.
func Reencode(r io.Reader) (io.Reader, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	quality := startQuality
	for {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		if buf.Len() <= maxEncodedBytes || quality <= minQuality {
			if buf.Len() > maxEncodedBytes {
				return nil, fmt.Errorf("image is %d bytes at minimum quality, limit is %d", buf.Len(), maxEncodedBytes)
			}
			return &buf, nil
		}
		quality -= qualityStep
	}
}
