package blob

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxImageBytes caps a single decoded image upload.
const MaxImageBytes = 5 << 20

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// DecodeImage decodes a base64 image payload, tolerating data-URI prefixes
// ("data:image/png;base64,...").
func DecodeImage(data string) ([]byte, error) {
	if idx := strings.Index(data, ","); idx != -1 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}

	if len(decoded) == 0 {
		return nil, fmt.Errorf("image data is empty")
	}

	if len(decoded) > MaxImageBytes {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", MaxImageBytes)
	}

	return decoded, nil
}

// ImageExtension extracts and validates the file extension of an uploaded
// image name.
func ImageExtension(fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedImageExtensions[ext] {
		return "", fmt.Errorf("unsupported image type: %q", ext)
	}
	return ext, nil
}
