package face

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
)

// DecodeImage accepts a browser data URL ("data:image/jpeg;base64,...") or a
// bare base64 string and returns the raw image bytes. The payload must be a
// JPEG or PNG.
func DecodeImage(payload string) ([]byte, error) {
	data := strings.TrimSpace(payload)
	if i := strings.IndexByte(data, ','); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+1:]
	}
	if data == "" {
		return nil, fmt.Errorf("%w: empty", port.ErrInvalidImage)
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrInvalidImage, err)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrInvalidImage, err)
	}
	return raw, nil
}
