package media

import (
	"bytes"
	"net/http"

	"github.com/disintegration/imaging"

	// registers the webp decoder with image.Decode
	_ "golang.org/x/image/webp"
)

// Thumb dimensions of the avatar conversion.
const (
	ThumbWidth  = 200
	ThumbHeight = 200
)

var extensions = map[string]string{ //nolint:gochecknoglobals
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectImage returns the content type and file extension of an accepted image.
func DetectImage(data []byte) (string, string, error) {
	contentType := http.DetectContentType(data)

	ext, ok := extensions[contentType]
	if !ok {
		return "", "", ErrUnsupportedType
	}

	return contentType, ext, nil
}

// Thumb crops data to the center ThumbWidth x ThumbHeight and encodes it as jpeg.
func Thumb(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fill(img, ThumbWidth, ThumbHeight, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
