package artwork

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	color_extractor "github.com/marekm4/color-extractor"

	"github.com/steamboard/steamboard/utils"
)

// Art bundles everything the dashboard needs to paint a game card.
type Art struct {
	CoverLocation   string              `json:"cover_location"`
	DominantColours SerializableColours `json:"dominant_colours"`
}

// HeaderImageURL points at the storefront capsule image for an app.
func HeaderImageURL(appID int) string {
	return fmt.Sprintf("https://steamcdn-a.akamaihd.net/steam/apps/%d/header.jpg", appID)
}

func BytesToGUIDLocation(image []byte, extension string) (string, uuid.UUID) {
	imageHash := md5.Sum(image)
	var genericBytes []byte = imageHash[:] // Disgusting :)
	guid, _ := uuid.FromBytes(genericBytes)
	location := fmt.Sprintf("/static/cover.%s.%s", guid, extension)
	return location, guid
}

// ExtractImageContent fetches an image and pulls out its raw bytes, sniffed
// extension and dominant colours.
func ExtractImageContent(client *http.Client, imageUrl string) ([]byte, string, SerializableColours, error) {
	req, err := http.NewRequest("GET", imageUrl, nil)
	if err != nil {
		return []byte{}, "", SerializableColours{}, err
	}
	req.Header = http.Header{
		"User-Agent": []string{utils.UserAgent},
	}
	res, err := client.Do(req)
	if err != nil {
		return []byte{}, "", SerializableColours{}, err
	}
	defer res.Body.Close()

	var buf bytes.Buffer
	tee := io.TeeReader(res.Body, &buf)

	body, err := io.ReadAll(tee)
	if err != nil {
		return []byte{}, "", SerializableColours{}, err
	}

	mimeType := http.DetectContentType(body)

	extension := ""

	switch mimeType {
	case "image/jpeg":
		extension = "jpeg"
	case "image/png":
		extension = "png"
	}

	var domColours SerializableColours

	img, _, err := image.Decode(&buf)
	if err != nil {
		return body, extension, SerializableColours{}, nil
	}
	colours := color_extractor.ExtractColors(img)
	for _, c := range colours {
		domColours = append(domColours, colorToHexString(c))
	}

	return body, extension, domColours, nil
}

func colorToHexString(c color.Color) string {
	r, g, b, a := c.RGBA()
	rgba := color.RGBA{uint8(r), uint8(g), uint8(b), uint8(a)}
	return fmt.Sprintf("#%.2x%.2x%.2x", rgba.R, rgba.G, rgba.B)
}

// SaveCover writes a fetched cover image under the storage dir so the
// static handler can serve it without refetching.
func SaveCover(storageDir string, guid uuid.UUID, image []byte, extension string) error {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return err
	}
	filename := fmt.Sprintf("cover.%s.%s", guid, extension)
	return os.WriteFile(filepath.Join(storageDir, filename), image, 0o644)
}

func LoadCover(storageDir, filename, extension string) ([]byte, error) {
	return os.ReadFile(filepath.Join(storageDir, fmt.Sprintf("%s.%s", filename, extension)))
}
