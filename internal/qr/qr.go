// Package qr issues event check-in ids and renders them as QR data URLs.
package qr

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"CampusEvents/internal/config"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const pngSize = 256

type Generator struct {
	baseURL string
}

func NewGenerator(cfg *config.AppConfig) *Generator {
	return &Generator{baseURL: cfg.StudentAppBaseURL}
}

// CheckInURL is the student-app link a scanner resolves.
func (g *Generator) CheckInURL(checkInID string) string {
	return fmt.Sprintf("%s/check-in?id=%s", g.baseURL, url.QueryEscape(checkInID))
}

// GenerateEventQRCode reuses existingID when set, otherwise issues a new
// UUIDv4, and returns the id with a PNG data URL of its check-in link.
func (g *Generator) GenerateEventQRCode(existingID string) (string, string, error) {
	checkInID := existingID
	if checkInID == "" {
		checkInID = uuid.NewString()
	}
	png, err := qrcode.Encode(g.CheckInURL(checkInID), qrcode.High, pngSize)
	if err != nil {
		return "", "", fmt.Errorf("encode qr: %w", err)
	}
	return checkInID, "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
