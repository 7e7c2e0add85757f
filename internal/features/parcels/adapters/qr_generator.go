package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"parcel-tracker/internal/features/parcels/domain"

	qrcode "github.com/skip2/go-qrcode"
)

// QRGenerator renders a PNG QR code of the tracking number into a
// directory served under a public URL prefix. The barcode reference is the
// tracking number itself.
type QRGenerator struct {
	dir       string
	urlPrefix string
	size      int
}

// NewQRGenerator writes codes into <uploadsDir>/qrcodes, exposed as /uploads/qrcodes.
func NewQRGenerator(uploadsDir string) *QRGenerator {
	return &QRGenerator{
		dir:       filepath.Join(uploadsDir, "qrcodes"),
		urlPrefix: "/uploads/qrcodes/",
		size:      256,
	}
}

// Generate implements ports.ArtifactGenerator.
func (g *QRGenerator) Generate(_ context.Context, p *domain.Parcel) (string, string, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create qr directory: %w", err)
	}

	name := "qr_" + p.ID + ".png"
	if err := qrcode.WriteFile(p.TrackingNumber, qrcode.Medium, g.size, filepath.Join(g.dir, name)); err != nil {
		return "", "", fmt.Errorf("failed to write qr code: %w", err)
	}
	return g.urlPrefix + name, p.TrackingNumber, nil
}
