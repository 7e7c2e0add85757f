package domain

import (
	"net/http"
	"path/filepath"
	"strings"

	"parcel-tracker/internal/core/apperr"
)

// MaxProfileImageBytes caps profile image uploads.
const MaxProfileImageBytes = 5 * 1024 * 1024

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// CheckProfileImage accepts jpeg, png and gif files up to 5MB whose
// extension matches the sniffed content. It returns the extension to store.
func CheckProfileImage(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.Invalid("Please upload an image file")
	}
	if len(data) > MaxProfileImageBytes {
		return "", apperr.Invalid("Image must be 5MB or smaller")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := imageTypes[ext]
	if !ok || http.DetectContentType(data) != want {
		return "", apperr.Invalid("Only image files are allowed!")
	}
	return ext, nil
}
