package grounding

import (
	"os"
	"path/filepath"
)

var profileImages = []string{"profile.jpg", "profile.jpeg", "profile.png"}

// FindProfileImage returns the first profile picture present in dir.
func FindProfileImage(dir string) (string, bool) {
	for _, name := range profileImages {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}
