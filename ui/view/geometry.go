package view

import (
	"image"
	"regexp"
	"strconv"
	"strings"
)

// geomRe matches window geometry strings in the format "WIDTHxHEIGHT+X+Y"
var geomRe = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// parseGeometry parses a Tk geometry string and returns the corresponding rectangle.
func parseGeometry(g string) (image.Rectangle, bool) {
	g = strings.TrimSpace(g)
	m := geomRe.FindStringSubmatch(g)
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}

// Space reserved around the preview for the side panel and the toolbar.
const (
	chromeW = 420
	chromeH = 140
)

// previewBounds returns the preview size for a window of w x h, capped by maxW x maxH.
func previewBounds(w, h, maxW, maxH int) (int, int) {
	pw, ph := w-chromeW, h-chromeH
	if maxW > 0 && pw > maxW {
		pw = maxW
	}
	if maxH > 0 && ph > maxH {
		ph = maxH
	}
	return pw, ph
}
