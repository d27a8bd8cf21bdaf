package util

import (
	"strings"

	"github.com/common-nighthawk/go-figure"
)

// DefaultBannerFont is the go-figure font used when none is given.
const DefaultBannerFont = "standard"

// Banner renders text as ASCII art without the trailing blank lines figlet fonts leave.
func Banner(text, font string) string {
	if font == "" {
		font = DefaultBannerFont
	}
	return strings.TrimRight(figure.NewFigure(text, font, true).String(), "\n ") + "\n"
}
