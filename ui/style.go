package ui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Colorize applies the given color to the text using lipgloss.
// color is a 0xRRGGBB value such as TagColor returns.
func Colorize(text string, color int) string {
	hexColor := fmt.Sprintf("#%06x", color)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor))
	return style.Render(text)
}

// Chip renders tag as a small colored label.
func Chip(tag string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#2e2e2e")).
		Background(lipgloss.Color(fmt.Sprintf("#%06x", TagColor(tag)))).
		Padding(0, 1).
		Render(tag)
}

// tagHash is the classic hash*31 + c over UTF-16 code units, wrapped to
// 32 bits, then made non-negative.
func tagHash(tag string) int64 {
	var h int32
	for _, c := range utf16Units(tag) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

func utf16Units(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			continue
		}
		units = append(units, uint16(r))
	}
	return units
}

// TagColor maps tag to a muted 0xRRGGBB color. The same tag always gets
// the same color.
func TagColor(tag string) int {
	h := tagHash(tag)
	hue := float64(h % 360)
	sat := float64(21+h%21) / 100
	light := float64(46+h%11) / 100
	r, g, b := hslToRGB(hue, sat, light)
	return r<<16 | g<<8 | b
}

func hslToRGB(hue, sat, light float64) (int, int, int) {
	c := (1 - math.Abs(2*light-1)) * sat
	hp := hue / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := light - c/2
	to8 := func(v float64) int { return int(math.Round((v + m) * 255)) }
	return to8(r), to8(g), to8(b)
}
