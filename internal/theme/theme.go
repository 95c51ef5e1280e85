package theme

import (
	"image/color"
)

// Theme defines the colours used for the editor window and canvas decorations.
type Theme struct {
	Name string

	// Window
	Background color.RGBA // behind the canvas
	Foreground color.RGBA // status text

	// Bottom bar holding the text input and hints
	BarBackground   color.RGBA
	BarText         color.RGBA
	InputBackground color.RGBA
	InputText       color.RGBA
	InputCaret      color.RGBA

	// Canvas
	CheckerLight color.RGBA
	CheckerDark  color.RGBA

	// Decorations
	SelectionBorder color.RGBA
	HandleFill      color.RGBA
	HandleBorder    color.RGBA
	DeleteFill      color.RGBA
	DeleteGlyph     color.RGBA
	PreviewAccent   color.RGBA

	// Message overlay
	MessageBackground color.RGBA
	MessageText       color.RGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		Background:        color.RGBA{240, 240, 240, 255},
		Foreground:        color.RGBA{0, 0, 0, 255},
		BarBackground:     color.RGBA{220, 220, 220, 255},
		BarText:           color.RGBA{40, 40, 40, 255},
		InputBackground:   color.RGBA{255, 255, 255, 255},
		InputText:         color.RGBA{0, 0, 0, 255},
		InputCaret:        color.RGBA{255, 153, 102, 255},
		CheckerLight:      color.RGBA{220, 220, 220, 255},
		CheckerDark:       color.RGBA{192, 192, 192, 255},
		SelectionBorder:   color.RGBA{255, 153, 102, 255},
		HandleFill:        color.RGBA{255, 153, 102, 255},
		HandleBorder:      color.RGBA{255, 255, 255, 255},
		DeleteFill:        color.RGBA{231, 76, 60, 255},
		DeleteGlyph:       color.RGBA{255, 255, 255, 255},
		PreviewAccent:     color.RGBA{102, 126, 234, 255},
		MessageBackground: color.RGBA{255, 255, 255, 230},
		MessageText:       color.RGBA{0, 0, 0, 255},
	}
}
