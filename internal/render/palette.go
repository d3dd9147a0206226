package render

var (
	defaultPalette = []rune(" .:-=+*#%@")
	blockPalette   = []rune(" ░▒▓█")
	dotsPalette    = []rune(" ⠁⠃⠇⡇⣇⣧⣷⣿")
)

// Palette returns the glyph ramp for a palette name, darkest first.
func Palette(name string) []rune {
	switch name {
	case "block":
		return blockPalette
	case "dots":
		return dotsPalette
	default:
		return defaultPalette
	}
}

// PaletteNames returns all palette identifiers.
func PaletteNames() []string {
	return []string{"default", "block", "dots"}
}
