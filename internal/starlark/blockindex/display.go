package blockindex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// HiddenSep separates the visible display columns from the hidden
// preview fields (file, start line, end line). Two unit-separator
// control characters cannot occur in labels or file names.
const HiddenSep = "\x1f\x1f"

// FormatDisplay renders one candidate line for the external picker:
// the label and file columns padded to the batch-wide widths, followed
// by the hidden fields the picker's preview command consumes.
func FormatDisplay(info Info, labelWidth, fileWidth int) string {
	visible := fmt.Sprintf("%s | %s:%d-%d",
		runewidth.FillRight(info.Label, labelWidth),
		runewidth.FillRight(info.File, fileWidth),
		info.LineStart, info.LineEnd)
	return fmt.Sprintf("%s%s%s%s%d%s%d",
		visible, HiddenSep, info.File, HiddenSep, info.LineStart, HiddenSep, info.LineEnd)
}

// ParseDisplay recovers the hidden fields from a display line.
func ParseDisplay(line string) (file string, lineStart, lineEnd int, err error) {
	parts := strings.Split(line, HiddenSep)
	if len(parts) != 4 {
		return "", 0, 0, fmt.Errorf("display line has %d fields, want 4", len(parts))
	}
	lineStart, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("display line start: %w", err)
	}
	lineEnd, err = strconv.Atoi(parts[3])
	if err != nil {
		return "", 0, 0, fmt.Errorf("display line end: %w", err)
	}
	return parts[1], lineStart, lineEnd, nil
}

func columnWidths(entries []entry) (labelWidth, fileWidth int) {
	for _, e := range entries {
		if w := runewidth.StringWidth(e.info.Label); w > labelWidth {
			labelWidth = w
		}
		if w := runewidth.StringWidth(e.info.File); w > fileWidth {
			fileWidth = w
		}
	}
	return labelWidth, fileWidth
}
