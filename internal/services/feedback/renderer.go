package feedback

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const (
	positiveColor = "#28a745"
	negativeColor = "#dc3545"
	neutralColor  = "#417690"

	clearedRegionFormat = "%s: cleared\n"
	regionLineFormat    = "%s: %s\n"
)

// TerminalRenderer prints region changes as colored lines.
type TerminalRenderer struct {
	mutex         sync.Mutex
	writer        io.Writer
	positiveStyle lipgloss.Style
	negativeStyle lipgloss.Style
	neutralStyle  lipgloss.Style
}

// NewTerminalRenderer renders to writer, coloring only when writer supports it.
func NewTerminalRenderer(writer io.Writer) *TerminalRenderer {
	renderer := lipgloss.NewRenderer(writer)
	return &TerminalRenderer{
		writer:        writer,
		positiveStyle: renderer.NewStyle().Foreground(lipgloss.Color(positiveColor)).Bold(true),
		negativeStyle: renderer.NewStyle().Foreground(lipgloss.Color(negativeColor)).Bold(true),
		neutralStyle:  renderer.NewStyle().Foreground(lipgloss.Color(neutralColor)),
	}
}

// Render writes one line describing region.
func (renderer *TerminalRenderer) Render(region Region) {
	renderer.mutex.Lock()
	defer renderer.mutex.Unlock()
	if region.Text == "" {
		_, _ = fmt.Fprintf(renderer.writer, clearedRegionFormat, region.ID)
		return
	}
	_, _ = fmt.Fprintf(renderer.writer, regionLineFormat, region.ID, renderer.style(region.Tone).Render(region.Text))
}

func (renderer *TerminalRenderer) style(tone Tone) lipgloss.Style {
	switch tone {
	case TonePositive:
		return renderer.positiveStyle
	case ToneNegative:
		return renderer.negativeStyle
	default:
		return renderer.neutralStyle
	}
}
