package feedback

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

const (
	manualCopyMessageFormat = "Please copy the coupon code manually: %s\n"
	acknowledgePrompt       = "Press Enter to continue..."
)

// Alert is the last-resort notice naming the text to copy by hand.
type Alert struct {
	mutex  sync.Mutex
	output io.Writer
	input  *bufio.Reader
}

// NewAlert writes to output and, when input is non-nil, blocks until a line is read from it.
func NewAlert(output io.Writer, input io.Reader) *Alert {
	alert := &Alert{output: output}
	if input != nil {
		alert.input = bufio.NewReader(input)
	}
	return alert
}

// Show displays the manual copy notice for text.
func (alert *Alert) Show(text string) error {
	alert.mutex.Lock()
	defer alert.mutex.Unlock()
	if _, err := fmt.Fprintf(alert.output, manualCopyMessageFormat, text); err != nil {
		return fmt.Errorf("write alert: %w", err)
	}
	if alert.input == nil {
		return nil
	}
	if _, err := fmt.Fprint(alert.output, acknowledgePrompt); err != nil {
		return fmt.Errorf("write alert prompt: %w", err)
	}
	if _, err := alert.input.ReadString('\n'); err != nil && err != io.EOF {
		return fmt.Errorf("read alert acknowledgement: %w", err)
	}
	_, _ = fmt.Fprintln(alert.output)
	return nil
}
