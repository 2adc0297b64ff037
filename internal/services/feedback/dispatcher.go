package feedback

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tyemirov/codecopy/internal/services/clipboard"
)

const (
	// FailureModeInline reports failures on the request's status region.
	FailureModeInline = "inline"
	// FailureModeAlert reports failures with a blocking alert.
	FailureModeAlert = "alert"
)

// ParseFailureMode validates a failure mode name; empty selects inline.
func ParseFailureMode(mode string) (string, error) {
	switch mode {
	case "", FailureModeInline:
		return FailureModeInline, nil
	case FailureModeAlert:
		return FailureModeAlert, nil
	default:
		return "", fmt.Errorf("unsupported failure mode %q (expected %s or %s)", mode, FailureModeInline, FailureModeAlert)
	}
}

// Dispatcher routes copy results to the board, an alert, or nowhere.
type Dispatcher struct {
	board       *Board
	alert       *Alert
	failureMode string
	logger      *zap.Logger
}

// NewDispatcher constructs a Dispatcher. board and alert may be nil.
func NewDispatcher(board *Board, alert *Alert, failureMode string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if failureMode == "" {
		failureMode = FailureModeInline
	}
	return &Dispatcher{board: board, alert: alert, failureMode: failureMode, logger: logger}
}

// showOnBoard updates the status region and, on success, the button. Buttons keep their label on failure.
func (dispatcher *Dispatcher) showOnBoard(request clipboard.Request, result clipboard.Result) bool {
	if dispatcher.board == nil {
		return false
	}
	shown := false
	if request.TargetID != "" && dispatcher.board.Has(request.TargetID) {
		if result.Succeeded() {
			dispatcher.board.ShowSuccess(request.TargetID)
		} else {
			dispatcher.board.ShowFailure(request.TargetID, result.Reason)
		}
		shown = true
	}
	if result.Succeeded() && request.ButtonID != "" && dispatcher.board.Has(request.ButtonID) {
		dispatcher.board.ShowSuccess(request.ButtonID)
		shown = true
	}
	return shown
}

// Deliver presents result for request.
func (dispatcher *Dispatcher) Deliver(request clipboard.Request, result clipboard.Result) {
	if !result.Succeeded() && dispatcher.failureMode == FailureModeAlert && dispatcher.alert != nil {
		if err := dispatcher.alert.Show(request.Text); err != nil {
			dispatcher.logger.Warn("alert failed", zap.Error(err))
		}
		return
	}
	if dispatcher.showOnBoard(request, result) {
		return
	}
	if !result.Succeeded() && dispatcher.alert != nil {
		if err := dispatcher.alert.Show(request.Text); err != nil {
			dispatcher.logger.Warn("alert failed", zap.Error(err))
		}
		return
	}
	dispatcher.logger.Info("no feedback target for copy result",
		zap.String("target", request.TargetID),
		zap.String("outcome", result.Outcome.String()),
		zap.String("reason", result.Reason))
}
