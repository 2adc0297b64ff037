package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tyemirov/codecopy/internal/clock"
	"github.com/tyemirov/codecopy/internal/config"
	"github.com/tyemirov/codecopy/internal/services/clipboard"
)

type recordingCopier struct {
	result   clipboard.Result
	requests []clipboard.Request
}

func (copier *recordingCopier) Copy(ctx context.Context, request clipboard.Request) clipboard.Result {
	copier.requests = append(copier.requests, request)
	return copier.result
}

type commandHarness struct {
	output      *bytes.Buffer
	errorOutput *bytes.Buffer
	copier      *recordingCopier
	settings    []config.Settings
	deps        dependencies
}

func newCommandHarness(t *testing.T, result clipboard.Result) *commandHarness {
	t.Helper()
	homeDirectory := t.TempDir()
	t.Setenv("HOME", homeDirectory)
	t.Setenv("USERPROFILE", homeDirectory)
	harness := &commandHarness{
		output:      &bytes.Buffer{},
		errorOutput: &bytes.Buffer{},
		copier:      &recordingCopier{result: result},
	}
	harness.deps = dependencies{
		logger:           zap.NewNop(),
		output:           harness.output,
		errorOutput:      harness.errorOutput,
		clock:            clock.NewManual(time.Unix(0, 0)),
		workingDirectory: t.TempDir(),
		newCopier: func(settings config.Settings, logger *zap.Logger) (clipboard.Copier, error) {
			harness.settings = append(harness.settings, settings)
			return harness.copier, nil
		},
	}
	return harness
}

func (harness *commandHarness) run(arguments ...string) error {
	rootCommand := createRootCommand(harness.deps)
	rootCommand.SetArgs(joinToggleArguments(rootCommand, arguments))
	return rootCommand.Execute()
}

func TestCopyCommandReportsSuccess(t *testing.T) {
	harness := newCommandHarness(t, clipboard.Result{Outcome: clipboard.OutcomeSuccess, Mechanism: "stub"})
	if err := harness.run("copy", "SAVE20", "--wait=false"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if len(harness.copier.requests) != 1 {
		t.Fatalf("expected one copy request, got %d", len(harness.copier.requests))
	}
	request := harness.copier.requests[0]
	if request.Text != "SAVE20" || request.TargetID != "copy-status-SAVE20" {
		t.Fatalf("unexpected request %+v", request)
	}
	if !strings.Contains(harness.output.String(), "copied SAVE20 using stub") {
		t.Fatalf("unexpected output %q", harness.output.String())
	}
	if !strings.Contains(harness.errorOutput.String(), "copy-status-SAVE20: ") || !strings.Contains(harness.errorOutput.String(), "Copied!") {
		t.Fatalf("expected status rendering, got %q", harness.errorOutput.String())
	}
}

func TestCopyCommandFailureModes(t *testing.T) {
	failure := clipboard.Result{Outcome: clipboard.OutcomeFailure, Reason: clipboard.ReasonNotSupported, Mechanism: "stub"}
	testCases := []struct {
		name        string
		arguments   []string
		expectAlert bool
		expectText  string
	}{
		{
			name:       "inline_failure_updates_status",
			arguments:  []string{"copy", "SAVE20", "--wait", "no"},
			expectText: "❌ " + clipboard.ReasonNotSupported,
		},
		{
			name:        "alert_failure_names_code",
			arguments:   []string{"copy", "SAVE20", "--wait=false", "--failure-mode", "alert"},
			expectAlert: true,
			expectText:  "Please copy the coupon code manually: SAVE20",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			harness := newCommandHarness(t, failure)
			err := harness.run(testCase.arguments...)
			if !errors.Is(err, errCopyFailed) {
				t.Fatalf("expected copy failure error, got %v", err)
			}
			if !strings.Contains(harness.errorOutput.String(), testCase.expectText) {
				t.Fatalf("expected %q in %q", testCase.expectText, harness.errorOutput.String())
			}
			if len(harness.settings) != 1 {
				t.Fatalf("expected copier built once")
			}
			expectedMode := "inline"
			if testCase.expectAlert {
				expectedMode = "alert"
			}
			if harness.settings[0].FailureMode != expectedMode {
				t.Fatalf("expected failure mode %s, got %s", expectedMode, harness.settings[0].FailureMode)
			}
		})
	}
}

func TestCopyCommandWaitsForReversion(t *testing.T) {
	harness := newCommandHarness(t, clipboard.Result{Outcome: clipboard.OutcomeSuccess, Mechanism: "stub"})
	manualClock := harness.deps.clock.(*clock.Manual)
	done := make(chan error, 1)
	go func() {
		done <- harness.run("copy", "SAVE20", "--target", "row-1")
	}()
	deadline := time.Now().Add(5 * time.Second)
	for manualClock.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("reversion was never scheduled")
		}
		time.Sleep(time.Millisecond)
	}
	select {
	case err := <-done:
		t.Fatalf("copy returned before the status reverted: %v", err)
	default:
	}
	manualClock.Advance(2 * time.Second)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("copy: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("copy did not return after reversion")
	}
	if harness.copier.requests[0].TargetID != "row-1" {
		t.Fatalf("expected explicit target, got %s", harness.copier.requests[0].TargetID)
	}
}

func TestCopyCommandRestoresButtonLabel(t *testing.T) {
	harness := newCommandHarness(t, clipboard.Result{Outcome: clipboard.OutcomeSuccess, Mechanism: "stub"})
	if err := harness.run("copy", "SAVE20", "--button-label", "📋 Copy", "--wait=false"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	request := harness.copier.requests[0]
	if request.ButtonID != "copy-button-SAVE20" || request.ButtonLabel != "📋 Copy" {
		t.Fatalf("unexpected request %+v", request)
	}
	if !strings.Contains(harness.errorOutput.String(), "copy-button-SAVE20: ✅ Copied!") {
		t.Fatalf("expected button success rendering, got %q", harness.errorOutput.String())
	}
	harness.deps.clock.(*clock.Manual).Advance(2 * time.Second)
	if !strings.Contains(harness.errorOutput.String(), "copy-button-SAVE20: 📋 Copy\n") {
		t.Fatalf("expected button label restored, got %q", harness.errorOutput.String())
	}
}

func TestCopyCommandHonorsConfiguration(t *testing.T) {
	harness := newCommandHarness(t, clipboard.Result{Outcome: clipboard.OutcomeSuccess, Mechanism: "stub"})
	configuration := "feedback:\n  status_prefix: status-\n  wait: false\nclipboard:\n  fallback: osc52\n"
	if err := os.WriteFile(filepath.Join(harness.deps.workingDirectory, "config.yaml"), []byte(configuration), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := harness.run("copy", "SAVE20", "--primary", "none"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if harness.copier.requests[0].TargetID != "status-SAVE20" {
		t.Fatalf("expected configured status prefix, got %s", harness.copier.requests[0].TargetID)
	}
	settings := harness.settings[0]
	if settings.Fallback != clipboard.FallbackOSC52 || settings.Primary != clipboard.PrimaryNone || settings.Wait {
		t.Fatalf("unexpected settings %+v", settings)
	}
}

func TestCopyCommandRejectsInvalidFailureMode(t *testing.T) {
	harness := newCommandHarness(t, clipboard.Result{Outcome: clipboard.OutcomeSuccess})
	if err := harness.run("copy", "SAVE20", "--failure-mode", "toast"); err == nil {
		t.Fatalf("expected error for invalid failure mode")
	}
	if len(harness.copier.requests) != 0 {
		t.Fatalf("invalid flags must not copy")
	}
}

func TestScanCommandOutputs(t *testing.T) {
	page := `<button class="copy-coupon-btn" data-coupon="SAVE20">Copy</button><button onclick="navigator.clipboard.writeText('WELCOME5')">Copy Code</button>`
	testCases := []struct {
		name      string
		arguments []string
		verify    func(t *testing.T, harness *commandHarness)
	}{
		{
			name:      "raw_lists_codes",
			arguments: []string{"scan"},
			verify: func(t *testing.T, harness *commandHarness) {
				lines := strings.Split(strings.TrimSpace(harness.output.String()), "\n")
				if len(lines) != 2 || !strings.HasPrefix(lines[0], "SAVE20\tdata-attribute\tcopy-status-SAVE20") {
					t.Fatalf("unexpected raw output %q", harness.output.String())
				}
				if len(harness.copier.requests) != 0 {
					t.Fatalf("scan must not copy without --copy")
				}
			},
		},
		{
			name:      "json_and_copy",
			arguments: []string{"scan", "--format", "json", "--copy"},
			verify: func(t *testing.T, harness *commandHarness) {
				var records []map[string]interface{}
				if err := json.Unmarshal(harness.output.Bytes(), &records); err != nil {
					t.Fatalf("decode json: %v", err)
				}
				if len(records) != 2 || records[1]["code"] != "WELCOME5" || records[1]["status_target"] != "copy-status-WELCOME5" {
					t.Fatalf("unexpected records %+v", records)
				}
				if len(harness.copier.requests) != 1 || harness.copier.requests[0].Text != "SAVE20\nWELCOME5" {
					t.Fatalf("unexpected copy requests %+v", harness.copier.requests)
				}
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			harness := newCommandHarness(t, clipboard.Result{Outcome: clipboard.OutcomeSuccess, Mechanism: "stub"})
			pagePath := filepath.Join(t.TempDir(), "coupons.html")
			if err := os.WriteFile(pagePath, []byte(page), 0o600); err != nil {
				t.Fatalf("write page: %v", err)
			}
			if err := harness.run(append(testCase.arguments, pagePath)...); err != nil {
				t.Fatalf("scan: %v", err)
			}
			testCase.verify(t, harness)
		})
	}
}

func TestScanCommandRejectsUnknownFormat(t *testing.T) {
	harness := newCommandHarness(t, clipboard.Result{})
	if err := harness.run("scan", "--format", "xml", "page.html"); err == nil {
		t.Fatalf("expected error for xml format")
	}
}

func TestInitCommandWritesConfiguration(t *testing.T) {
	harness := newCommandHarness(t, clipboard.Result{})
	if err := harness.run("init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	expectedPath := filepath.Join(harness.deps.workingDirectory, "config.yaml")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Fatalf("expected configuration at %s: %v", expectedPath, err)
	}
	if err := harness.run("init"); err == nil {
		t.Fatalf("expected error when configuration exists without --force")
	}
	if err := harness.run("init", "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestRootCommandPrintsVersion(t *testing.T) {
	harness := newCommandHarness(t, clipboard.Result{})
	if err := harness.run("--version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(harness.output.String(), "codecopy version: ") {
		t.Fatalf("unexpected version output %q", harness.output.String())
	}
}

func TestServeCommandStopsOnCancel(t *testing.T) {
	harness := newCommandHarness(t, clipboard.Result{})
	settings, err := config.ApplicationConfiguration{Server: config.ServerConfiguration{Address: "127.0.0.1:0"}}.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runServe(ctx, harness.deps, settings); err != nil {
		t.Fatalf("serve: %v", err)
	}
	if !strings.Contains(harness.output.String(), "codecopy bridge listening on http://127.0.0.1:") {
		t.Fatalf("unexpected serve output %q", harness.output.String())
	}
}
