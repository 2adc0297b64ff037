package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tyemirov/codecopy/internal/clock"
	"github.com/tyemirov/codecopy/internal/services/clipboard"
	"github.com/tyemirov/codecopy/internal/services/feedback"
)

type stubCopier struct {
	result   clipboard.Result
	requests []clipboard.Request
}

func (copier *stubCopier) Copy(ctx context.Context, request clipboard.Request) clipboard.Result {
	copier.requests = append(copier.requests, request)
	return copier.result
}

func newTestServer(result clipboard.Result) (*httptest.Server, *stubCopier, *feedback.Board, *clock.Manual) {
	manualClock := clock.NewManual(time.Unix(0, 0))
	board := feedback.NewBoard(feedback.BoardOptions{Clock: manualClock})
	copier := &stubCopier{result: result}
	server := NewServer(Config{
		StatusPrefix: "copy-status-",
		Copier:       copier,
		Board:        board,
		Deliverer:    feedback.NewDispatcher(board, nil, feedback.FailureModeInline, nil),
	})
	return httptest.NewServer(server.Handler()), copier, board, manualClock
}

func TestCopyEndpointRecordsFeedback(t *testing.T) {
	httpServer, copier, _, manualClock := newTestServer(clipboard.Result{Outcome: clipboard.OutcomeSuccess, Mechanism: "stub"})
	defer httpServer.Close()

	response, err := http.Post(httpServer.URL+"/commands/copy", "application/json", strings.NewReader(`{"text":"SAVE20"}`))
	if err != nil {
		t.Fatalf("post copy: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", response.StatusCode)
	}
	var copyResponse CopyResponse
	if decodeErr := json.NewDecoder(response.Body).Decode(&copyResponse); decodeErr != nil {
		t.Fatalf("decode: %v", decodeErr)
	}
	if copyResponse.Outcome != "success" || copyResponse.Target != "copy-status-SAVE20" || copyResponse.RequestID == "" {
		t.Fatalf("unexpected response %+v", copyResponse)
	}
	if len(copier.requests) != 1 || copier.requests[0].Text != "SAVE20" {
		t.Fatalf("unexpected copier requests %+v", copier.requests)
	}

	region := fetchRegion(t, httpServer.URL, "copy-status-SAVE20")
	if region.Text != feedback.DefaultSuccessMessage || region.Tone != feedback.TonePositive {
		t.Fatalf("unexpected region %+v", region)
	}

	manualClock.Advance(feedback.DefaultSuccessDuration)
	region = fetchRegion(t, httpServer.URL, "copy-status-SAVE20")
	if region.Text != "" {
		t.Fatalf("expected reverted region, got %+v", region)
	}
}

func TestCopyEndpointReportsFailure(t *testing.T) {
	httpServer, _, _, _ := newTestServer(clipboard.Result{Outcome: clipboard.OutcomeFailure, Reason: clipboard.ReasonFailed, Mechanism: "stub"})
	defer httpServer.Close()

	response, err := http.Post(httpServer.URL+"/commands/copy", "application/json", strings.NewReader(`{"text":"SAVE20","target":"row-7"}`))
	if err != nil {
		t.Fatalf("post copy: %v", err)
	}
	defer response.Body.Close()
	var copyResponse CopyResponse
	if decodeErr := json.NewDecoder(response.Body).Decode(&copyResponse); decodeErr != nil {
		t.Fatalf("decode: %v", decodeErr)
	}
	if copyResponse.Outcome != "failure" || copyResponse.Reason != clipboard.ReasonFailed {
		t.Fatalf("unexpected response %+v", copyResponse)
	}
	region := fetchRegion(t, httpServer.URL, "row-7")
	if region.Tone != feedback.ToneNegative || !strings.Contains(region.Text, clipboard.ReasonFailed) {
		t.Fatalf("unexpected region %+v", region)
	}
}

func TestCopyEndpointRejectsInvalidBodies(t *testing.T) {
	httpServer, copier, _, _ := newTestServer(clipboard.Result{Outcome: clipboard.OutcomeSuccess})
	defer httpServer.Close()

	for _, body := range []string{`{"text":"  "}`, `not json`} {
		response, err := http.Post(httpServer.URL+"/commands/copy", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post copy: %v", err)
		}
		response.Body.Close()
		if response.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", body, response.StatusCode)
		}
	}
	if len(copier.requests) != 0 {
		t.Fatalf("invalid bodies must not reach the copier")
	}
}

func TestStatusEndpointUnknownTarget(t *testing.T) {
	httpServer, _, _, _ := newTestServer(clipboard.Result{})
	defer httpServer.Close()
	response, err := http.Get(httpServer.URL + "/status/missing")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", response.StatusCode)
	}
}

func TestCapabilitiesAndCORS(t *testing.T) {
	httpServer, _, _, _ := newTestServer(clipboard.Result{})
	defer httpServer.Close()

	request, _ := http.NewRequest(http.MethodGet, httpServer.URL+"/capabilities", nil)
	request.Header.Set("Origin", "https://admin.example.com")
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("get capabilities: %v", err)
	}
	defer response.Body.Close()
	if response.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected CORS header")
	}
	var payload struct {
		Capabilities []Capability `json:"capabilities"`
	}
	if decodeErr := json.NewDecoder(response.Body).Decode(&payload); decodeErr != nil {
		t.Fatalf("decode: %v", decodeErr)
	}
	if len(payload.Capabilities) != 3 {
		t.Fatalf("unexpected capabilities %+v", payload.Capabilities)
	}
}

func TestCopyEndpointFlashesButtonLabel(t *testing.T) {
	httpServer, _, board, manualClock := newTestServer(clipboard.Result{Outcome: clipboard.OutcomeSuccess, Mechanism: "stub"})
	defer httpServer.Close()

	body := `{"text":"SAVE20","button":"copy-button-SAVE20","button_label":"📋 Copy"}`
	response, err := http.Post(httpServer.URL+"/commands/copy", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post copy: %v", err)
	}
	response.Body.Close()

	button := fetchRegion(t, httpServer.URL, "copy-button-SAVE20")
	if button.Text != feedback.DefaultSuccessMessage || button.Original != "📋 Copy" {
		t.Fatalf("unexpected button region %+v", button)
	}
	manualClock.Advance(feedback.DefaultSuccessDuration)
	button = fetchRegion(t, httpServer.URL, "copy-button-SAVE20")
	if button.Text != "📋 Copy" || button.Tone != feedback.ToneNeutral {
		t.Fatalf("expected button label restored, got %+v", button)
	}
	if len(board.Regions()) != 2 {
		t.Fatalf("expected status and button regions, got %+v", board.Regions())
	}
}

func TestCopyEndpointBoundsRegions(t *testing.T) {
	manualClock := clock.NewManual(time.Unix(0, 0))
	board := feedback.NewBoard(feedback.BoardOptions{Clock: manualClock, MaxRegions: 8})
	server := NewServer(Config{
		StatusPrefix: "copy-status-",
		Copier:       &stubCopier{result: clipboard.Result{Outcome: clipboard.OutcomeSuccess, Mechanism: "stub"}},
		Board:        board,
		Deliverer:    feedback.NewDispatcher(board, nil, feedback.FailureModeInline, nil),
	})
	httpServer := httptest.NewServer(server.Handler())
	defer httpServer.Close()

	for index := 0; index < 50; index++ {
		body := fmt.Sprintf(`{"text":"CODE%d"}`, index)
		response, err := http.Post(httpServer.URL+"/commands/copy", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post copy: %v", err)
		}
		response.Body.Close()
		if index%10 == 0 {
			manualClock.Advance(feedback.DefaultSuccessDuration)
		}
	}
	if count := len(board.Regions()); count > 8 {
		t.Fatalf("expected at most 8 regions, got %d", count)
	}
	if _, found := board.Region("copy-status-CODE49"); !found {
		t.Fatalf("expected the newest region to be kept")
	}

	response, err := http.Get(httpServer.URL + "/status")
	if err != nil {
		t.Fatalf("list status: %v", err)
	}
	defer response.Body.Close()
	var payload struct {
		Regions []feedback.Region `json:"regions"`
	}
	if decodeErr := json.NewDecoder(response.Body).Decode(&payload); decodeErr != nil {
		t.Fatalf("decode: %v", decodeErr)
	}
	if len(payload.Regions) != len(board.Regions()) {
		t.Fatalf("status list disagrees with board: %d vs %d", len(payload.Regions), len(board.Regions()))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	server := NewServer(Config{Address: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	addressChannel := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, func(address string) { addressChannel <- address })
	}()
	address := <-addressChannel
	response, err := http.Get("http://" + address + "/")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	response.Body.Close()
	cancel()
	select {
	case runErr := <-done:
		if runErr != nil {
			t.Fatalf("run returned error: %v", runErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}

func fetchRegion(t *testing.T, baseURL string, target string) feedback.Region {
	t.Helper()
	response, err := http.Get(baseURL + "/status/" + target)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code %d", response.StatusCode)
	}
	var region feedback.Region
	if decodeErr := json.NewDecoder(response.Body).Decode(&region); decodeErr != nil {
		t.Fatalf("decode region: %v", decodeErr)
	}
	return region
}
