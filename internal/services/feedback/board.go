// Package feedback renders transient copy outcomes and reverts them after a delay.
package feedback

import (
	"sync"
	"time"

	"github.com/tyemirov/codecopy/internal/clock"
)

const (
	// DefaultSuccessDuration is how long a success message stays visible.
	DefaultSuccessDuration = 2 * time.Second
	// DefaultFailureDuration is how long a failure message stays visible.
	DefaultFailureDuration = 3 * time.Second
	// DefaultSuccessMessage is shown after a successful copy.
	DefaultSuccessMessage = "✅ Copied!"
	// DefaultFailurePrefix precedes the failure reason.
	DefaultFailurePrefix = "❌ "
)

// Sink receives copy outcomes for a target.
type Sink interface {
	ShowSuccess(targetID string)
	ShowFailure(targetID string, reason string)
}

// Tone describes how a region's text should be colored.
type Tone string

const (
	// ToneNeutral is the resting tone.
	ToneNeutral Tone = "neutral"
	// TonePositive marks a success message.
	TonePositive Tone = "positive"
	// ToneNegative marks a failure message.
	ToneNegative Tone = "negative"
)

// Region is the current state of a feedback target.
type Region struct {
	ID       string `json:"id"`
	Original string `json:"original"`
	Text     string `json:"text"`
	Tone     Tone   `json:"tone"`
	Pending  bool   `json:"pending"`
}

// Renderer is notified whenever a region changes.
type Renderer interface {
	Render(region Region)
}

// BoardOptions configures a Board.
type BoardOptions struct {
	Clock           clock.Clock
	Renderer        Renderer
	SuccessDuration time.Duration
	FailureDuration time.Duration
	SuccessMessage  string
	FailurePrefix   string
	// MaxRegions caps registered regions; the oldest idle regions are evicted first. Zero means unbounded.
	MaxRegions      int
}

type regionState struct {
	region     Region
	generation uint64
	idle       chan struct{}
}

// Board tracks feedback regions. Each region has at most one effective pending reversion;
// a newer message supersedes an older reversion, which then fires as a no-op.
type Board struct {
	mutex           sync.Mutex
	renderMutex     sync.Mutex
	regions         map[string]*regionState
	order           []string
	maxRegions      int
	generation      uint64
	clock           clock.Clock
	renderer        Renderer
	successDuration time.Duration
	failureDuration time.Duration
	successMessage  string
	failurePrefix   string
}

// NewBoard constructs a Board.
func NewBoard(options BoardOptions) *Board {
	board := &Board{
		regions:         map[string]*regionState{},
		clock:           options.Clock,
		renderer:        options.Renderer,
		successDuration: options.SuccessDuration,
		failureDuration: options.FailureDuration,
		successMessage:  options.SuccessMessage,
		failurePrefix:   options.FailurePrefix,
		maxRegions:      options.MaxRegions,
	}
	if board.clock == nil {
		board.clock = clock.System{}
	}
	if board.successDuration <= 0 {
		board.successDuration = DefaultSuccessDuration
	}
	if board.failureDuration <= 0 {
		board.failureDuration = DefaultFailureDuration
	}
	if board.successMessage == "" {
		board.successMessage = DefaultSuccessMessage
	}
	if board.failurePrefix == "" {
		board.failurePrefix = DefaultFailurePrefix
	}
	return board
}

// Register adds a region whose text reverts to original. Registering an existing region keeps its state.
func (board *Board) Register(targetID string, original string) {
	board.mutex.Lock()
	defer board.mutex.Unlock()
	if _, exists := board.regions[targetID]; exists {
		return
	}
	board.regions[targetID] = &regionState{region: Region{ID: targetID, Original: original, Text: original, Tone: ToneNeutral}}
	board.order = append(board.order, targetID)
	if board.maxRegions > 0 {
		for len(board.order) > board.maxRegions {
			board.evictLocked()
		}
	}
}

// evictLocked drops the oldest idle region, or the oldest region when every region is pending.
// A pending region's timer then finds nothing to revert.
func (board *Board) evictLocked() {
	victim := 0
	for index, targetID := range board.order {
		if !board.regions[targetID].region.Pending {
			victim = index
			break
		}
	}
	targetID := board.order[victim]
	if state := board.regions[targetID]; state.idle != nil {
		close(state.idle)
	}
	delete(board.regions, targetID)
	board.order = append(board.order[:victim], board.order[victim+1:]...)
}

// Has reports whether targetID is registered.
func (board *Board) Has(targetID string) bool {
	board.mutex.Lock()
	defer board.mutex.Unlock()
	_, exists := board.regions[targetID]
	return exists
}

// Region returns a snapshot of the region.
func (board *Board) Region(targetID string) (Region, bool) {
	board.mutex.Lock()
	defer board.mutex.Unlock()
	state, exists := board.regions[targetID]
	if !exists {
		return Region{}, false
	}
	return state.region, true
}

// Regions returns snapshots of every registered region in registration order.
func (board *Board) Regions() []Region {
	board.mutex.Lock()
	defer board.mutex.Unlock()
	snapshots := make([]Region, 0, len(board.order))
	for _, targetID := range board.order {
		snapshots = append(snapshots, board.regions[targetID].region)
	}
	return snapshots
}

// ShowSuccess displays the success message on targetID.
func (board *Board) ShowSuccess(targetID string) {
	board.show(targetID, board.successMessage, TonePositive, board.successDuration)
}

// ShowFailure displays the failure reason on targetID.
func (board *Board) ShowFailure(targetID string, reason string) {
	board.show(targetID, board.failurePrefix+reason, ToneNegative, board.failureDuration)
}

// Idle returns a channel closed once targetID has no pending reversion.
func (board *Board) Idle(targetID string) <-chan struct{} {
	board.mutex.Lock()
	defer board.mutex.Unlock()
	state, exists := board.regions[targetID]
	if !exists || state.idle == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return state.idle
}

func (board *Board) show(targetID string, text string, tone Tone, duration time.Duration) {
	board.mutex.Lock()
	state, exists := board.regions[targetID]
	if !exists {
		board.mutex.Unlock()
		return
	}
	board.generation++
	state.generation = board.generation
	generation := state.generation
	state.region.Text = text
	state.region.Tone = tone
	state.region.Pending = true
	if state.idle == nil {
		state.idle = make(chan struct{})
	}
	snapshot := state.region
	board.renderMutex.Lock()
	board.mutex.Unlock()

	board.render(snapshot)
	board.renderMutex.Unlock()
	board.clock.AfterFunc(duration, func() {
		board.revert(targetID, generation)
	})
}

func (board *Board) revert(targetID string, generation uint64) {
	board.mutex.Lock()
	state, exists := board.regions[targetID]
	if !exists || state.generation != generation {
		board.mutex.Unlock()
		return
	}
	state.region.Text = state.region.Original
	state.region.Tone = ToneNeutral
	state.region.Pending = false
	if state.idle != nil {
		close(state.idle)
		state.idle = nil
	}
	snapshot := state.region
	board.renderMutex.Lock()
	board.mutex.Unlock()

	board.render(snapshot)
	board.renderMutex.Unlock()
}

func (board *Board) render(region Region) {
	if board.renderer != nil {
		board.renderer.Render(region)
	}
}

var _ Sink = (*Board)(nil)
