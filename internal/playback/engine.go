package playback

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-desk/internal/cue"
	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-desk/internal/universe"
)

// Logger is the logging interface used by the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// CueSource looks up cue definitions. show.Registry satisfies it.
type CueSource interface {
	GetCue(ctx context.Context, listNumber, cueNumber int) (*cue.Cue, error)
}

// DMXSender transmits a rendered universe. artnet.Sender satisfies it.
type DMXSender interface {
	SendFrame(dmx []byte, universe uint16) error
}

// MQTTClient publishes output levels and cue events.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// WSHub broadcasts events to WebSocket clients.
type WSHub interface {
	Broadcast(channel string, payload any)
}

// MetricsWriter records playback telemetry. influxdb.Client satisfies it.
type MetricsWriter interface {
	WriteTick(stats influxdb.TickStats)
	WriteCueEvent(event string, list, cueNumber int, activationID string)
}

// WebSocket event channels.
const (
	EventUniverseFrame = "universe.frame"
	EventCueGo         = "cue.go"
	EventCueRelease    = "cue.release"
	EventCueComplete   = "cue.complete"
	EventPolicyChanged = "policy.changed"
)

// Cue lifecycle names, shared by MQTT topics and metrics.
const (
	lifecycleGo       = "go"
	lifecycleRelease  = "release"
	lifecycleComplete = "complete"
)

// QoS levels for engine publications. Output frames are superseded every
// tick, so they are sent at most once.
const (
	qosOutput = 0
	qosEvent  = 1
)

// Options configures an Engine. Cues, Universe and TickRate are required;
// every other sink may be nil.
type Options struct {
	Cues     CueSource
	Universe *universe.Universe
	TickRate float64
	Policy   cue.MergePolicy

	// ArtNetUniverse is the Port-Address frames are sent on, and the
	// universe number used in output topics.
	ArtNetUniverse uint16

	DMX     DMXSender
	MQTT    MQTTClient
	Hub     WSHub
	Metrics MetricsWriter
	Logger  Logger
}

// activation records where a running cue came from.
type activation struct {
	list int
	cue  int
}

// Engine runs cues against a universe.
type Engine struct {
	cues     CueSource
	universe *universe.Universe
	tickRate float64
	artnetU  uint16

	dmx     DMXSender
	mqtt    MQTTClient
	hub     WSHub
	metrics MetricsWriter
	logger  Logger

	// emitMu serialises lifecycle changes with their events, so no tick
	// reports a cue complete before its go has been emitted. Taken before mu.
	emitMu sync.Mutex

	// mu guards everything below.
	mu          sync.Mutex
	running     *cue.RunningCueSet
	activations map[string]activation
	policy      cue.MergePolicy
	ticks       uint64
	dmxFailing  bool
}

// NewEngine creates an engine with an empty running set.
//
// Returns:
//   - *Engine: Ready engine; call Run to start ticking
//   - error: ErrNoCueSource, ErrNoUniverse or ErrInvalidTickRate
func NewEngine(opts Options) (*Engine, error) {
	if opts.Cues == nil {
		return nil, ErrNoCueSource
	}
	if opts.Universe == nil {
		return nil, ErrNoUniverse
	}
	if !(opts.TickRate > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTickRate, opts.TickRate)
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Engine{
		cues:        opts.Cues,
		universe:    opts.Universe,
		tickRate:    opts.TickRate,
		artnetU:     opts.ArtNetUniverse,
		dmx:         opts.DMX,
		mqtt:        opts.MQTT,
		hub:         opts.Hub,
		metrics:     opts.Metrics,
		logger:      logger,
		running:     cue.NewRunningCueSet(opts.TickRate),
		activations: make(map[string]activation),
		policy:      opts.Policy,
	}, nil
}

// Go activates a cue from a cue list against the current output.
//
// The cue definition is copied at activation; later edits to the show do
// not affect it. The same cue may be running more than once.
//
// Returns:
//   - string: The activation ID
//   - error: show.ErrCueListNotFound, show.ErrCueNotFound, or
//     universe.ErrChannelOutOfRange if the cue addresses channels the
//     universe does not have
func (e *Engine) Go(ctx context.Context, listNumber, cueNumber int) (string, error) {
	c, err := e.cues.GetCue(ctx, listNumber, cueNumber)
	if err != nil {
		return "", err
	}

	if highest := c.MaxChannel(); highest > e.universe.Size() {
		return "", fmt.Errorf("%w: cue %d uses channel %d, universe has %d",
			universe.ErrChannelOutOfRange, cueNumber, highest, e.universe.Size())
	}

	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	rc := e.running.Activate(c, e.universe.Snapshot())
	e.activations[rc.ID] = activation{list: listNumber, cue: cueNumber}
	e.mu.Unlock()

	e.logger.Info("cue go",
		"cue_list", listNumber,
		"cue", cueNumber,
		"fade", c.FadeSeconds,
		"channels", rc.Len(),
		"activation_id", rc.ID,
	)
	e.emitCueEvent(lifecycleGo, EventCueGo, rc.ID, activation{list: listNumber, cue: cueNumber})

	return rc.ID, nil
}

// Release cancels every running instance of a cue number, whichever cue
// list it was fired from. Channels keep their current output level. It
// returns the number of instances removed. Use ReleaseActivation to cancel
// one instance.
func (e *Engine) Release(cueNumber int) int {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	released := make(map[string]activation)
	for id, a := range e.activations {
		if a.cue == cueNumber {
			released[id] = a
		}
	}
	n := e.running.RemoveCue(cueNumber)
	for id := range released {
		delete(e.activations, id)
	}
	e.mu.Unlock()

	e.emitReleased(released)
	return n
}

// ReleaseActivation cancels a single running cue by activation ID.
func (e *Engine) ReleaseActivation(id string) bool {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	a, tracked := e.activations[id]
	removed := e.running.Remove(id)
	delete(e.activations, id)
	e.mu.Unlock()

	if removed && tracked {
		e.emitReleased(map[string]activation{id: a})
	}
	return removed
}

// ReleaseAll cancels every running cue and returns how many were removed.
func (e *Engine) ReleaseAll() int {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	released := e.activations
	e.activations = make(map[string]activation)
	n := e.running.Clear()
	e.mu.Unlock()

	e.emitReleased(released)
	return n
}

// Tick runs one frame: step, merge and prune the running set, write the
// merged levels to the universe, then feed the optional sinks.
//
// An empty merge leaves the universe untouched. Only a universe write
// failure is returned; sink failures are logged.
func (e *Engine) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	merged := e.running.Tick(e.policy)
	if len(merged) > 0 {
		if err := e.universe.Apply(merged); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("apply frame: %w", err)
		}
	}
	completed := e.collectCompleted()
	e.ticks++
	tick := e.ticks
	running := e.running.Len()
	policy := e.policy
	e.mu.Unlock()

	e.sendDMX()
	if len(merged) > 0 {
		e.publishFrame(tick, merged)
	}
	for id, a := range completed {
		e.logger.Debug("cue complete", "cue_list", a.list, "cue", a.cue, "activation_id", id)
		e.emitCueEvent(lifecycleComplete, EventCueComplete, id, a)
	}

	if e.metrics != nil {
		e.metrics.WriteTick(influxdb.TickStats{
			Running:  running,
			Changed:  len(merged),
			Duration: time.Since(start),
			Policy:   policy.String(),
		})
	}
	return nil
}

// Run ticks at the configured rate until ctx is cancelled or a tick fails.
// Cancellation is a clean stop and returns nil.
func (e *Engine) Run(ctx context.Context) error {
	interval := e.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("playback started", "tick_rate", e.tickRate, "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("playback stopped", "ticks", e.TickCount())
			return nil
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				e.logger.Error("playback tick failed", "error", err)
				return err
			}
		}
	}
}

// Interval returns the time between ticks.
func (e *Engine) Interval() time.Duration {
	return time.Duration(float64(time.Second) / e.tickRate)
}

// TickRate returns the ticks per second.
func (e *Engine) TickRate() float64 {
	return e.tickRate
}

// SetPolicy changes the merge policy from the next tick on.
func (e *Engine) SetPolicy(p cue.MergePolicy) {
	e.mu.Lock()
	old := e.policy
	e.policy = p
	e.mu.Unlock()

	if old != p {
		e.logger.Info("merge policy changed", "from", old.String(), "to", p.String())
		if e.hub != nil {
			e.hub.Broadcast(EventPolicyChanged, map[string]any{"policy": p.String()})
		}
	}
}

// Policy returns the merge policy in effect.
func (e *Engine) Policy() cue.MergePolicy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.policy
}

// Levels returns the universe output, every channel in ID order.
func (e *Engine) Levels() []cue.Channel {
	return e.universe.Snapshot()
}

// Status describes one running cue.
type Status struct {
	ActivationID string  `json:"activation_id"`
	CueList      int     `json:"cue_list"`
	Cue          int     `json:"cue"`
	FadeSeconds  float64 `json:"fade_time"`
	Fading       int     `json:"channels_fading"`
}

// Running returns the running cues, oldest first.
func (e *Engine) Running() []Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	cues := e.running.Cues()
	out := make([]Status, len(cues))
	for i, rc := range cues {
		out[i] = Status{
			ActivationID: rc.ID,
			CueList:      e.activations[rc.ID].list,
			Cue:          rc.CueNumber,
			FadeSeconds:  rc.FadeSeconds,
			Fading:       rc.Len(),
		}
	}
	return out
}

// TickCount returns the number of ticks run.
func (e *Engine) TickCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

// collectCompleted removes and returns activations pruned by the last tick.
// Callers must hold e.mu.
func (e *Engine) collectCompleted() map[string]activation {
	if len(e.activations) == e.running.Len() {
		return nil
	}

	live := make(map[string]struct{}, e.running.Len())
	for _, id := range e.running.IDs() {
		live[id] = struct{}{}
	}

	completed := make(map[string]activation)
	for id, a := range e.activations {
		if _, ok := live[id]; !ok {
			completed[id] = a
			delete(e.activations, id)
		}
	}
	return completed
}

// sendDMX sends the whole universe every tick; Art-Net receivers expect a
// steady refresh even when nothing changes. Failures are logged once per
// outage.
func (e *Engine) sendDMX() {
	if e.dmx == nil {
		return
	}

	err := e.dmx.SendFrame(e.universe.DMX(), e.artnetU)

	e.mu.Lock()
	wasFailing := e.dmxFailing
	e.dmxFailing = err != nil
	e.mu.Unlock()

	switch {
	case err != nil && !wasFailing:
		e.logger.Warn("dmx send failed", "universe", e.artnetU, "error", err)
	case err == nil && wasFailing:
		e.logger.Info("dmx send recovered", "universe", e.artnetU)
	}
}

// framePayload is the body of universe.frame events and output topics.
type framePayload struct {
	Universe uint16        `json:"universe"`
	Tick     uint64        `json:"tick"`
	Channels []cue.Channel `json:"channels"`
}

func (e *Engine) publishFrame(tick uint64, merged []cue.Channel) {
	frame := framePayload{Universe: e.artnetU, Tick: tick, Channels: merged}

	if e.hub != nil {
		e.hub.Broadcast(EventUniverseFrame, frame)
	}
	if e.mqtt != nil {
		e.publish(mqtt.Topics{}.Output(int(e.artnetU)), frame, qosOutput)
	}
}

// cueEventPayload is the body of cue lifecycle events.
type cueEventPayload struct {
	ActivationID string `json:"activation_id"`
	CueList      int    `json:"cue_list"`
	Cue          int    `json:"cue"`
	Timestamp    string `json:"timestamp"`
}

func (e *Engine) emitCueEvent(lifecycle, channel, id string, a activation) {
	event := cueEventPayload{
		ActivationID: id,
		CueList:      a.list,
		Cue:          a.cue,
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
	}

	if e.hub != nil {
		e.hub.Broadcast(channel, event)
	}
	if e.mqtt != nil {
		e.publish(mqtt.Topics{}.CueEvent(lifecycle), event, qosEvent)
	}
	if e.metrics != nil {
		e.metrics.WriteCueEvent(lifecycle, a.list, a.cue, id)
	}
}

func (e *Engine) emitReleased(released map[string]activation) {
	for id, a := range released {
		e.logger.Info("cue released", "cue_list", a.list, "cue", a.cue, "activation_id", id)
		e.emitCueEvent(lifecycleRelease, EventCueRelease, id, a)
	}
}

func (e *Engine) publish(topic string, payload any, qos byte) {
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Error("failed to encode mqtt payload", "topic", topic, "error", err)
		return
	}
	if err := e.mqtt.Publish(topic, data, qos, false); err != nil {
		e.logger.Debug("mqtt publish failed", "topic", topic, "error", err)
	}
}
