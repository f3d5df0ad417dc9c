package engine

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/nocturne/internal/agent"
	"github.com/louisbranch/nocturne/internal/engine/broadcast"
	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/event"
	"github.com/louisbranch/nocturne/internal/engine/replay"
	"github.com/louisbranch/nocturne/internal/engine/rng"
	"github.com/louisbranch/nocturne/internal/engine/state"
	apperrors "github.com/louisbranch/nocturne/internal/platform/errors"
	"github.com/louisbranch/nocturne/internal/platform/id"
	"github.com/louisbranch/nocturne/internal/random"
	"github.com/louisbranch/nocturne/internal/storage"
	"github.com/louisbranch/nocturne/internal/telemetry"
)

// Options carries the runner's ambient collaborators. Zero values are
// usable: a default logger, no telemetry, no broadcast.
type Options struct {
	Logger      *log.Logger
	Telemetry   *telemetry.Emitter
	Broadcaster *broadcast.Broadcaster
}

// PlayerSpec names one participant for game creation. An empty ID gets a
// generated one.
type PlayerSpec struct {
	ID   string
	Name string
}

// Runner drives one game. It is the only writer of the game's journal;
// all methods serialize on an internal mutex, so a phase in flight delays
// control calls until its boundary.
type Runner struct {
	gameID string
	cfg    domain.Config
	store  storage.Store
	agents agent.Agent

	logger  *log.Logger
	emitter *telemetry.Emitter
	bcast   *broadcast.Broadcaster
	tracer  trace.Tracer

	mu sync.Mutex
	st state.State
	// pending holds events intended for the journal that have not been
	// acknowledged by storage. Non-empty only after an append failure.
	pending []event.Event
}

// NewGame creates a game: it commits the seed and configuration, assigns
// roles, writes the opening events, and returns the runner.
func NewGame(ctx context.Context, store storage.Store, agents agent.Agent, cfg domain.Config, players []PlayerSpec, opts Options) (*Runner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		seed, err := random.NewSeed()
		if err != nil {
			return nil, err
		}
		cfg.Seed = seed
	}
	if len(players) < 3 {
		return nil, apperrors.New(apperrors.CodeGameInvalidConfig, "at least three players are required")
	}
	if !cfg.MultiRole && cfg.PlayerCount() != len(players) {
		return nil, apperrors.WithMetadata(apperrors.CodeGameInvalidConfig,
			"role counts must match the player count", map[string]string{})
	}
	if cfg.MultiRole && cfg.PlayerCount() < len(players) {
		return nil, apperrors.New(apperrors.CodeGameInvalidConfig,
			"multi-role games need at least one role per player")
	}

	refs := make([]event.PlayerRef, 0, len(players))
	seen := map[string]bool{}
	for _, spec := range players {
		playerID := spec.ID
		if playerID == "" {
			generated, err := id.NewID()
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CodeUnknown, "generate player id", err)
			}
			playerID = generated
		}
		if seen[playerID] {
			return nil, apperrors.WithMetadata(apperrors.CodeGameInvalidConfig,
				"duplicate player id", map[string]string{"player_id": playerID})
		}
		seen[playerID] = true
		if spec.Name == "" {
			return nil, apperrors.New(apperrors.CodePlayerNameEmpty, "player name is required")
		}
		refs = append(refs, event.PlayerRef{ID: playerID, Name: spec.Name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeGameInvalidConfig, "encode config", err)
	}

	gameID, err := id.NewID()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "generate game id", err)
	}
	r := newRunner(gameID, cfg, store, agents, opts)

	if err := store.CreateGame(ctx, storage.GameRecord{
		ID:         r.gameID,
		Status:     domain.StatusActive,
		Phase:      domain.PhaseSetup,
		Seed:       cfg.Seed,
		ConfigJSON: configJSON,
	}); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "create game record", err)
	}

	roleCounts := map[string]int{}
	for role, count := range cfg.RoleCounts {
		roleCounts[string(role)] = count
	}
	createdPayload, err := event.MarshalPayload(event.GameCreatedPayload{
		Seed:       cfg.Seed,
		RoleCounts: roleCounts,
		Players:    refs,
		TiePolicy:  string(cfg.TiePolicy),
		MultiRole:  cfg.MultiRole,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "encode created payload", err)
	}

	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}
	assignedPayload, err := event.MarshalPayload(event.RolesAssignedPayload{
		Assignments: assignRoles(cfg, ids),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "encode assignment payload", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = []event.Event{
		r.newEvent(event.TypeGameCreated, event.VisibilityPublic, 0, createdPayload),
		r.newEvent(event.TypeRolesAssigned, event.VisibilityAdmin, 0, assignedPayload),
	}
	if err := r.flush(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Load rebuilds a runner for a stored game by replaying its journal.
func Load(ctx context.Context, store storage.Store, agents agent.Agent, gameID string, opts Options) (*Runner, error) {
	rec, err := store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	var cfg domain.Config
	if err := json.Unmarshal(rec.ConfigJSON, &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailed, "decode stored config", err)
	}
	cfg, err = cfg.Normalize()
	if err != nil {
		return nil, err
	}

	st, err := replay.Replay(ctx, store, store, gameID, 0)
	if err != nil {
		return nil, err
	}

	r := newRunner(gameID, cfg, store, agents, opts)
	r.st = st
	if rec.Status == domain.StatusErrored {
		// The halt lives only on the game record; the journal has no
		// trace of it. Keep the game halted until an operator resumes,
		// at which point the interrupted phase re-runs from the last
		// committed boundary.
		r.st.Status = domain.StatusErrored
	}
	return r, nil
}

func newRunner(gameID string, cfg domain.Config, store storage.Store, agents agent.Agent, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		gameID:  gameID,
		cfg:     cfg,
		store:   store,
		agents:  agents,
		logger:  logger,
		emitter: opts.Telemetry,
		bcast:   opts.Broadcaster,
		tracer:  otel.Tracer("nocturne/engine"),
		st:      state.New(),
	}
}

// GameID returns the game this runner drives.
func (r *Runner) GameID() string {
	return r.gameID
}

// State returns a copy of the current projection.
func (r *Runner) State() state.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.Clone()
}

// Step advances the game by one phase transition and its side effects.
// done reports the terminal phase was reached.
func (r *Runner) Step(ctx context.Context) (done bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.st.Status == domain.StatusErrored:
		return false, apperrors.New(apperrors.CodeGameErrored, "game halted on storage failure, resume first")
	case r.st.Status == domain.StatusPaused:
		return false, apperrors.New(apperrors.CodeGameNotRunning, "game is paused")
	case r.st.Status == domain.StatusEnded || r.st.Phase.Terminal():
		return true, nil
	}

	ctx, span := r.tracer.Start(ctx, "engine.step", trace.WithAttributes(
		attribute.String("game.id", r.gameID),
		attribute.String("game.phase", string(r.st.Phase)),
		attribute.Int("game.round", r.st.Round),
	))
	defer span.End()

	start := time.Now()
	round := r.st.Round

	events, err := r.phaseEvents(ctx)
	if err != nil {
		return false, err
	}
	r.pending = events
	if err := r.flush(ctx); err != nil {
		return false, err
	}

	r.updateRecord(ctx)
	if r.cfg.SnapshotEveryPhase {
		r.snapshot(ctx)
	}
	r.emitter.Record(ctx, r.gameID, telemetry.KindPhaseDuration, round, time.Since(start))
	if r.st.Phase.Terminal() && r.emitter != nil {
		if rec, err := r.store.GetGame(ctx, r.gameID); err == nil {
			r.emitter.Record(ctx, r.gameID, telemetry.KindGameDuration, r.st.Round, time.Since(rec.CreatedAt))
		}
	}

	return r.st.Phase.Terminal(), nil
}

// Run advances the game until it ends, pauses, errors, or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := r.Step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if status := r.State().Status; status != domain.StatusActive {
			return nil
		}
	}
}

// Pause halts the game at the next phase boundary. Because Step holds the
// runner lock for a whole transition, Pause itself blocks until that
// boundary.
func (r *Runner) Pause(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.st.Status != domain.StatusActive {
		return apperrors.New(apperrors.CodeGameNotRunning, "only an active game can pause")
	}
	if r.st.Phase.Terminal() {
		return apperrors.New(apperrors.CodeGameAlreadyEnded, "game already ended")
	}
	r.pending = []event.Event{
		r.newEvent(event.TypeGamePaused, event.VisibilityPublic, r.st.Round, nil),
	}
	if err := r.flush(ctx); err != nil {
		return err
	}
	r.updateRecord(ctx)
	return nil
}

// Resume reactivates a paused or errored game. For an errored game it
// first retries the unacknowledged appends; the store deduplicates any
// that actually landed before the failure.
func (r *Runner) Resume(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.st.Status {
	case domain.StatusErrored:
		if err := r.flush(ctx); err != nil {
			return err
		}
		r.st.Status = domain.StatusActive
		r.updateRecord(ctx)
		return nil
	case domain.StatusPaused:
		r.pending = []event.Event{
			r.newEvent(event.TypeGameResumed, event.VisibilityPublic, r.st.Round, nil),
		}
		if err := r.flush(ctx); err != nil {
			return err
		}
		r.updateRecord(ctx)
		return nil
	default:
		return apperrors.New(apperrors.CodeGameNotRunning, "only a paused or errored game can resume")
	}
}

// newEvent stamps the fields every journal event shares.
func (r *Runner) newEvent(kind event.Type, visibility event.Visibility, round int, payload []byte) event.Event {
	return event.Event{
		GameID:      r.gameID,
		Timestamp:   time.Now().UTC(),
		Type:        kind,
		Visibility:  visibility,
		Round:       round,
		PayloadJSON: payload,
	}
}

// flush appends the pending events as one atomic batch, folding each
// acknowledged event into the projection and publishing it. On a failure
// nothing lands: the whole batch stays pending and the game halts as
// errored, so the journal never holds part of a phase.
func (r *Runner) flush(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	stored, err := r.store.AppendEvents(ctx, r.pending)
	if err != nil {
		r.st.Status = domain.StatusErrored
		r.logger.Printf("engine: game %s halted, append %d events: %v", r.gameID, len(r.pending), err)
		r.updateRecord(ctx)
		return apperrors.Wrap(apperrors.CodeStorageFailed, "append events", err)
	}
	r.pending = nil
	for _, evt := range stored {
		if evt.Seq <= r.st.LastSeq {
			// A resume retry of an event that had landed before the
			// failure; the projection already includes it.
			continue
		}
		next, err := state.Apply(r.st, evt)
		if err != nil {
			return err
		}
		r.st = next
		if r.bcast != nil {
			r.bcast.Publish(evt)
		}
	}
	return nil
}

// stepRNG derives the deterministic source for the next decision point.
// Keying on the journal position keeps draws reproducible across resumes
// without persisting stream state.
func (r *Runner) stepRNG() *rng.RNG {
	return rng.New(r.cfg.Seed + int64(r.st.LastSeq))
}

func (r *Runner) updateRecord(ctx context.Context) {
	configJSON, _ := json.Marshal(r.cfg)
	rec := storage.GameRecord{
		ID:         r.gameID,
		Status:     r.st.Status,
		Phase:      r.st.Phase,
		Round:      r.st.Round,
		Winner:     r.st.Winner,
		Seed:       r.cfg.Seed,
		ConfigJSON: configJSON,
	}
	if r.st.Status == domain.StatusEnded {
		rec.EndedAt = time.Now().UTC()
	}
	err := r.store.UpdateGame(ctx, rec)
	if err != nil {
		r.logger.Printf("engine: game %s update record: %v", r.gameID, err)
	}
}

func (r *Runner) snapshot(ctx context.Context) {
	encoded, err := replay.Encode(r.st)
	if err != nil {
		r.logger.Printf("engine: game %s encode snapshot: %v", r.gameID, err)
		return
	}
	if err := r.store.SaveSnapshot(ctx, storage.Snapshot{
		GameID:    r.gameID,
		Seq:       r.st.LastSeq,
		StateJSON: encoded,
	}); err != nil {
		r.logger.Printf("engine: game %s save snapshot: %v", r.gameID, err)
	}
}

// assignRoles expands the configured counts and deals them over a
// seed-shuffled player order. Multi-role games deal the surplus roles
// round-robin; single-role games deal exactly one each.
func assignRoles(cfg domain.Config, ids []string) map[string][]string {
	var expanded []domain.Role
	for _, role := range domain.Roles {
		for i := 0; i < cfg.RoleCounts[role]; i++ {
			expanded = append(expanded, role)
		}
	}

	shuffled := append([]string(nil), ids...)
	sort.Strings(shuffled)
	rng.New(cfg.Seed).Shuffle(shuffled)

	assignments := map[string]domain.RoleSet{}
	for i, role := range expanded {
		playerID := shuffled[i%len(shuffled)]
		assignments[playerID] = assignments[playerID].Add(role)
	}

	out := make(map[string][]string, len(assignments))
	for playerID, roles := range assignments {
		out[playerID] = roles.Strings()
	}
	return out
}
