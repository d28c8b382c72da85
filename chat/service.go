// Package chat runs one chat turn: it routes the message, advances the user's
// dialogue, executes the resulting effects and answers free-form questions.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nutriroutine"
	"nutriroutine/dialogue"
	"nutriroutine/recommend"
	"nutriroutine/router"
	"nutriroutine/session"
)

const (
	TopicRoutine   = "Rutina alimentaria"
	TopicNutrition = "Nutrición"

	defaultFreeformTimeout = 20 * time.Second
)

type Request struct {
	UserID    int64  `json:"user_id"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	// IntentHint overrides the classification of free-form turns when it names a
	// known intent.
	IntentHint string `json:"intent_hint,omitempty"`
}

type Response struct {
	ResponseText string                  `json:"response_text"`
	IntentKind   nutriroutine.IntentKind `json:"intent"`
	ActionKind   nutriroutine.ActionKind `json:"action,omitempty"`
	Topic        string                  `json:"topic"`
	Route        string                  `json:"route"`

	source string
	failed bool
}

// RoutineEngine builds routines for the generate and regenerate commands.
type RoutineEngine interface {
	GenerateRoutine(ctx context.Context, profile nutriroutine.UserProfile, previous []string) recommend.RoutineResult
}

type Options struct {
	// Generator answers free-form questions. Nil always uses the canned answers.
	Generator       nutriroutine.TextGenerator
	FreeformTimeout time.Duration
	Router          *router.Router
	Sessions        *session.Store
	TurnLogger      nutriroutine.TurnLogger
	// Slack receives a summary of every finalized routine when set.
	Slack        nutriroutine.SlackClient
	SlackChannel string
	Now          func() time.Time
	Tracer       trace.Tracer
}

type Service struct {
	catalog         nutriroutine.Catalog
	profiles        nutriroutine.ProfileStore
	engine          RoutineEngine
	generator       nutriroutine.TextGenerator
	freeformTimeout time.Duration
	router          *router.Router
	sessions        *session.Store
	turnLogger      nutriroutine.TurnLogger
	slack           nutriroutine.SlackClient
	slackChannel    string
	now             func() time.Time
	tracer          trace.Tracer
}

func NewService(catalog nutriroutine.Catalog, profiles nutriroutine.ProfileStore, engine RoutineEngine, opts Options) *Service {
	if opts.FreeformTimeout <= 0 {
		opts.FreeformTimeout = defaultFreeformTimeout
	}
	if opts.Router == nil {
		opts.Router = router.Default()
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore()
	}
	if opts.TurnLogger == nil {
		opts.TurnLogger = nutriroutine.NewNoOpTurnLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(nutriroutine.TracerNameChat)
	}
	return &Service{
		catalog:         catalog,
		profiles:        profiles,
		engine:          engine,
		generator:       opts.Generator,
		freeformTimeout: opts.FreeformTimeout,
		router:          opts.Router,
		sessions:        opts.Sessions,
		turnLogger:      opts.TurnLogger,
		slack:           opts.Slack,
		slackChannel:    opts.SlackChannel,
		now:             opts.Now,
		tracer:          opts.Tracer,
	}
}

// Handle runs one turn for req.UserID. Turns of the same user are serialized. The only
// error returned is ctx ending while waiting for the user's previous turn.
func (s *Service) Handle(ctx context.Context, req Request) (Response, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Handle", trace.WithAttributes(
		attribute.Int64("user.id", req.UserID),
	))
	defer span.End()

	start := s.now()
	var (
		resp Response
		turn nutriroutine.TurnLog
	)
	err := s.sessions.Do(ctx, req.UserID, func(st *dialogue.State) error {
		if req.SessionID != "" && st.SessionID != req.SessionID {
			slog.Info("CHAT: New session id, starting over", "user_id", req.UserID, "session_id", req.SessionID)
			*st = dialogue.NewState(req.UserID, req.SessionID)
		}
		resp, turn = s.turn(ctx, st, req, start)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session unavailable")
		return Response{}, fmt.Errorf("failed to acquire session for user %d: %w", req.UserID, err)
	}

	span.SetAttributes(
		attribute.String("chat.route", resp.Route),
		attribute.String("chat.intent", string(resp.IntentKind)),
		attribute.String("chat.from_step", turn.FromStep),
		attribute.String("chat.to_step", turn.ToStep),
	)
	if turn.Error != "" {
		span.SetStatus(codes.Error, turn.Error)
	}

	turn.Duration = s.now().Sub(start).String()
	if err := s.turnLogger.LogTurn(turn); err != nil {
		slog.Error("CHAT: Failed to log turn", "error", err)
	}
	return resp, nil
}

// StartSession replaces the user's conversation with a fresh one and returns its id.
func (s *Service) StartSession(ctx context.Context, userID int64, sessionID string) (string, error) {
	st, err := s.sessions.Start(ctx, userID, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to start session for user %d: %w", userID, err)
	}
	return st.SessionID, nil
}

// EndSession clears the user's conversation. Ending an unknown session is a no-op.
func (s *Service) EndSession(ctx context.Context, userID int64) error {
	if err := s.sessions.End(ctx, userID); err != nil {
		return fmt.Errorf("failed to end session for user %d: %w", userID, err)
	}
	return nil
}

// ActiveSessions returns the number of live conversations.
func (s *Service) ActiveSessions() int {
	return s.sessions.Len()
}

func (s *Service) profile(ctx context.Context, userID int64) *nutriroutine.UserProfile {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, nutriroutine.ErrNotFound) {
			slog.Warn("CHAT: Failed to load profile", "user_id", userID, "error", err)
		}
		return nil
	}
	return &p
}

func (s *Service) turn(ctx context.Context, st *dialogue.State, req Request, now time.Time) (Response, nutriroutine.TurnLog) {
	prev := *st
	from := st.Step
	in := dialogue.Input{Text: req.Message, Profile: s.profile(ctx, req.UserID), Now: now}

	d := s.router.Decide(req.Message, st.Step, now)
	slog.Info("CHAT: Routing message", "user_id", req.UserID, "step", st.Step, "route", d.Route, "rule", d.Rule)
	if d.ExitViewing {
		prev = prev.Reset()
	}

	topic := TopicRoutine
	var out dialogue.Outcome
	switch d.Route {
	case router.RouteStartRoutine:
		out = dialogue.StartRoutine(prev, in)
	case router.RouteRepromptRoutine:
		out = dialogue.RepromptRoutine(prev)
	case router.RouteGenerateRoutine:
		out = dialogue.RequestRoutine(prev, in, false)
	case router.RouteRegenerateRoutine:
		out = dialogue.RequestRoutine(prev, in, true)
	case router.RouteStartAddByCategory:
		out = dialogue.StartAddByCategory(ctx, prev, in, s.catalog)
	case router.RouteStartChangeByCategory:
		out = dialogue.StartChangeByCategory(ctx, prev, in, s.catalog)
	case router.RouteStartAddFreeText:
		out = dialogue.StartAddFreeText(ctx, prev, in, s.catalog, d.Rest)
	case router.RouteStartChangeFreeText:
		out = dialogue.StartChangeFreeText(ctx, prev, in, s.catalog, d.Rest)
	case router.RouteContinueFlow:
		out = dialogue.Transition(ctx, prev, in, s.catalog)
	case router.RouteNothingToSave:
		out = dialogue.NothingToSave(prev)
	case router.RouteViewRoutine:
		if d.DateErr != nil {
			out = dialogue.Outcome{Next: prev, Reply: dateError(profileName(in.Profile), d.DateErr), Intent: nutriroutine.IntentModifyRoutine}
			break
		}
		out = s.viewRoutine(ctx, prev, in, d.Date)
	case router.RouteRedisplayRoutine:
		out = s.viewRoutine(ctx, prev, in, prev.ViewingDate)
	case router.RouteDateGuidance:
		out = dialogue.Outcome{Next: prev, Reply: dateGuidance(profileName(in.Profile)), Intent: DetermineIntent(req.Message)}
	default:
		topic = TopicNutrition
		out = s.freeform(ctx, prev, in, req)
	}

	rec := &turnRecord{}
	out = s.apply(ctx, prev, in, out, rec)
	*st = out.Next

	if out.Intent == "" {
		out.Intent = nutriroutine.IntentModifyRoutine
	}
	resp := Response{
		ResponseText: out.Reply,
		IntentKind:   out.Intent,
		ActionKind:   out.Action,
		Topic:        topic,
		Route:        string(d.Route),
		source:       rec.source,
		failed:       rec.err != nil,
	}

	turn := nutriroutine.TurnLog{
		UserID:    req.UserID,
		SessionID: st.SessionID,
		Timestamp: now,
		Message:   req.Message,
		Route:     string(d.Route),
		FromStep:  string(from),
		ToStep:    string(st.Step),
		Intent:    resp.IntentKind,
		Action:    resp.ActionKind,
		Effects:   rec.effects,
	}
	if rec.err != nil {
		turn.Error = rec.err.Error()
	}
	return resp, turn
}

// freeform answers a nutrition question with the generator, falling back to the
// canned answers when it is missing, slow or failing.
func (s *Service) freeform(ctx context.Context, st dialogue.State, in dialogue.Input, req Request) dialogue.Outcome {
	intent := DetermineIntent(req.Message)
	if hint, ok := parseIntentHint(req.IntentHint); ok {
		intent = hint
	}
	out := dialogue.Outcome{Next: st, Intent: intent, Action: DetermineAction(req.Message)}

	if s.generator == nil {
		out.Reply = CannedAnswer(req.Message)
		return out
	}

	entries, err := s.catalog.ListRecentEntries(ctx, st.UserID)
	if err != nil {
		slog.Warn("CHAT: Failed to load recent entries for question", "user_id", st.UserID, "error", err)
		entries = nil
	}
	var profile nutriroutine.UserProfile
	if in.Profile != nil {
		profile = *in.Profile
	}

	gctx, cancel := context.WithTimeout(ctx, s.freeformTimeout)
	defer cancel()
	answer, err := s.generator.GenerateFreeformAnswer(gctx, req.Message, profile, entries)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty answer")
	}
	if err != nil {
		slog.Warn("CHAT: Free-form answer unavailable, using canned answer", "user_id", st.UserID,
			"error", fmt.Errorf("%w: %w", nutriroutine.ErrGenerationUnavailable, err))
		out.Reply = CannedAnswer(req.Message)
		return out
	}
	out.Reply = strings.TrimSpace(answer)
	return out
}
