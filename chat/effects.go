package chat

import (
	"context"
	"fmt"
	"log/slog"

	"nutriroutine"
	"nutriroutine/dialogue"
	"nutriroutine/slack"
)

const msgWriteFailed = "Lo siento, hubo un problema al guardar tus cambios. Por favor intenta de nuevo."

// turnRecord collects what happened while a turn ran, for the audit log and metrics.
type turnRecord struct {
	effects []nutriroutine.EffectLog
	source  string
	err     error
}

func (r *turnRecord) effect(kind string, err error) {
	l := nutriroutine.EffectLog{Kind: kind}
	if err != nil {
		l.Error = err.Error()
		r.err = err
	}
	r.effects = append(r.effects, l)
}

// apply executes the effects of out in order. A generation request is replaced by the
// outcome it produces. When a write fails the previous state is kept and the user gets
// out.Failure, so re-sending the confirmation retries.
func (s *Service) apply(ctx context.Context, prev dialogue.State, in dialogue.Input, out dialogue.Outcome, rec *turnRecord) dialogue.Outcome {
	effects := out.Effects
	out.Effects = nil

	for _, eff := range effects {
		switch e := eff.(type) {
		case dialogue.GenerateRoutine:
			out = s.generate(ctx, out.Next, in, e, rec)

		case dialogue.RecordEntry:
			err := s.catalog.RecordEntry(ctx, prev.UserID, e.FoodName, e.Quantity, e.Unit, e.Slot)
			if err != nil {
				return s.writeFailed(prev, out, e.Kind(), err, rec)
			}
			rec.effect(e.Kind(), nil)
			slog.Info("CHAT: Recorded entry", "user_id", prev.UserID, "food", e.FoodName, "slot", e.Slot)

		case dialogue.ReplaceEntry:
			err := s.catalog.ReplaceEntry(ctx, prev.UserID, e.OriginalFood, e.NewFood, e.Quantity, e.Unit, e.Slot)
			if err != nil {
				return s.writeFailed(prev, out, e.Kind(), err, rec)
			}
			rec.effect(e.Kind(), nil)
			slog.Info("CHAT: Replaced entry", "user_id", prev.UserID, "original", e.OriginalFood, "new", e.NewFood, "slot", e.Slot)

		case dialogue.FinalizeRoutine:
			if err := s.finalize(ctx, prev.UserID, e); err != nil {
				return s.writeFailed(prev, out, e.Kind(), err, rec)
			}
			rec.effect(e.Kind(), nil)
			slog.Info("CHAT: Routine saved", "user_id", prev.UserID, "items", len(e.Items))
			s.notify(ctx, in, e)

		default:
			slog.Warn("CHAT: Unknown effect ignored", "kind", eff.Kind())
		}
	}
	return out
}

func (s *Service) generate(ctx context.Context, st dialogue.State, in dialogue.Input, e dialogue.GenerateRoutine, rec *turnRecord) dialogue.Outcome {
	if in.Profile == nil {
		return dialogue.RequestRoutine(st, in, e.Regenerate)
	}
	res := s.engine.GenerateRoutine(ctx, *in.Profile, st.RoutineHistory)
	rec.source = string(res.Source)
	rec.effect(e.Kind(), res.Err)
	if res.Err != nil {
		slog.Error("CHAT: Routine generation failed", "user_id", st.UserID, "error", res.Err)
	} else {
		slog.Info("CHAT: Routine generated", "user_id", st.UserID, "source", res.Source, "items", len(res.Items), "regenerate", e.Regenerate)
	}
	return dialogue.RoutineGenerated(st, in, res)
}

// finalize replaces the routine of e.Date: all four slots are cleared before any item
// is inserted.
func (s *Service) finalize(ctx context.Context, userID int64, e dialogue.FinalizeRoutine) error {
	for _, slot := range nutriroutine.MealSlots {
		if err := s.catalog.DeleteEntriesByDateAndSlot(ctx, userID, e.Date, slot); err != nil {
			return fmt.Errorf("clear %s: %w", slot, err)
		}
	}
	for _, it := range e.Items {
		if err := s.catalog.RecordEntry(ctx, userID, it.FoodName, it.Quantity, it.Unit, it.Slot); err != nil {
			return fmt.Errorf("record %s: %w", it.FoodName, err)
		}
	}
	return nil
}

func (s *Service) writeFailed(prev dialogue.State, out dialogue.Outcome, kind string, err error, rec *turnRecord) dialogue.Outcome {
	err = fmt.Errorf("failed to %s: %w: %w", kind, nutriroutine.ErrPersistence, err)
	rec.effect(kind, err)
	slog.Error("CHAT: Write failed, keeping state", "user_id", prev.UserID, "step", prev.Step, "error", err)

	reply := out.Failure
	if reply == "" {
		reply = msgWriteFailed
	}
	return dialogue.Outcome{Next: prev, Reply: reply, Intent: out.Intent, Action: out.Action}
}

// notify posts the saved routine to Slack. Failures are logged and never reach the user.
func (s *Service) notify(ctx context.Context, in dialogue.Input, e dialogue.FinalizeRoutine) {
	if s.slack == nil {
		return
	}
	msg := slack.RoutineSavedMessage(profileName(in.Profile), e.Date, e.Items)
	if err := s.slack.PostMessage(ctx, s.slackChannel, msg); err != nil {
		slog.Warn("CHAT: Failed to post routine to Slack", "error", err)
	}
}
