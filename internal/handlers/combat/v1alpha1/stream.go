package v1alpha1

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/orchestrators/encounter"
)

func watchLogHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	req := new(LogRequest)
	if err := decode(in, req); err != nil {
		return errors.ToGRPCError(err)
	}
	return errors.ToGRPCError(srv.(*Handler).WatchLog(stream.Context(), req, func(entry combat.LogEntry) error {
		msg, err := encode(entry)
		if err != nil {
			return err
		}
		return stream.SendMsg(msg)
	}))
}

// WatchLog sends an encounter's entries after req.AfterSequence, then every
// new entry as it is appended, until ctx ends. Entries arrive in sequence
// order with no gaps.
func (h *Handler) WatchLog(ctx context.Context, req *LogRequest, send func(combat.LogEntry) error) error {
	if req.EncounterID == "" {
		return errors.InvalidArgument("encounter id is required")
	}

	// The subscription only wakes the stream; entries are read back through
	// GetLog so a slow client never blocks the writer.
	wake := make(chan struct{}, 1)
	watch, err := h.encounterService.WatchLog(ctx, &encounter.WatchLogInput{
		EncounterID: req.EncounterID,
		Handler: func(combat.LogEntry) {
			select {
			case wake <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if _, err := h.encounterService.UnwatchLog(context.Background(), &encounter.UnwatchLogInput{
			SubscriptionID: watch.SubscriptionID,
		}); err != nil {
			slog.Warn("Failed to stop log watch", "subscription_id", watch.SubscriptionID, "error", err)
		}
	}()

	after := req.AfterSequence
	for {
		out, err := h.encounterService.GetLog(ctx, &encounter.GetLogInput{
			EncounterID:   req.EncounterID,
			AfterSequence: after,
		})
		if err != nil {
			return err
		}
		for _, entry := range out.Entries {
			if err := send(entry); err != nil {
				return err
			}
			after = entry.Sequence
		}

		select {
		case <-ctx.Done():
			return nil
		case <-wake:
		}
	}
}
