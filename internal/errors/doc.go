// Package errors provides the structured error type used across the combat tracker.
//
// Every error carries a Code, a user-facing Message, an optional wrapped Cause
// and free-form Meta. The combat engine reports three kinds of rule failures:
//
//   - InvalidTransition: the encounter is in the wrong state for the operation
//     (ended, not started, or a turn operation with no combatants). These map to
//     CodeFailedPrecondition.
//   - InvalidArgument: negative damage or healing, spell level outside 1-9, a
//     malformed effect duration.
//   - NotFound: an id that is not part of the in-memory encounter.
//
// Persistence failures are reported with CodeUnavailable. They never undo the
// in-memory change that preceded them, so callers receive both the operation
// output and the error and decide whether to retry the save.
//
// # Basic Usage
//
//	err := errors.NotFoundf("combatant %s not found", id)
//	err := errors.InvalidTransition("encounter has ended").
//	    WithMeta("encounter_id", enc.ID)
//
// Wrapping keeps the original code:
//
//	if err := store.Save(ctx, rec); err != nil {
//	    return errors.PersistenceFailed(err, "combatant", rec.ID)
//	}
//
// # Validation Errors
//
//	vb := errors.NewValidationBuilder()
//	errors.ValidateRequired("name", input.Name, vb)
//	errors.ValidateRange("level", input.Level, 1, 20, vb)
//	if err := vb.Build(); err != nil {
//	    return err
//	}
//
// # gRPC Integration
//
// Handlers convert with ToGRPCError; clients convert back with FromGRPCError.
package errors
