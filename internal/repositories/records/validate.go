package records

import (
	"strings"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

const (
	errRecordNil        = "record cannot be nil"
	errKindEmpty        = "record kind cannot be empty"
	errIDEmpty          = "record ID cannot be empty"
	errEncounterIDEmpty = "encounter ID cannot be empty"
)

func validateKey(kind Kind, id string) error {
	if strings.TrimSpace(string(kind)) == "" {
		return errors.InvalidArgument(errKindEmpty)
	}
	if strings.TrimSpace(id) == "" {
		return errors.InvalidArgument(errIDEmpty)
	}
	return nil
}

func validateRecord(rec *Record) error {
	if rec == nil {
		return errors.InvalidArgument(errRecordNil)
	}
	if err := validateKey(rec.Kind, rec.ID); err != nil {
		return err
	}
	if strings.TrimSpace(rec.EncounterID) == "" {
		return errors.InvalidArgument(errEncounterIDEmpty)
	}
	return nil
}

func validateList(input *ListByEncounterInput) error {
	if input == nil {
		return errors.InvalidArgument("input cannot be nil")
	}
	if strings.TrimSpace(string(input.Kind)) == "" {
		return errors.InvalidArgument(errKindEmpty)
	}
	if strings.TrimSpace(input.EncounterID) == "" {
		return errors.InvalidArgument(errEncounterIDEmpty)
	}
	return nil
}

func cloneRecord(rec *Record) *Record {
	out := *rec
	out.Data = append([]byte(nil), rec.Data...)
	return &out
}
