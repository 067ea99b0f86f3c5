package output

import (
	"encoding/json"

	"jstable/internal/migration"
)

type jsonFormatter struct{}

type migrationSummary struct {
	Tables        int `json:"tables"`
	Unresolved    int `json:"unresolved"`
	Notes         int `json:"notes"`
	SQLStatements int `json:"sqlStatements"`
}

type migrationPayload struct {
	Format     string                `json:"format"`
	Summary    migrationSummary      `json:"summary"`
	Unresolved []string              `json:"unresolved,omitempty"`
	Notes      []string              `json:"notes,omitempty"`
	SQL        []string              `json:"sql,omitempty"`
	Operations []migration.Operation `json:"operations,omitempty"`
}

type metadataPayload struct {
	Format string `json:"format"`
	Tables Tables `json:"tables"`
}

type Payload interface {
	migrationPayload | metadataPayload
}

func (jsonFormatter) FormatMigration(m *migration.Migration) (string, error) {
	payload := migrationPayload{Format: string(FormatJSON)}
	if m != nil {
		unresolved := m.UnresolvedNotes()
		notes := m.InfoNotes()
		sql := normalizeStatements(m.SQLStatements())

		payload.Unresolved = unresolved
		payload.Notes = notes
		payload.SQL = sql
		payload.Operations = m.Plan()
		payload.Summary = migrationSummary{
			Tables:        len(m.Tables()),
			Unresolved:    len(unresolved),
			Notes:         len(notes),
			SQLStatements: len(sql),
		}
	}
	return marshalJSON(payload)
}

func (jsonFormatter) FormatMetadata(tables Tables) (string, error) {
	return marshalJSON(metadataPayload{Format: string(FormatJSON), Tables: tables})
}

func marshalJSON[T Payload](payload T) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
