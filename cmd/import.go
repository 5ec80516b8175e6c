package cmd

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/subvault-dev/subvault-cli/internal/adapters/render/importstatus"
	"github.com/subvault-dev/subvault-cli/internal/domain"
)

func newImportCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Bulk-import credentials from a CSV export",
		Long:  "Import reads a CSV password export (Chrome/Firefox style: url, username, password plus optional name and note columns), skips rows that already exist in the store, and reports saved and skipped counts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer func() { _ = file.Close() }()

			credentials, total, err := parseCredentialsCSV(file)
			if err != nil {
				return err
			}

			jobID := app.importer.Import(cmd.Context(), credentials, total)

			updates, cancel := app.importer.ImportStatus(jobID)
			defer cancel()

			snapshots := make(chan importstatus.Snapshot)
			go func() {
				defer close(snapshots)
				for status := range updates {
					snapshot, terminal := toSnapshot(status, total)
					snapshots <- snapshot
					if terminal {
						return
					}
				}
			}()

			result, err := importstatus.Follow(cmd.Context(), cmd.ErrOrStderr(), snapshots)
			if err != nil {
				return fmt.Errorf("follow import: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					JobID   string `json:"job_id"`
					Saved   int    `json:"saved"`
					Skipped int    `json:"skipped"`
				}{JobID: string(jobID), Saved: result.Saved, Skipped: result.Skipped})
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d credentials, skipped %d.\n", result.Saved, result.Skipped)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output import result as JSON")

	return cmd
}

func toSnapshot(status domain.ImportStatus, total int) (importstatus.Snapshot, bool) {
	switch s := status.(type) {
	case domain.ImportInProgress:
		return importstatus.Snapshot{
			Saved:   len(s.SavedIDs),
			Skipped: s.NumberSkipped,
			Total:   s.OriginalListSize,
		}, false
	case domain.ImportFinished:
		return importstatus.Snapshot{
			Saved:    len(s.SavedIDs),
			Skipped:  s.NumberSkipped,
			Total:    total,
			Finished: true,
		}, true
	default:
		return importstatus.Snapshot{Total: total}, false
	}
}

// parseCredentialsCSV maps a password export to credentials. Rows missing a
// domain or password still count toward the original list size so the skip
// total reflects the whole file.
func parseCredentialsCSV(r io.Reader) ([]domain.Credential, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, errors.New("import file is empty")
		}
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}

	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	domainCol, ok := firstColumn(columns, "url", "domain", "origin")
	if !ok {
		return nil, 0, errors.New("import file has no url or domain column")
	}
	usernameCol, ok := firstColumn(columns, "username", "login")
	if !ok {
		return nil, 0, errors.New("import file has no username column")
	}
	passwordCol, ok := firstColumn(columns, "password")
	if !ok {
		return nil, 0, errors.New("import file has no password column")
	}
	notesCol, hasNotes := firstColumn(columns, "note", "notes")
	titleCol, hasTitle := firstColumn(columns, "name", "title")

	var credentials []domain.Credential
	total := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv row: %w", err)
		}

		total++

		credential := domain.Credential{
			Domain:   field(row, domainCol),
			Username: field(row, usernameCol),
			Password: field(row, passwordCol),
		}
		if hasNotes {
			credential.Notes = field(row, notesCol)
		}
		if hasTitle {
			credential.DomainTitle = field(row, titleCol)
		}

		if credential.Domain == "" || credential.Password == "" {
			continue
		}
		credentials = append(credentials, credential)
	}

	return credentials, total, nil
}

func firstColumn(columns map[string]int, names ...string) (int, bool) {
	for _, name := range names {
		if i, ok := columns[name]; ok {
			return i, true
		}
	}
	return 0, false
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
