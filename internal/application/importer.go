package application

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/subvault-dev/subvault-cli/internal/domain"
	"github.com/subvault-dev/subvault-cli/internal/ports"
)

// Importer runs bulk credential imports off the caller's goroutine and
// publishes progressive per-job status. Jobs cannot be canceled once
// scheduled; they run to their terminal Finished snapshot.
type Importer struct {
	store    ports.CredentialStore
	detector ports.DuplicateDetector

	// scheduleMu serializes the id-generation-and-schedule step so
	// concurrent Import calls cannot interleave it. The background work of
	// different jobs still runs concurrently.
	scheduleMu sync.Mutex

	jobsMu sync.Mutex
	jobs   map[domain.JobID]*stream[domain.ImportStatus]
}

func NewImporter(store ports.CredentialStore, detector ports.DuplicateDetector) *Importer {
	if detector == nil {
		detector = ExactMatchDetector{Store: store}
	}

	return &Importer{
		store:    store,
		detector: detector,
		jobs:     map[domain.JobID]*stream[domain.ImportStatus]{},
	}
}

// Import schedules a background import and returns its job id immediately.
// originalListSize may exceed len(credentials) when items were already
// filtered out upstream; the difference counts toward NumberSkipped from the
// first snapshot on.
func (i *Importer) Import(ctx context.Context, credentials []domain.Credential, originalListSize int) domain.JobID {
	i.scheduleMu.Lock()
	defer i.scheduleMu.Unlock()

	jobID := domain.JobID(uuid.NewString())
	st := i.jobStream(jobID)

	go i.run(context.WithoutCancel(ctx), jobID, st, credentials, originalListSize)

	return jobID
}

// ImportStatus returns the status stream of one job. A subscriber attaching
// after the job finished still receives the Finished snapshot, and never
// sees another job's events. The second return value unsubscribes.
func (i *Importer) ImportStatus(jobID domain.JobID) (<-chan domain.ImportStatus, func()) {
	return i.jobStream(jobID).Subscribe()
}

func (i *Importer) jobStream(jobID domain.JobID) *stream[domain.ImportStatus] {
	i.jobsMu.Lock()
	defer i.jobsMu.Unlock()

	st, ok := i.jobs[jobID]
	if !ok {
		st = newStream[domain.ImportStatus](true)
		i.jobs[jobID] = st
	}
	return st
}

func (i *Importer) run(ctx context.Context, jobID domain.JobID, st *stream[domain.ImportStatus], credentials []domain.Credential, originalListSize int) {
	skipped := originalListSize - len(credentials)
	if skipped < 0 {
		skipped = 0
	}
	var savedIDs []int64

	for _, credential := range credentials {
		duplicate, err := i.detector.AlreadyExists(ctx, credential)
		if err == nil && duplicate {
			skipped++
		} else {
			record, saveErr := i.store.SaveCredential(ctx, credential)
			if saveErr == nil && record != nil {
				savedIDs = append(savedIDs, record.ID)
			}
			// A failed or declined write is dropped silently: the item ends
			// up neither saved nor counted as skipped.
		}

		st.Publish(domain.ImportInProgress{
			JobID:            jobID,
			SavedIDs:         append([]int64(nil), savedIDs...),
			NumberSkipped:    skipped,
			OriginalListSize: originalListSize,
		})
	}

	st.Publish(domain.ImportFinished{
		JobID:         jobID,
		SavedIDs:      append([]int64(nil), savedIDs...),
		NumberSkipped: skipped,
	})
}
