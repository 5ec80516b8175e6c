package domain

// JobID identifies one asynchronous bulk-import execution.
type JobID string

// ImportStatus is one snapshot on a job's status stream. A job progresses
// ImportInProgress -> ImportFinished; Finished is terminal and is retained
// for late subscribers.
type ImportStatus interface {
	importStatus()
	Job() JobID
}

type ImportInProgress struct {
	JobID            JobID
	SavedIDs         []int64
	NumberSkipped    int
	OriginalListSize int
}

type ImportFinished struct {
	JobID         JobID
	SavedIDs      []int64
	NumberSkipped int
}

func (ImportInProgress) importStatus() {}
func (ImportFinished) importStatus()   {}

func (s ImportInProgress) Job() JobID { return s.JobID }
func (s ImportFinished) Job() JobID   { return s.JobID }
