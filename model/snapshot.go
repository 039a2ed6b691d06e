package model

// Snapshot is the restart-safe part of a respondent session: where the
// respondent is and what they answered so far.
type Snapshot struct {
	Cursor  int            `json:"cursor"`
	Answers []StoredAnswer `json:"answers"`
}
