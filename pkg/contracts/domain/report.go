package domain

// RowResult is the validation verdict for one input row. Exactly one result
// is produced per row, in input order, and it is never mutated after the
// report is assembled.
type RowResult struct {
	Row    int      `json:"row"`
	Code   string   `json:"code"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidationReport is the terminal artifact of one validation request.
//
// Invariants: ValidRows+InvalidRows == TotalRows, and the ErrorCounts values
// sum to the total number of per-row error messages.
type ValidationReport struct {
	TotalRows                int            `json:"total_rows"`
	ValidRows                int            `json:"valid_rows"`
	InvalidRows              int            `json:"invalid_rows"`
	ErrorCounts              map[string]int `json:"error_counts"`
	DuplicateEmailCount      int            `json:"duplicate_email_count"`
	DuplicateUsernameCount   int            `json:"duplicate_username_count"`
	DuplicatePersonalIDCount int            `json:"duplicate_personalid_count"`
	DuplicateIDCardNoCount   int            `json:"duplicate_idcardno_count"`
	Results                  []RowResult    `json:"results"`
}
