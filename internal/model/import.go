package model

// ImportRow is one parsed roster line from a spreadsheet.
type ImportRow struct {
	Row           int    `json:"row"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	StudentNumber string `json:"student_number"`
}

// ImportResult reports the outcome of one row. Exactly one of Password and
// Error is set.
type ImportResult struct {
	ImportRow
	Success  bool   `json:"success"`
	Password string `json:"password,omitempty"`
	Error    string `json:"error,omitempty"`
}
