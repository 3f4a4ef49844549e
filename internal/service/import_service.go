package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/metrics"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

// ErrNoHeader is returned when no row of the sheet names the name and
// email columns.
var ErrNoHeader = errors.New("roster header row not found")

// headerAliases lists the accepted header cells of each import column,
// compared after normalizeHeader.
var headerAliases = map[string][]string{
	"name":   {"名前", "氏名", "name", "student name"},
	"email":  {"メール", "メールアドレス", "email", "e-mail"},
	"number": {"出席番号", "番号", "number", "no", "no.", "student number", "roster number"},
}

// headerScanRows bounds how far down a sheet the header is searched for.
const headerScanRows = 10

// StudentCreator enrolls one student account.
type StudentCreator interface {
	CreateStudent(ctx context.Context, classID uuid.UUID, name, email, number, password string) (*model.User, error)
}

// ImportService bulk-creates student accounts from a roster spreadsheet.
type ImportService struct {
	creator  StudentCreator
	classes  *ClassService
	validate *govalidator.Validate
	password func() (string, error)
	log      zerolog.Logger
}

// NewImportService creates a new ImportService.
func NewImportService(creator StudentCreator, classes *ClassService, log zerolog.Logger) *ImportService {
	return &ImportService{
		creator:  creator,
		classes:  classes,
		validate: govalidator.New(),
		password: func() (string, error) { return GeneratePassword(GeneratedPasswordLength) },
		log:      log.With().Str("component", "import_service").Logger(),
	}
}

// ParseWorkbook reads the roster rows from the first sheet of an .xlsx file.
func ParseWorkbook(r io.Reader) ([]model.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	return ParseRows(rows)
}

// ParseRows locates the header row and converts the rows below it. Row
// numbers are 1-based sheet rows. Blank rows are skipped.
func ParseRows(rows [][]string) ([]model.ImportRow, error) {
	headerAt, cols := -1, map[string]int{}
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		found := map[string]int{}
		for j, cell := range rows[i] {
			if col, ok := headerColumn(cell); ok {
				if _, dup := found[col]; !dup {
					found[col] = j
				}
			}
		}
		_, hasName := found["name"]
		_, hasEmail := found["email"]
		if hasName && hasEmail {
			headerAt, cols = i, found
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrNoHeader
	}

	cell := func(row []string, col string) string {
		j, ok := cols[col]
		if !ok || j >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[j])
	}

	var out []model.ImportRow
	for i := headerAt + 1; i < len(rows); i++ {
		r := model.ImportRow{
			Row:           i + 1,
			Name:          cell(rows[i], "name"),
			Email:         cell(rows[i], "email"),
			StudentNumber: cell(rows[i], "number"),
		}
		if r.Name == "" && r.Email == "" && r.StudentNumber == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func headerColumn(cell string) (string, bool) {
	h := normalizeHeader(cell)
	for col, aliases := range headerAliases {
		if slices.Contains(aliases, h) {
			return col, true
		}
	}
	return "", false
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// Import creates an account for every row, in order. A failing row is
// reported and never stops the rows after it; the result has one entry
// per input row.
func (s *ImportService) Import(ctx context.Context, teacherID, classID uuid.UUID, rows []model.ImportRow) ([]model.ImportResult, error) {
	if _, err := s.classes.Get(ctx, teacherID, classID); err != nil {
		return nil, err
	}

	results := make([]model.ImportResult, 0, len(rows))
	for _, row := range rows {
		res := model.ImportResult{ImportRow: row}
		password, err := s.importRow(ctx, classID, row)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Success = true
			res.Password = password
		}
		metrics.ImportRows.WithLabelValues(metrics.Result(err)).Inc()
		results = append(results, res)
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	s.log.Info().
		Str("class_id", classID.String()).
		Int("rows", len(results)).
		Int("failed", failed).
		Msg("Roster import finished")
	return results, nil
}

// ImportWorkbook parses an .xlsx roster and imports it.
func (s *ImportService) ImportWorkbook(ctx context.Context, teacherID, classID uuid.UUID, r io.Reader) ([]model.ImportResult, error) {
	rows, err := ParseWorkbook(r)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, teacherID, classID, rows)
}

func (s *ImportService) importRow(ctx context.Context, classID uuid.UUID, row model.ImportRow) (string, error) {
	if row.Name == "" {
		return "", errors.New("name is required")
	}
	if err := s.validate.Var(row.Email, "required,email"); err != nil {
		return "", errors.New("email is invalid")
	}
	if len(row.StudentNumber) > 10 {
		return "", errors.New("student number is too long")
	}

	password, err := s.password()
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	if _, err := s.creator.CreateStudent(ctx, classID, row.Name, row.Email, row.StudentNumber, password); err != nil {
		return "", err
	}
	return password, nil
}
