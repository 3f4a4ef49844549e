package service

import (
	"fmt"
	"io"

	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheet      = "提出状況"
	credentialsSheet = "ログイン情報"
)

// WriteSubmissionsWorkbook renders a task's submission board as .xlsx.
func WriteSubmissionsWorkbook(w io.Writer, ts *TaskSubmissions) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rate := ts.Rate
	rows := [][]any{
		{"課題", ts.Task.Title},
		{"提出率", fmt.Sprintf("%d%% (%d/%d)", rate.Percentage, rate.SubmittedCount, rate.TotalCount)},
		{},
		{"出席番号", "名前", "提出", "提出日時", "状態", "コメント", "先生からのコメント"},
	}
	for _, st := range rate.PerStudent {
		row := []any{st.StudentNumber, st.StudentName, "未提出", "", "", "", ""}
		if st.IsSubmitted && st.Work != nil {
			row[2] = "提出済み"
			if st.Work.CreatedAt != nil {
				row[3] = st.Work.CreatedAt.Local().Format("2006/01/02 15:04")
			}
			row[4] = string(st.Work.Status)
			row[5] = st.Work.Comment
			if st.Work.TeacherFeedback != nil {
				row[6] = *st.Work.TeacherFeedback
			}
		}
		rows = append(rows, row)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(exportSheet, "A4", "G4", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "B", "B", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "D", "D", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "F", "G", 40); err != nil {
		return err
	}
	return f.Write(w)
}

// WriteImportResultsWorkbook renders a roster import report, including the
// generated passwords, so it can be printed and handed out.
func WriteImportResultsWorkbook(w io.Writer, results []model.ImportResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", credentialsSheet); err != nil {
		return err
	}

	header := []any{"行", "出席番号", "名前", "メールアドレス", "パスワード", "エラー"}
	if err := f.SetSheetRow(credentialsSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range results {
		row := []any{r.Row, r.StudentNumber, r.Name, r.Email, r.Password, r.Error}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(credentialsSheet, cell, &row); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(credentialsSheet, "A1", "F1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(credentialsSheet, "C", "D", 28); err != nil {
		return err
	}
	return f.Write(w)
}
