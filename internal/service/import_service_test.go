package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseRowsJapaneseHeader(t *testing.T) {
	rows := [][]string{
		{"1年1組 名簿"},
		{"出席番号", "氏名", "メールアドレス"},
		{"1", " 青木 ", "aoki@school.jp"},
		{},
		{"2", "伊藤", "ito@school.jp"},
	}
	got, err := ParseRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []model.ImportRow{
		{Row: 3, Name: "青木", Email: "aoki@school.jp", StudentNumber: "1"},
		{Row: 5, Name: "伊藤", Email: "ito@school.jp", StudentNumber: "2"},
	}, got)
}

func TestParseRowsEnglishHeader(t *testing.T) {
	rows := [][]string{
		{"E-mail", "Student  Name"},
		{"a@school.jp", "Alice"},
		{"b@school.jp"},
	}
	got, err := ParseRows(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Alice", got[0].Name)
	assert.Empty(t, got[0].StudentNumber)
	assert.Equal(t, model.ImportRow{Row: 3, Email: "b@school.jp"}, got[1])
}

func TestParseRowsWithoutHeader(t *testing.T) {
	_, err := ParseRows([][]string{{"foo", "bar"}, {"1", "2"}})
	assert.ErrorIs(t, err, ErrNoHeader)
}

type flakyCreator struct {
	failEmail string
	created   []string
}

func (c *flakyCreator) CreateStudent(_ context.Context, _ uuid.UUID, name, email, _, _ string) (*model.User, error) {
	if email == c.failEmail {
		return nil, errors.New("backend unavailable")
	}
	c.created = append(c.created, name)
	return &model.User{ID: uuid.New(), DisplayName: name, Email: email}, nil
}

func TestImportIsolatesFailingRows(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher(t)
	class := f.class(t, teacher, "1年1組")
	creator := &flakyCreator{failEmail: "b@school.jp"}
	svc := NewImportService(creator, f.classSvc, zerolog.Nop())

	rows := []model.ImportRow{
		{Row: 2, Name: "A", Email: "a@school.jp"},
		{Row: 3, Name: "B", Email: "b@school.jp"},
		{Row: 4, Name: "", Email: "c@school.jp"},
		{Row: 5, Name: "D", Email: "not-an-email"},
		{Row: 6, Name: "E", Email: "e@school.jp"},
	}
	results, err := svc.Import(context.Background(), teacher.ID, class.ID, rows)
	require.NoError(t, err)
	require.Len(t, results, len(rows))

	assert.True(t, results[0].Success)
	assert.Len(t, results[0].Password, GeneratedPasswordLength)
	assert.False(t, results[1].Success)
	assert.Equal(t, "backend unavailable", results[1].Error)
	assert.Empty(t, results[1].Password)
	assert.False(t, results[2].Success)
	assert.False(t, results[3].Success)
	assert.True(t, results[4].Success)
	assert.Equal(t, []string{"A", "E"}, creator.created)

	for i, r := range results {
		assert.Equal(t, rows[i].Row, r.Row)
	}
}

func TestImportedStudentsCanSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	teacher := f.teacher(t)
	class := f.class(t, teacher, "2年3組")
	_, err := f.auth.CreateStudent(ctx, class.ID, "先客", "taken@school.jp", "9", "password")
	require.NoError(t, err)

	rows := []model.ImportRow{
		{Row: 2, Name: "青木", Email: "aoki@school.jp", StudentNumber: "1"},
		{Row: 3, Name: "伊藤", Email: "taken@school.jp", StudentNumber: "2"},
		{Row: 4, Name: "上田", Email: "ueda@school.jp", StudentNumber: "3"},
	}
	results, err := f.importSvc.Import(ctx, teacher.ID, class.ID, rows)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, ErrEmailTaken.Error())

	for _, i := range []int{0, 2} {
		require.True(t, results[i].Success, results[i].Error)
		session, err := f.auth.SignIn(ctx, rows[i].Email, results[i].Password)
		require.NoError(t, err, rows[i].Email)
		assert.Equal(t, rows[i].Name, session.User.DisplayName)
		require.NotNil(t, session.User.ClassID)
		assert.Equal(t, class.ID, *session.User.ClassID)
	}
}

func TestImportWorkbookCreatesAccounts(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher(t)
	class := f.class(t, teacher, "1年1組")

	wb := excelize.NewFile()
	for i, row := range [][]any{
		{"番号", "名前", "メール"},
		{3, "上田", "ueda@school.jp"},
		{1, "上田", "ueda@school.jp"},
	} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	results, err := f.importSvc.ImportWorkbook(context.Background(), teacher.ID, class.ID, &buf)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.Equal(t, "3", results[0].StudentNumber)
	assert.False(t, results[1].Success)
	assert.Equal(t, ErrEmailTaken.Error(), results[1].Error)

	roster, err := f.classSvc.Roster(context.Background(), teacher.ID, class.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "上田", roster[0].Name)
}

func TestImportRequiresClassOwnership(t *testing.T) {
	f := newFixture(t)
	class := f.class(t, f.teacher(t), "1年1組")
	_, err := f.importSvc.Import(context.Background(), f.teacher(t).ID, class.ID, nil)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestWriteImportResultsWorkbook(t *testing.T) {
	results := []model.ImportResult{
		{ImportRow: model.ImportRow{Row: 2, Name: "青木", Email: "aoki@school.jp", StudentNumber: "1"}, Success: true, Password: "abcd2345"},
		{ImportRow: model.ImportRow{Row: 3, Name: "伊藤", Email: "bad"}, Error: "email is invalid"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteImportResultsWorkbook(&buf, results))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(credentialsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2", "1", "青木", "aoki@school.jp", "abcd2345"}, rows[1])
	assert.Equal(t, "email is invalid", rows[2][5])
}
