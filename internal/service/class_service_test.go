package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClassAssignsJoinCode(t *testing.T) {
	f := newFixture(t)
	f.classes.collisions = 2

	class := f.class(t, f.teacher(t), " 3年4組 ")
	assert.Equal(t, "3年4組", class.DisplayName)
	assert.True(t, validator.IsJoinCode(class.JoinCode), class.JoinCode)
}

func TestCreateClassGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	f.classes.collisions = joinCodeAttempts

	_, err := f.classSvc.Create(context.Background(), uuid.New(), &model.ClassRequest{DisplayName: "x"})
	assert.Error(t, err)
}

func TestClassOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := f.class(t, f.teacher(t), "1年1組")
	intruder := f.teacher(t)

	_, err := f.classSvc.Get(ctx, intruder.ID, class.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, f.classSvc.Delete(ctx, intruder.ID, class.ID), ErrNotOwner)
	_, err = f.classSvc.Roster(ctx, intruder.ID, class.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestRosterIsOrderedByNumber(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher(t)
	class := f.class(t, teacher, "1年1組")
	f.student(t, class, "佐々木", "10")
	f.student(t, class, "青木", "")
	f.student(t, class, "伊藤", "2")

	roster, err := f.classSvc.Roster(context.Background(), teacher.ID, class.ID)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "伊藤", roster[0].Name)
	assert.Equal(t, "佐々木", roster[1].Name)
	assert.Equal(t, "青木", roster[2].Name)
}
