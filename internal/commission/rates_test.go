package commission

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/padmaajarasooi/padmaaja-backend/pkg/errors"
)

func TestBuildScheduleAcceptsContiguousLevels(t *testing.T) {
	adminID := uuid.New()
	rows, err := buildSchedule(UpdateRatesRequest{
		Rates: []RateInput{
			{Level: 2, Percent: "4"},
			{Level: 1, Percent: "8"},
			{Level: 3, Percent: "1.5"},
		},
	}, adminID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 1, rows[0].Level)
	assert.Equal(t, "8", rows[0].Percent.String())
	assert.Equal(t, 3, rows[2].Level)
	assert.Equal(t, "1.5", rows[2].Percent.String())
	require.NotNil(t, rows[0].UpdatedBy)
	assert.Equal(t, adminID, *rows[0].UpdatedBy)
}

func TestBuildScheduleRejectsGaps(t *testing.T) {
	_, err := buildSchedule(UpdateRatesRequest{
		Rates: []RateInput{
			{Level: 1, Percent: "8"},
			{Level: 3, Percent: "2"},
		},
	}, uuid.Nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestBuildScheduleRejectsDuplicateLevels(t *testing.T) {
	_, err := buildSchedule(UpdateRatesRequest{
		Rates: []RateInput{
			{Level: 1, Percent: "8"},
			{Level: 1, Percent: "4"},
		},
	}, uuid.Nil)
	require.Error(t, err)
}

func TestBuildScheduleRejectsPercentOutOfRange(t *testing.T) {
	for _, percent := range []string{"-1", "100.01", "abc"} {
		_, err := buildSchedule(UpdateRatesRequest{
			Rates: []RateInput{{Level: 1, Percent: percent}},
		}, uuid.Nil)
		require.Errorf(t, err, "percent %s should be rejected", percent)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestBuildScheduleRejectsEmpty(t *testing.T) {
	_, err := buildSchedule(UpdateRatesRequest{}, uuid.Nil)
	require.Error(t, err)
}
