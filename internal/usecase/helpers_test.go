package usecase

import (
	"strings"
	"testing"
	"time"

	"academy/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================
// Helper
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertKind(t *testing.T, err error, want Kind) *Error {
	t.Helper()
	require.Error(t, err)
	ue, ok := AsError(err)
	require.True(t, ok, "want *usecase.Error, got %T: %v", err, err)
	assert.Equal(t, want, ue.Kind)
	return ue
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func i64(v int64) *int64 { return &v }

func tp(t time.Time) *time.Time { return &t }

func course(id int64, price int64) model.Course {
	return model.Course{ID: id, Title: "course", NormalPrice: price, IsPublished: true}
}

// testNow を含む早割期間の講座
func earlyBird(id int64, normal int64, early int64) model.Course {
	c := course(id, normal)
	c.EarlyBirdPrice = i64(early)
	c.EarlyBirdStart = tp(testNow.Add(-24 * time.Hour))
	c.EarlyBirdEnd = tp(testNow.Add(24 * time.Hour))
	return c
}
