package apperr_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"marketplace/internal/apperr"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(apperr.NotFound("tenant not found")))
	assert.Equal(t, apperr.CodeBadRequest, apperr.CodeOf(fmt.Errorf("purchase: %w", apperr.BadRequest("x"))))
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(errors.New("boom")))
}

func TestSentinelMatching(t *testing.T) {
	err := apperr.Unauthorized("sign in required")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)

	wrapped := apperr.NotFound("product not found").Wrap(sql.ErrNoRows)
	assert.ErrorIs(t, wrapped, apperr.ErrNotFound)
	assert.ErrorIs(t, wrapped, sql.ErrNoRows)
	assert.Contains(t, wrapped.Error(), "product not found")
}
