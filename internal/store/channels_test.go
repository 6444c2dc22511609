package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardwaylabs/partnerbot/internal/domain"
)

func TestUniqueViolation(t *testing.T) {
	constraint, ok := uniqueViolation(&pq.Error{Code: "23505", Constraint: "channels_promo_code_active_idx"})
	require.True(t, ok)
	assert.Equal(t, "channels_promo_code_active_idx", constraint)

	wrapped := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "channels_user_id_link_platform_key"})
	constraint, ok = uniqueViolation(wrapped)
	require.True(t, ok)
	assert.Equal(t, "channels_user_id_link_platform_key", constraint)

	_, ok = uniqueViolation(&pq.Error{Code: "23503"})
	assert.False(t, ok)

	_, ok = uniqueViolation(errors.New("connection reset"))
	assert.False(t, ok)
}

func TestChannelConflictByConstraint(t *testing.T) {
	var ce *domain.ConflictError

	err := channelConflict("channels_promo_code_active_idx")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "promo_code", ce.Resource)

	err = channelConflict("channels_user_id_link_platform_key")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "channel", ce.Resource)
}
