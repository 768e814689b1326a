package issuance

import (
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var regNumberPattern = regexp.MustCompile(`^reg(\d{13})(\d{10})$`)

func TestNewRegistrationNumber(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	t.Run("matches the reg<millis><random> shape", func(t *testing.T) {
		n := NewRegistrationNumber(now)
		m := regNumberPattern.FindStringSubmatch(n.String())
		require.NotNil(t, m, "got %q", n)

		millis, err := strconv.ParseInt(m[1], 10, 64)
		require.NoError(t, err)
		assert.Equal(t, now.UnixMilli(), millis)
	})

	t.Run("random component varies", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			seen[NewRegistrationNumber(now).String()] = true
		}
		assert.Greater(t, len(seen), 1)
	})
}
