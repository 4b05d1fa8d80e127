package domain_test

import (
	"testing"
	"time"

	"github.com/neuraforge/collab-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSession_Expired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "no expiry", expiresAt: time.Time{}, want: false},
		{name: "in the future", expiresAt: now.Add(time.Minute), want: false},
		{name: "exactly now", expiresAt: now, want: true},
		{name: "in the past", expiresAt: now.Add(-time.Minute), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &domain.Session{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, s.Expired(now))
		})
	}
}
