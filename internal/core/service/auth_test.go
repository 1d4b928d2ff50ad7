package service

import (
	"context"
	"errors"
	"testing"
	"tradebot/internal/core/domain"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

type mockReplier struct {
	notices []string
	replies []string
	prompts []string
	buttons [][]domain.Button
	forms   []domain.Form
	err     error
}

func (m *mockReplier) Notice(_ context.Context, text string) error {
	m.notices = append(m.notices, text)
	return m.err
}

func (m *mockReplier) Reply(_ context.Context, text string) error {
	m.replies = append(m.replies, text)
	return m.err
}

func (m *mockReplier) Prompt(_ context.Context, text string, buttons []domain.Button) error {
	m.prompts = append(m.prompts, text)
	m.buttons = append(m.buttons, buttons)
	return m.err
}

func (m *mockReplier) OpenForm(_ context.Context, form domain.Form) error {
	m.forms = append(m.forms, form)
	return m.err
}

func TestNewAuthorizer(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		wantErr  bool
		expected []string
	}{
		{
			name: "loads staff IDs",
			setup: func() {
				viper.Set("discord.staff_ids", []string{"1", "2", "3"})
			},
			expected: []string{"1", "2", "3"},
		},
		{
			name: "invalid type returns error",
			setup: func() {
				viper.Set("discord.staff_ids", map[string]int{"a": 1})
			},
			wantErr: true,
		},
		{
			name:     "missing list is fine",
			setup:    func() {},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setup()
			auth, err := NewAuthorizer()

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, auth)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, auth)
				assert.Equal(t, tt.expected, auth.staff)
			}
		})
	}
}

func TestStaffAuthorizer_Authorize(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		sendErr    error
		want       bool
		expectSend bool
	}{
		{
			name:   "owner is staff",
			userID: "owner",
			want:   true,
		},
		{
			name:   "listed staff",
			userID: "mod",
			want:   true,
		},
		{
			name:       "regular user gets notice",
			userID:     "user",
			want:       false,
			expectSend: true,
		},
		{
			name:       "notice failure still denies",
			userID:     "user",
			sendErr:    errors.New("send failed"),
			want:       false,
			expectSend: true,
		},
		{
			name:       "empty id",
			userID:     "",
			want:       false,
			expectSend: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := &mockReplier{err: tt.sendErr}
			a := &StaffAuthorizer{ownerID: "owner", staff: []string{"mod"}}

			got := a.Authorize(t.Context(), tt.userID, reply)

			assert.Equal(t, tt.want, got)
			if tt.expectSend {
				assert.Equal(t, []string{forbidden}, reply.notices)
			} else {
				assert.Empty(t, reply.notices)
			}
		})
	}
}

func TestStaffAuthorizer_ClosePolicy(t *testing.T) {
	a := &StaffAuthorizer{ownerID: "owner", staff: []string{"mod"}}
	ticket := domain.SupportTicket{RequesterID: "req", OwnerID: "owner"}

	assert.Nil(t, a.ClosePolicy(false))

	policy := a.ClosePolicy(true)
	assert.True(t, policy(ticket, "req"))
	assert.True(t, policy(ticket, "owner"))
	assert.True(t, policy(ticket, "mod"))
	assert.False(t, policy(ticket, "stranger"))
}
