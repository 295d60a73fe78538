package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"linguaformula/internal/entity"
)

func TestCanToggle(t *testing.T) {
	self := entity.User{ID: 1, Email: "root@example.com", IsAdmin: true}
	other := entity.User{ID: 2, Email: "user@example.com"}
	secondAdmin := entity.User{ID: 3, Email: "ops@example.com", IsAdmin: true}

	tests := []struct {
		name   string
		users  []entity.User
		target int
		want   error
	}{
		{"only admin revoking self", []entity.User{self, other}, 1, ErrLastAdmin},
		{"two admins revoking self", []entity.User{self, other, secondAdmin}, 1, nil},
		{"granting another user", []entity.User{self, other}, 2, nil},
		{"revoking another admin", []entity.User{self, secondAdmin}, 3, nil},
		{"unknown user", []entity.User{self}, 42, ErrUnknownUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, CanToggle(tt.users, &self, tt.target), tt.want)
		})
	}
}

func TestRows(t *testing.T) {
	self := entity.User{ID: 1, IsAdmin: true}
	users := []entity.User{self, {ID: 2}}

	rows := Rows(users, &self)

	assert.True(t, rows[0].Self)
	assert.True(t, rows[0].Disabled)
	assert.False(t, rows[1].Self)
	assert.False(t, rows[1].Disabled)

	users = append(users, entity.User{ID: 3, IsAdmin: true})
	assert.False(t, Rows(users, &self)[0].Disabled)
	assert.Equal(t, 2, AdminCount(users))
}
