// Package admin holds the rules for changing admin rights.
package admin

import (
	"errors"

	"linguaformula/internal/entity"
)

// ErrLastAdmin blocks an admin from revoking their own rights while no
// other admin exists.
var ErrLastAdmin = errors.New("admin: cannot revoke own rights as the only admin")

var ErrUnknownUser = errors.New("admin: user not found")

func AdminCount(users []entity.User) int {
	n := 0
	for _, u := range users {
		if u.IsAdmin {
			n++
		}
	}
	return n
}

// CanToggle reports whether self may flip target's admin flag given the
// current user list. Granting is always allowed; only self-revocation is
// guarded.
func CanToggle(users []entity.User, self *entity.User, targetID int) error {
	var target *entity.User
	for i := range users {
		if users[i].ID == targetID {
			target = &users[i]
			break
		}
	}
	if target == nil {
		return ErrUnknownUser
	}
	if self != nil && target.ID == self.ID && target.IsAdmin && AdminCount(users) <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// Row is one line of the admin users table.
type Row struct {
	entity.User
	Self     bool
	Disabled bool
}

func Rows(users []entity.User, self *entity.User) []Row {
	out := make([]Row, len(users))
	for i, u := range users {
		out[i] = Row{
			User:     u,
			Self:     self != nil && u.ID == self.ID,
			Disabled: CanToggle(users, self, u.ID) != nil,
		}
	}
	return out
}
