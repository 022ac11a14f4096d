// Package access decides which tasks a principal may see or change.
package access

import "github.com/St1cky1/todo-service/internal/entity"

// Scope is the set of tasks visible to a principal: every task, or only
// the tasks owned by one username.
type Scope struct {
	all   bool
	owner string
}

func All() Scope {
	return Scope{all: true}
}

func OwnedBy(username string) Scope {
	return Scope{owner: username}
}

func (s Scope) IsAll() bool {
	return s.all
}

// Owner is empty for an All scope.
func (s Scope) Owner() string {
	if s.all {
		return ""
	}
	return s.owner
}

// Permits reports whether t falls inside the scope.
func (s Scope) Permits(t *entity.Task) bool {
	if t == nil {
		return false
	}
	return s.all || t.OwnerUsername == s.owner
}

func (s Scope) String() string {
	if s.all {
		return "all"
	}
	return "owned_by:" + s.owner
}

// ScopeFor is the single place where a role turns into visibility.
func ScopeFor(p entity.Principal) Scope {
	if p.IsAdmin() {
		return All()
	}
	return OwnedBy(p.Username)
}

// EffectiveOwner returns the owner persisted on create. Only admins may
// create tasks on behalf of someone else.
func EffectiveOwner(p entity.Principal, requested string) string {
	if p.IsAdmin() && requested != "" {
		return requested
	}
	return p.Username
}

// ReassignedOwner returns the owner after an update. Only admins may
// reassign, and an empty request keeps the current owner.
func ReassignedOwner(p entity.Principal, current, requested string) string {
	if p.IsAdmin() && requested != "" {
		return requested
	}
	return current
}
