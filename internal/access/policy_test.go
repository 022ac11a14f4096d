package access

import (
	"testing"

	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/stretchr/testify/assert"
)

var (
	admin = entity.Principal{Username: "root", Role: entity.RoleAdmin}
	alice = entity.Principal{Username: "alice", Role: entity.RoleUser}
)

func TestScopeFor(t *testing.T) {
	tests := []struct {
		name      string
		principal entity.Principal
		wantAll   bool
		wantOwner string
	}{
		{name: "admin sees everything", principal: admin, wantAll: true, wantOwner: ""},
		{name: "user sees own tasks", principal: alice, wantAll: false, wantOwner: "alice"},
		{name: "empty role is a regular user", principal: entity.Principal{Username: "bob"}, wantAll: false, wantOwner: "bob"},
		{name: "lowercase admin is not admin", principal: entity.Principal{Username: "eve", Role: "admin"}, wantAll: false, wantOwner: "eve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := ScopeFor(tt.principal)
			assert.Equal(t, tt.wantAll, scope.IsAll())
			assert.Equal(t, tt.wantOwner, scope.Owner())
		})
	}
}

func TestScopePermits(t *testing.T) {
	own := &entity.Task{ID: 1, OwnerUsername: "alice"}
	other := &entity.Task{ID: 2, OwnerUsername: "bob"}

	assert.True(t, All().Permits(own))
	assert.True(t, All().Permits(other))
	assert.True(t, OwnedBy("alice").Permits(own))
	assert.False(t, OwnedBy("alice").Permits(other))
	assert.False(t, All().Permits(nil))
}

func TestEffectiveOwner(t *testing.T) {
	tests := []struct {
		name      string
		principal entity.Principal
		requested string
		want      string
	}{
		{name: "admin with explicit owner", principal: admin, requested: "bob", want: "bob"},
		{name: "admin without owner", principal: admin, requested: "", want: "root"},
		{name: "user requesting another owner", principal: alice, requested: "bob", want: "alice"},
		{name: "user without owner", principal: alice, requested: "", want: "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveOwner(tt.principal, tt.requested))
		})
	}
}

func TestReassignedOwner(t *testing.T) {
	assert.Equal(t, "bob", ReassignedOwner(admin, "alice", "bob"))
	assert.Equal(t, "alice", ReassignedOwner(admin, "alice", ""))
	assert.Equal(t, "alice", ReassignedOwner(alice, "alice", "bob"))
}
