package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeTokenKey(t *testing.T) {
	tests := []struct {
		name  string
		token TypeToken
		want  string
	}{
		{
			name:  "plain qualified name",
			token: NewTypeToken("app/user.Service"),
			want:  "app/user.Service",
		},
		{
			name:  "unqualified builtin",
			token: NewTypeToken("string"),
			want:  "string",
		},
		{
			name: "single generic argument",
			token: NewTypeToken("app/cache.Store",
				NewTypeToken("app/user.Profile")),
			want: "app/cache.Store[app/user.Profile]",
		},
		{
			name: "nested generic arguments",
			token: NewTypeToken("app/repo.Repo",
				NewTypeToken("app/cache.Store", NewTypeToken("int")),
				NewTypeToken("string")),
			want: "app/repo.Repo[app/cache.Store[int],string]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.Key())
			assert.Equal(t, tt.want, tt.token.String())
		})
	}
}

func TestTypeTokenEqualityByKey(t *testing.T) {
	a := NewTypeToken("app/cache.Store", NewTypeToken("int"))
	b := NewTypeToken("app/cache.Store", NewTypeToken("int"))
	c := NewTypeToken("app/cache.Store", NewTypeToken("string"))

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestTypeTokenBareAndPackage(t *testing.T) {
	tok := NewTypeToken("app/user.Service")
	assert.Equal(t, "Service", tok.Bare())
	assert.Equal(t, "app/user", tok.Package())

	builtin := NewTypeToken("string")
	assert.Equal(t, "string", builtin.Bare())
	assert.Equal(t, "", builtin.Package())
}

func TestTypeTokenIsZero(t *testing.T) {
	assert.True(t, TypeToken{}.IsZero())
	assert.False(t, NewTypeToken("x.Y").IsZero())
}
