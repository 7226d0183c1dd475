package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decl(name, bound string, kind RegistrationKind, order int) *DeclarationRecord {
	return &DeclarationRecord{
		Name:     name,
		Produced: NewTypeToken(bound),
		Bound:    NewTypeToken(bound),
		Site:     ConstructionSite{Mode: SiteConstructor},
		Kind:     kind,
		Order:    order,
	}
}

func TestPlanFingerprintStable(t *testing.T) {
	build := func() *RegistrationPlan {
		a := decl("svc", "app/user.Service", KindFactory, 0)
		b := decl("repo", "app/user.Repo", KindLazySingleton, 1)
		return &RegistrationPlan{
			Records:       []*DeclarationRecord{a, b},
			Unconditional: []*DeclarationRecord{a, b},
		}
	}

	fp1, err := build().Fingerprint()
	require.NoError(t, err)
	fp2, err := build().Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64) // hex-encoded SHA-256
}

func TestPlanFingerprintSensitiveToOrder(t *testing.T) {
	a := decl("svc", "app/user.Service", KindFactory, 0)
	b := decl("repo", "app/user.Repo", KindFactory, 1)

	forward := &RegistrationPlan{Unconditional: []*DeclarationRecord{a, b}}
	reversed := &RegistrationPlan{Unconditional: []*DeclarationRecord{b, a}}

	fp1, err := forward.Fingerprint()
	require.NoError(t, err)
	fp2, err := reversed.Fingerprint()
	require.NoError(t, err)

	assert.NotEqual(t, fp1, fp2)
}

func TestPlanFingerprintSensitiveToPartitioning(t *testing.T) {
	a := decl("svc", "app/user.Service", KindFactory, 0)

	unconditional := &RegistrationPlan{Unconditional: []*DeclarationRecord{a}}
	gated := &RegistrationPlan{
		Envs: []EnvBlock{{Label: "dev", Statements: []*DeclarationRecord{a}}},
	}

	fp1, err := unconditional.Fingerprint()
	require.NoError(t, err)
	fp2, err := gated.Fingerprint()
	require.NoError(t, err)

	assert.NotEqual(t, fp1, fp2)
}

func TestDeclarationsFingerprint(t *testing.T) {
	a := decl("svc", "app/user.Service", KindFactory, 0)
	b := decl("repo", "app/user.Repo", KindFactory, 1)

	fp1, err := DeclarationsFingerprint([]*DeclarationRecord{a, b})
	require.NoError(t, err)
	fp2, err := DeclarationsFingerprint([]*DeclarationRecord{a, b})
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	fp3, err := DeclarationsFingerprint([]*DeclarationRecord{a})
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}

func TestBindingIndexCandidates(t *testing.T) {
	a := decl("mock", "app/user.Service", KindFactory, 0)
	a.Environments = []string{"dev"}
	b := decl("real", "app/user.Service", KindFactory, 1)
	b.Environments = []string{"prod"}
	c := decl("repo", "app/user.Repo", KindFactory, 2)

	idx := NewBindingIndex([]*DeclarationRecord{a, b, c})

	candidates := idx.Candidates(NewTypeToken("app/user.Service"), "")
	require.Len(t, candidates, 2)
	assert.Equal(t, "mock", candidates[0].Name)
	assert.Equal(t, "real", candidates[1].Name)

	assert.Empty(t, idx.Candidates(NewTypeToken("app/user.Service"), "other-tag"))
}

func TestBindingIndexProviderIn(t *testing.T) {
	mock := decl("mock", "app/user.Service", KindFactory, 0)
	mock.Environments = []string{"dev"}
	real := decl("real", "app/user.Service", KindFactory, 1)
	real.Environments = []string{"prod"}
	always := decl("repo", "app/user.Repo", KindFactory, 2)

	idx := NewBindingIndex([]*DeclarationRecord{mock, real, always})
	svc := NewTypeToken("app/user.Service")

	assert.Equal(t, mock, idx.ProviderIn(svc, "", "dev"))
	assert.Equal(t, real, idx.ProviderIn(svc, "", "prod"))
	assert.Nil(t, idx.ProviderIn(svc, "", "staging"))
	assert.Nil(t, idx.ProviderIn(svc, "", "")) // no unconditional provider

	repo := NewTypeToken("app/user.Repo")
	assert.Equal(t, always, idx.ProviderIn(repo, "", ""))
	assert.Equal(t, always, idx.ProviderIn(repo, "", "dev"))
}
