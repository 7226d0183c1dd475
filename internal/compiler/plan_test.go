package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirecue/wirecue/internal/model"
	"github.com/wirecue/wirecue/internal/testutil"
)

func buildPlan(t *testing.T, builders ...*testutil.DeclBuilder) *model.RegistrationPlan {
	t.Helper()
	g := buildGraph(t, builders...)
	require.NoError(t, Validate(g))
	return BuildPlan(g)
}

func stmtNames(stmts []*model.DeclarationRecord) []string {
	names := make([]string, len(stmts))
	for i, d := range stmts {
		names[i] = d.Name
	}
	return names
}

func TestPlanLazyDiscoveryOrderPreserved(t *testing.T) {
	// Both lazy: source order preserved, no edge-based reordering.
	plan := buildPlan(t,
		testutil.NewDecl("service", "app.Service"),
		testutil.NewDecl("repo", "app.Repo").Dep("app.Service"),
	)

	assert.Equal(t, []string{"service", "repo"}, stmtNames(plan.Unconditional))
	assert.Empty(t, plan.Envs)
}

func TestPlanEagerReorderedTopologically(t *testing.T) {
	// Discovered [client, config]; client eagerly depends on config,
	// so the plan must register config first.
	plan := buildPlan(t,
		testutil.NewDecl("client", "app.Client").Kind("eagerSingleton").Dep("app.Config"),
		testutil.NewDecl("config", "app.Config").Kind("eagerSingleton"),
	)

	assert.Equal(t, []string{"config", "client"}, stmtNames(plan.Unconditional))
}

func TestPlanLazyDependencyRegisteredBeforeEagerConsumer(t *testing.T) {
	// The lazy factory does not run at registration time, but it must
	// be registered before the eager consumer constructs and looks it up.
	plan := buildPlan(t,
		testutil.NewDecl("eager", "app.Eager").Kind("eagerSingleton").Dep("app.Lazy"),
		testutil.NewDecl("lazy", "app.Lazy"),
	)

	assert.Equal(t, []string{"lazy", "eager"}, stmtNames(plan.Unconditional))
}

func TestPlanLazyConsumerImposesNoConstraint(t *testing.T) {
	// A lazy consumer of an eager provider keeps discovery order.
	plan := buildPlan(t,
		testutil.NewDecl("lazy", "app.Lazy").Dep("app.Eager"),
		testutil.NewDecl("eager", "app.Eager").Kind("eagerSingleton"),
	)

	assert.Equal(t, []string{"lazy", "eager"}, stmtNames(plan.Unconditional))
}

func TestPlanTransitiveEagerOrdering(t *testing.T) {
	plan := buildPlan(t,
		testutil.NewDecl("c", "app.C").Kind("eagerSingleton").Dep("app.B"),
		testutil.NewDecl("b", "app.B").Kind("eagerSingleton").Dep("app.A"),
		testutil.NewDecl("a", "app.A").Kind("eagerSingleton"),
	)

	assert.Equal(t, []string{"a", "b", "c"}, stmtNames(plan.Unconditional))
}

func TestPlanEnvironmentPartitions(t *testing.T) {
	// Disjoint environments: two guarded blocks, unconditional prefix
	// untouched.
	plan := buildPlan(t,
		testutil.NewDecl("shared", "app.Shared"),
		testutil.NewDecl("mock", "app.Service").Env("dev"),
		testutil.NewDecl("real", "app.Service").Env("prod"),
	)

	assert.Equal(t, []string{"shared"}, stmtNames(plan.Unconditional))
	require.Len(t, plan.Envs, 2)
	assert.Equal(t, "dev", plan.Envs[0].Label)
	assert.Equal(t, []string{"mock"}, stmtNames(plan.Envs[0].Statements))
	assert.Equal(t, "prod", plan.Envs[1].Label)
	assert.Equal(t, []string{"real"}, stmtNames(plan.Envs[1].Statements))
}

func TestPlanMultiLabelDeclarationAppearsPerBlock(t *testing.T) {
	plan := buildPlan(t,
		testutil.NewDecl("svc", "app.Service").Env("dev", "staging"),
	)

	require.Len(t, plan.Envs, 2)
	assert.Equal(t, []string{"svc"}, stmtNames(plan.Envs[0].Statements))
	assert.Equal(t, []string{"svc"}, stmtNames(plan.Envs[1].Statements))
}

func TestPlanEnvBlockOrderFollowsFirstAppearance(t *testing.T) {
	plan := buildPlan(t,
		testutil.NewDecl("a", "app.A").Env("prod"),
		testutil.NewDecl("b", "app.B").Env("dev"),
	)

	require.Len(t, plan.Envs, 2)
	assert.Equal(t, "prod", plan.Envs[0].Label)
	assert.Equal(t, "dev", plan.Envs[1].Label)
}

func TestPlanEagerOrderingWithinEnvBlock(t *testing.T) {
	plan := buildPlan(t,
		testutil.NewDecl("client", "app.Client").Env("dev").Kind("eagerSingleton").Dep("app.Config"),
		testutil.NewDecl("config", "app.Config").Env("dev").Kind("eagerSingleton"),
	)

	require.Len(t, plan.Envs, 1)
	assert.Equal(t, []string{"config", "client"}, stmtNames(plan.Envs[0].Statements))
}

func TestPlanDeterministicFingerprint(t *testing.T) {
	build := func() *model.RegistrationPlan {
		return buildPlan(t,
			testutil.NewDecl("config", "app.Config").Kind("eagerSingleton"),
			testutil.NewDecl("client", "app.Client").Kind("eagerSingleton").Dep("app.Config"),
			testutil.NewDecl("repo", "app.Repo").Dep("app.Client"),
			testutil.NewDecl("mock", "app.Mock").Env("dev"),
		)
	}

	fp1, err := build().Fingerprint()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		fp2, err := build().Fingerprint()
		require.NoError(t, err)
		assert.Equal(t, fp1, fp2)
	}
}

func TestPlanEagerOrderingProperty(t *testing.T) {
	// For all eager A depending (transitively through eager nodes) on
	// B, B precedes A in every partition containing both.
	plan := buildPlan(t,
		testutil.NewDecl("e4", "app.E4").Kind("eagerSingleton").Dep("app.E3"),
		testutil.NewDecl("e2", "app.E2").Kind("eagerSingleton").Dep("app.E1"),
		testutil.NewDecl("e3", "app.E3").Kind("eagerSingleton").Dep("app.E2"),
		testutil.NewDecl("e1", "app.E1").Kind("eagerSingleton"),
	)

	pos := make(map[string]int)
	for i, d := range plan.Unconditional {
		pos[d.Name] = i
	}
	assert.Less(t, pos["e1"], pos["e2"])
	assert.Less(t, pos["e2"], pos["e3"])
	assert.Less(t, pos["e3"], pos["e4"])
}
