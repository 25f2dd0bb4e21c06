package factory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/regionfactory/internal/region"
	"github.com/vk/regionfactory/internal/regionerr"
	"github.com/vk/regionfactory/internal/resolver"
	"github.com/vk/regionfactory/internal/spec"
	"github.com/vk/regionfactory/internal/state"
	"github.com/vk/regionfactory/internal/testutil"
	"github.com/vk/regionfactory/modules/testnode"
)

func fakeBridgeFunc(fb *testutil.FakeBridge) BridgeFunc {
	return func(ctx context.Context) (Bridge, error) {
		if err := fb.Load(ctx); err != nil {
			return nil, err
		}
		return fb, nil
	}
}

func newFactory(fb *testutil.FakeBridge, namespaces ...string) *Factory {
	return New(Options{
		SearchPath: resolver.NewSearchPath(namespaces...),
		Bridge:     fakeBridgeFunc(fb),
	})
}

var owner = region.NamedOwner("region1")

func TestGetSpec_IdentityStable(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx := context.Background()
	f := newFactory(testutil.NewFakeBridge())
	p := testutil.NewProvider("Native", 1)
	f.RegisterNative(ctx, "Native", p)

	// Act
	first, err := f.GetSpec(ctx, "Native")
	require.NoError(t, err)
	second, err := f.GetSpec(ctx, "Native")
	require.NoError(t, err)

	// Assert
	assert.Same(t, first, second)
	assert.Equal(t, 1, p.Specs(), "cached spec must not be rebuilt")
}

func TestGetSpec_ConcurrentMissBuildsOnce(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx := context.Background()
	f := newFactory(testutil.NewFakeBridge())
	p := testutil.NewProvider("Native", 1)
	f.RegisterNative(ctx, "Native", p)

	// Act
	const workers = 16
	specs := make([]*spec.Spec, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := f.GetSpec(ctx, "Native")
			assert.NoError(t, err)
			specs[i] = s
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, 1, p.Specs())
	for _, s := range specs {
		assert.Same(t, specs[0], s)
	}
}

func TestRegisterNative_LastWriterWins(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx := context.Background()
	f := newFactory(testutil.NewFakeBridge())
	v1 := testutil.NewProvider("Native", 1)
	v2 := testutil.NewProvider("Native", 2)
	f.RegisterNative(ctx, "Native", v1)
	f.RegisterNative(ctx, "Native", v2)

	// Act
	impl, err := f.CreateImpl(ctx, "Native", "{}", owner)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, impl.(*testutil.Impl).Version)
	assert.Zero(t, v1.Creates())
	assert.Equal(t, 1, v2.Creates())
}

func TestForeign_FirstMatchingNamespaceWins(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx := context.Background()
	fb := testutil.NewFakeBridge().Host("B.X", nil)
	f := newFactory(fb, "A", "B", "C")

	// Act
	s, err := f.GetSpec(ctx, "py.X")
	require.NoError(t, err)
	impl, err := f.CreateImpl(ctx, "py.X", "", owner)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "B.X", s.Type)
	assert.Equal(t, []string{"A.X", "B.X"}, fb.SpecCalls(), "C must never be tried")
	assert.Equal(t, []string{"A.X", "B.X"}, fb.InstanceCalls())
	assert.Equal(t, "B.X", impl.Type())
	assert.Equal(t, owner, impl.(*testutil.Impl).Owner)
}

func TestForeign_ExceptionIsPerCandidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fb := testutil.NewFakeBridge().Raise("A.X").Host("B.X", nil)
	f := newFactory(fb, "A", "B")

	s, err := f.GetSpec(ctx, "py.X")

	require.NoError(t, err)
	assert.Equal(t, "B.X", s.Type)
}

func TestForeign_EmptyNamespaceUsesBareName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fb := testutil.NewFakeBridge().Host("X", nil)
	f := newFactory(fb, "")

	_, err := f.GetSpec(ctx, "py.X")

	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, fb.SpecCalls())
}

func TestUnsupportedType_FromEveryEntryPoint(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fb := testutil.NewFakeBridge()
	f := newFactory(fb, resolver.DefaultNamespaces...)

	_, err := f.CreateImpl(ctx, "Nope", "{}", owner)
	require.ErrorIs(t, err, regionerr.ErrUnsupportedType)
	_, err = f.DeserializeImpl(ctx, "Nope", state.New(), owner)
	require.ErrorIs(t, err, regionerr.ErrUnsupportedType)
	_, err = f.GetSpec(ctx, "Nope")
	require.ErrorIs(t, err, regionerr.ErrUnsupportedType)

	assert.Zero(t, fb.Loads(), "native names never touch the bridge")
}

func TestCreateImpl_TypeNotFoundAfterOneCandidate(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx := context.Background()
	fb := testutil.NewFakeBridge()
	f := newFactory(fb, "nupic.regions")

	// Act
	_, err := f.CreateImpl(ctx, "py.Foo", "{}", owner)

	// Assert
	require.ErrorIs(t, err, regionerr.ErrTypeNotFound)
	var re *regionerr.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "py.Foo", re.Name)
	assert.Equal(t, []string{"nupic.regions.Foo"}, fb.SpecCalls())
}

func TestCleanup_ClearsCacheAndRegistryButKeepsBridge(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx := context.Background()
	fb := testutil.NewFakeBridge().Host("nupic.regions.Foo", nil)
	f := newFactory(fb, resolver.DefaultNamespaces...)
	p := testutil.NewProvider("Native", 1)
	f.RegisterNative(ctx, "Native", p)
	before, err := f.GetSpec(ctx, "Native")
	require.NoError(t, err)
	_, err = f.GetSpec(ctx, "py.Foo")
	require.NoError(t, err)

	// Act
	f.Cleanup(ctx)

	// Assert
	assert.Equal(t, 1, p.Releases())
	assert.Empty(t, f.NativeTypes(ctx))
	assert.Equal(t, []string{"nupic.regions.Foo"}, fb.Destroyed(), "foreign specs go back through the bridge")

	f.RegisterNative(ctx, "Native", p)
	after, err := f.GetSpec(ctx, "Native")
	require.NoError(t, err)
	assert.NotSame(t, before, after, "a stale spec must not survive cleanup")
	assert.Equal(t, 2, p.Specs())

	_, err = f.CreateImpl(ctx, "py.Foo", "", owner)
	require.NoError(t, err)
	assert.Equal(t, 1, fb.Loads(), "the bridge must not be rebuilt after cleanup")
}

func TestCleanup_WithoutBridge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fb := testutil.NewFakeBridge()
	f := newFactory(fb)

	assert.NotPanics(t, func() { f.Cleanup(ctx) })
	assert.Zero(t, fb.Loads())

	noBridge := New(Options{})
	assert.NotPanics(t, func() { noBridge.Cleanup(ctx) })
}

func TestBridgeFailure_ReportedAndRetriedOnNextCall(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx := context.Background()
	fb := testutil.NewFakeBridge().Host("nupic.regions.Foo", nil)
	fb.LoadErr = regionerr.BridgeNotFound("/nowhere", "installation root does not exist")
	f := newFactory(fb, "nupic.regions")

	// Act
	_, first := f.CreateImpl(ctx, "py.Foo", "", owner)
	loadsAfterFirst := fb.Loads()
	fb.LoadErr = nil
	impl, second := f.CreateImpl(ctx, "py.Foo", "", owner)

	// Assert
	require.ErrorIs(t, first, regionerr.ErrBridgeNotFound)
	assert.Equal(t, 1, loadsAfterFirst, "no retry inside a single call")
	require.NoError(t, second)
	assert.Equal(t, "nupic.regions.Foo", impl.Type())
	assert.Equal(t, 2, fb.Loads())
}

func TestBridgeUnconfigured(t *testing.T) {
	t.Parallel()
	f := New(Options{})

	_, err := f.GetSpec(context.Background(), "py.Foo")

	require.ErrorIs(t, err, regionerr.ErrBridgeNotFound)
}

func TestCreateImpl_InvalidParams(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFactory(testutil.NewFakeBridge())
	f.RegisterNative(ctx, "Native", testutil.NewProvider("Native", 1))

	_, err := f.CreateImpl(ctx, "Native", "{bogus: 1}", owner)

	require.ErrorIs(t, err, regionerr.ErrInvalidParams)
	assert.Contains(t, err.Error(), `unknown parameter "bogus"`)
}

func TestCreateImpl_NilResults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFactory(testutil.NewFakeBridge())

	noImpl := testutil.NewProvider("NoImpl", 1)
	noImpl.NilImpl = true
	f.RegisterNative(ctx, "NoImpl", noImpl)
	noSpec := testutil.NewProvider("NoSpec", 1)
	noSpec.Spec = nil
	f.RegisterNative(ctx, "NoSpec", noSpec)
	failing := testutil.NewProvider("Failing", 1)
	failing.Err = errors.New("boom")
	f.RegisterNative(ctx, "Failing", failing)

	_, err := f.CreateImpl(ctx, "NoImpl", "", owner)
	require.ErrorIs(t, err, regionerr.ErrImplUnavailable)
	_, err = f.CreateImpl(ctx, "NoSpec", "", owner)
	require.ErrorIs(t, err, regionerr.ErrSpecUnavailable)
	_, err = f.CreateImpl(ctx, "Failing", "", owner)
	require.EqualError(t, err, "boom")
}

func TestDeserializeImpl_SkipsSchema(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx := context.Background()
	fb := testutil.NewFakeBridge().Host("nupic.regions.extra.Bar", nil)
	f := newFactory(fb, resolver.DefaultNamespaces...)
	p := testutil.NewProvider("Native", 1)
	f.RegisterNative(ctx, "Native", p)
	b := state.New()

	// Act
	native, err := f.DeserializeImpl(ctx, "Native", b, owner)
	require.NoError(t, err)
	foreign, err := f.DeserializeImpl(ctx, "py.Bar", b, owner)
	require.NoError(t, err)

	// Assert
	assert.Same(t, b, native.(*testutil.Impl).Bundle)
	assert.Zero(t, p.Specs(), "deserialize never builds the spec")
	assert.Equal(t, "nupic.regions.extra.Bar", foreign.Type())
	assert.Equal(t, []string{"nupic.regions.Bar", "nupic.regions.extra.Bar"}, fb.DeserializeCalls())
	assert.Empty(t, fb.SpecCalls())
}

func TestBuiltins_SeededLazilyAndAfterCleanup(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx := context.Background()
	f := New(Options{Modules: Builtins()})
	f.RegisterNative(ctx, "Custom", testutil.NewProvider("Custom", 1))

	// Act
	types := f.NativeTypes(ctx)
	f.Cleanup(ctx)
	reseeded := f.NativeTypes(ctx)

	// Assert
	assert.Equal(t, []string{"Custom", "TestNode", "VectorFileEffector", "VectorFileSensor"}, types)
	assert.Equal(t, []string{"TestNode", "VectorFileEffector", "VectorFileSensor"}, reseeded)
}

func TestTestNodeScenario(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx := context.Background()
	f := New(Options{Modules: Builtins()})

	// Act
	impl, err := f.CreateImpl(ctx, testnode.TypeName, "{}", owner)
	require.NoError(t, err)
	first, err := f.GetSpec(ctx, testnode.TypeName)
	require.NoError(t, err)
	second, err := f.GetSpec(ctx, testnode.TypeName)
	require.NoError(t, err)

	// Assert
	node, ok := impl.(*testnode.Node)
	require.True(t, ok)
	assert.Equal(t, "region1", node.Owner())
	assert.Equal(t, []float64{0, 1}, node.Compute())
	assert.Same(t, first, second)
}

func TestNamespaces(t *testing.T) {
	t.Parallel()
	f := New(Options{})

	f.RegisterNamespace("my.regions")

	assert.Equal(t, []string{"nupic.regions", "nupic.regions.extra", "my.regions"}, f.Namespaces())
}

func TestDefault_IsSingleton(t *testing.T) {
	t.Parallel()
	assert.Same(t, Default(), Default())
}
