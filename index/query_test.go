package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/smalisig"
)

const overloadSource = `package com.example.geo;

class Canvas {
    void draw(Shape s) {}
    void draw(Shape s, int layer) {}
    void drawAll(Shape... shapes) {}
    void clear() {
        Runnable r = new Runnable() {
            public void run() {}
        };
    }
}
`

// indexedEngine returns an engine with Shape, Label and Canvas indexed, plus
// their paths.
func indexedEngine(t *testing.T) (*Engine, string, string, string) {
	t.Helper()
	dir := t.TempDir()
	shape := writeFile(t, dir, "Shape.java", shapeSource)
	label := writeFile(t, dir, "Label.java", labelSource)
	canvas := writeFile(t, dir, "Canvas.java", overloadSource)

	e := newTestEngine(t)
	_, err := e.IndexFiles(context.Background(), []string{shape, label, canvas})
	require.NoError(t, err)
	return e, shape, label, canvas
}

func TestQuery_MethodAt(t *testing.T) {
	e, shape, _, canvas := indexedEngine(t)
	q := e.Query()

	// Line 12 (0-based) is the body of Point.x.
	m, err := q.MethodAt(shape, 12, 12)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, `Lcom/example/geo/Shape$Point;->x(J)I`, m.Descriptor)
	assert.Equal(t, "com.example.geo.Shape$Point", m.Owner)
	assert.Equal(t, shape, m.Location.File)
	assert.Equal(t, 12, m.Location.StartLine)

	// The anonymous Runnable's run() is innermost.
	m, err = q.MethodAt(canvas, 8, 20)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, `LUnknownClass;->run()V`, m.Descriptor)

	// Inside clear() but outside run().
	m, err = q.MethodAt(canvas, 6, 10)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "clear", m.Name)
}

func TestQuery_MethodAt_NoMatch(t *testing.T) {
	e, shape, _, _ := indexedEngine(t)
	q := e.Query()

	m, err := q.MethodAt(shape, 0, 0)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = q.MethodAt("/not/indexed.java", 3, 3)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestQuery_MethodsByName(t *testing.T) {
	e, _, _, _ := indexedEngine(t)
	q := e.Query()

	res, err := q.MethodsByName("draw*", Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCount)
	var descs []string
	for _, m := range res.Items {
		descs = append(descs, m.Descriptor)
	}
	assert.ElementsMatch(t, []string{
		`Lcom/example/geo/Canvas;->draw(Lcom/example/geo/Shape;)V`,
		`Lcom/example/geo/Canvas;->draw(Lcom/example/geo/Shape;I)V`,
		`Lcom/example/geo/Canvas;->drawAll([Lcom/example/geo/Shape;)V`,
	}, descs)

	res, err = q.MethodsByName("draw", Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCount)
}

func TestQuery_MethodsByName_Pagination(t *testing.T) {
	e, _, _, _ := indexedEngine(t)
	q := e.Query()

	all, err := q.MethodsByName("*", Pagination{})
	require.NoError(t, err)
	require.Equal(t, 10, all.TotalCount)

	page, err := q.MethodsByName("", Pagination{Offset: 8, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 10, page.TotalCount)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, all.Items[8].ID, page.Items[0].ID)
}

func TestPagination_Normalize(t *testing.T) {
	assert.Equal(t, Pagination{Offset: 0, Limit: 50}, Pagination{Offset: -3}.normalize())
	assert.Equal(t, Pagination{Offset: 2, Limit: 500}, Pagination{Offset: 2, Limit: 9999}.normalize())
	assert.Equal(t, Pagination{Offset: 0, Limit: 7}, Pagination{Limit: 7}.normalize())
}

func TestQuery_MethodsByOwner(t *testing.T) {
	e, _, _, _ := indexedEngine(t)
	q := e.Query()

	dotted, err := q.MethodsByOwner("com.example.geo.Shape")
	require.NoError(t, err)
	require.Len(t, dotted, 3)
	assert.Equal(t, smalisig.ConstructorName, dotted[0].Name)
	assert.True(t, dotted[0].Constructor)
	assert.Equal(t, []string{"java.lang.String"}, dotted[0].Params)
	assert.Equal(t, "void", dotted[0].ReturnType)

	slashed, err := q.MethodsByOwner("com/example/geo/Shape")
	require.NoError(t, err)
	assert.Equal(t, dotted, slashed)

	inner, err := q.MethodsByOwner("com.example.geo.Shape$Point")
	require.NoError(t, err)
	require.Len(t, inner, 1)
	assert.Equal(t, "x", inner[0].Name)
}

func TestQuery_MethodByDescriptor(t *testing.T) {
	e, _, label, _ := indexedEngine(t)
	q := e.Query()

	ms, err := q.MethodByDescriptor(`Lcom/example/geo/Label;->text()Ljava/lang/String;`)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, label, ms[0].Location.File)

	ms, err = q.MethodByDescriptor(`Lcom/example/geo/Label;->missing()V`)
	require.NoError(t, err)
	assert.Empty(t, ms)

	_, err = q.MethodByDescriptor("Label.text()")
	require.Error(t, err)
	assert.True(t, errors.Is(err, smalisig.ErrMalformedDescriptor))
}

func TestQuery_MethodByDescriptor_NestedParameter(t *testing.T) {
	const src = `package a;

class B {
    void m(C c) {}
    static class C {
        void n() {}
    }
}
`
	for _, raw := range []bool{false, true} {
		e := newTestEngine(t, WithRawDollar(raw))
		path := writeFile(t, t.TempDir(), "B.java", src)
		_, err := e.IndexFiles(context.Background(), []string{path})
		require.NoError(t, err)
		q := e.Query()

		for _, desc := range []string{
			`La/B;->m(La/B$C;)V`,
			`La/B;->m(La/B\$C;)V`,
		} {
			ms, err := q.MethodByDescriptor(desc)
			require.NoError(t, err)
			require.Len(t, ms, 1, "raw=%v desc=%s", raw, desc)
			assert.Equal(t, "m", ms[0].Name)
		}

		for _, desc := range []string{
			`La/B$C;->n()V`,
			`La/B\$C;->n()V`,
		} {
			ms, err := q.MethodByDescriptor(desc)
			require.NoError(t, err)
			require.Len(t, ms, 1, "raw=%v desc=%s", raw, desc)
			assert.Equal(t, "a.B$C", ms[0].Owner)
		}
	}
}

func TestQuery_Files(t *testing.T) {
	e, shape, label, canvas := indexedEngine(t)
	q := e.Query()

	res, err := q.Files(Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCount)
	var paths []string
	for _, f := range res.Items {
		paths = append(paths, f.Path)
	}
	// Ordered by path: Canvas, Label, Shape.
	assert.Equal(t, []string{canvas, label, shape}, paths)

	res, err = q.Files(Pagination{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCount)
	require.Len(t, res.Items, 1)
	assert.Equal(t, label, res.Items[0].Path)
}
