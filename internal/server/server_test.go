package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/typesystem/internal/project"
	"github.com/conduit-lang/typesystem/internal/typesystem"
)

func fixture(t testing.TB) *project.Workspace {
	t.Helper()
	c := project.NewContent("corlib")

	object := typesystem.NewTypeDefinition("corlib", "System", "Object", typesystem.KindClass)
	object.NewConstructor()
	object.NewMethod("ToString", typesystem.RefString)

	str := typesystem.NewTypeDefinition("corlib", "System", "String", typesystem.KindClass)
	str.NewProperty("Length", typesystem.RefInt32)

	i32 := typesystem.NewTypeDefinition("corlib", "System", "Int32", typesystem.KindStruct)
	vt := typesystem.NewTypeDefinition("corlib", "System", "ValueType", typesystem.KindClass)

	ilist := typesystem.NewTypeDefinition("corlib", "System.Collections.Generic", "IList", typesystem.KindInterface, "T")

	list := typesystem.NewTypeDefinition("corlib", "System.Collections.Generic", "List", typesystem.KindClass, "T")
	list.AddBaseType(typesystem.MustParseReflectionName("System.Collections.Generic.IList`1[[`0]]",
		&typesystem.ParseScope{TypeParameters: list.TypeParameters()}))
	list.NewMethod("Add", typesystem.RefVoid).AddParameter("item", list.TypeParameters()[0])
	list.NewField("items", typesystem.NewArrayTypeReference(list.TypeParameters()[0], 1))
	list.NewNestedType("Enumerator", typesystem.KindStruct)

	require.NoError(t, c.Add(object, str, i32, vt, ilist, list))

	ws := project.NewWorkspace()
	ws.Replace(c)
	return ws
}

func get(t *testing.T, h http.Handler, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func typePath(name string, suffix string) string {
	return "/types/" + url.PathEscape(name) + suffix
}

func TestHealthz(t *testing.T) {
	h := NewHandler(fixture(t), nil)
	var body map[string]string
	rec := get(t, h, "/healthz", &body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestNamespaces(t *testing.T) {
	h := NewHandler(fixture(t), nil)
	var ns []string
	get(t, h, "/namespaces", &ns)
	assert.Equal(t, []string{"System", "System.Collections.Generic"}, ns)
}

func TestListTypes(t *testing.T) {
	h := NewHandler(fixture(t), nil)

	tests := []struct {
		target string
		want   []string
	}{
		{"/types", []string{
			"System.Collections.Generic.IList`1",
			"System.Collections.Generic.List`1",
			"System.Int32",
			"System.Object",
			"System.String",
			"System.ValueType",
		}},
		{"/types?namespace=System.Collections.Generic", []string{
			"System.Collections.Generic.IList`1",
			"System.Collections.Generic.List`1",
		}},
		{"/types?namespace=Missing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var views []TypeView
			rec := get(t, h, tt.target, &views)
			assert.Equal(t, http.StatusOK, rec.Code)
			names := []string{}
			for _, v := range views {
				names = append(names, v.ReflectionName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestGetType(t *testing.T) {
	h := NewHandler(fixture(t), nil)

	var v TypeView
	rec := get(t, h, typePath("System.Collections.Generic.List`1[[System.Int32]]", ""), &v)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "List", v.Name)
	assert.Equal(t, "class", v.Kind)
	assert.Equal(t, "true", v.IsReferenceType)
	assert.Equal(t, []string{"System.Int32"}, v.TypeArguments)
	assert.Equal(t, "System.Collections.Generic.List`1", v.Definition)
	assert.Equal(t, "corlib", v.Assembly)

	rec = get(t, h, typePath("System.Int32[]", ""), &v)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "array", v.Kind)
	assert.Empty(t, v.Definition)

	rec = get(t, h, typePath("System.Int32", ""), &v)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "false", v.IsReferenceType)
}

func TestGetTypeErrors(t *testing.T) {
	h := NewHandler(fixture(t), nil)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown type", typePath("App.Missing", ""), http.StatusNotFound, ""},
		{"unknown argument", typePath("System.Collections.Generic.List`1[[App.Missing]]", ""), http.StatusNotFound, ""},
		{"malformed name", typePath("System.List`1[[System.Int32", ""), http.StatusBadRequest, "RN100"},
		{"unknown member kind", typePath("System.String", "/members?kind=operator"), http.StatusBadRequest, ""},
		{"unknown route", "/nowhere", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body ErrorResponse
			rec := get(t, h, tt.path, &body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestBases(t *testing.T) {
	h := NewHandler(fixture(t), nil)

	var views []TypeView
	get(t, h, typePath("System.Collections.Generic.List`1[[System.String]]", "/bases"), &views)
	require.Len(t, views, 2)
	assert.Equal(t, "System.Object", views[0].ReflectionName)
	assert.Equal(t, "System.Collections.Generic.IList`1[[System.String]]", views[1].ReflectionName)

	get(t, h, typePath("System.Int32", "/bases?all=true"), &views)
	var names []string
	for _, v := range views {
		names = append(names, v.ReflectionName)
	}
	assert.Contains(t, names, "System.ValueType")
	assert.Contains(t, names, "System.Object")
}

func TestNested(t *testing.T) {
	h := NewHandler(fixture(t), nil)

	var views []TypeView
	get(t, h, typePath("System.Collections.Generic.List`1[[System.String]]", "/nested"), &views)
	require.Len(t, views, 1)
	assert.Equal(t, "System.Collections.Generic.List`1+Enumerator[[System.String]]", views[0].ReflectionName)
	assert.Equal(t, "System.Collections.Generic.List`1[[System.String]]", views[0].DeclaringType)
}

func TestMembers(t *testing.T) {
	h := NewHandler(fixture(t), nil)
	list := "System.Collections.Generic.List`1[[System.String]]"

	var resp MembersResponse
	get(t, h, typePath(list, "/members"), &resp)
	assert.Equal(t, list, resp.Type)

	byName := map[string]MemberView{}
	for _, m := range resp.Members {
		byName[m.Name] = m
	}
	require.Contains(t, byName, "Add")
	require.Contains(t, byName, "items")
	require.Contains(t, byName, "ToString")

	add := byName["Add"]
	assert.Equal(t, "method", add.Kind)
	assert.Equal(t, list, add.DeclaringType)
	assert.Equal(t, []ParameterView{{Name: "item", Type: "System.String"}}, add.Parameters)
	assert.Equal(t, "System.String[]", byName["items"].ReturnType)
	assert.Equal(t, "System.Object", byName["ToString"].DeclaringType)

	get(t, h, typePath("System.Object", "/members?kind=constructor"), &resp)
	require.Len(t, resp.Members, 1)
	assert.Equal(t, "constructor", resp.Members[0].Kind)

	get(t, h, typePath("System.String", "/members?kind=property"), &resp)
	require.Len(t, resp.Members, 1)
	assert.Equal(t, "Length", resp.Members[0].Name)
	assert.Equal(t, "System.Int32", resp.Members[0].ReturnType)
}

func TestHandlerSeesWorkspaceChanges(t *testing.T) {
	ws := fixture(t)
	cached, err := project.NewCached(ws, 16)
	require.NoError(t, err)
	h := NewHandler(cached, nil)

	rec := get(t, h, typePath("App.Program", ""), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	app := project.NewContent("app")
	require.NoError(t, app.Add(typesystem.NewTypeDefinition("app", "App", "Program", typesystem.KindClass)))
	ws.Replace(app)

	rec = get(t, h, typePath("App.Program", ""), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServerRunAndShutdown(t *testing.T) {
	srv, err := New(DefaultConfig("127.0.0.1:0", NewHandler(fixture(t), nil)), nil)
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewServerValidates(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	_, err = New(&Config{Address: ":0"}, nil)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	ws := fixture(t)

	ty, err := Resolve(ws, "System.String[]")
	require.NoError(t, err)
	assert.Equal(t, "System.String[]", ty.ReflectionName())

	_, err = Resolve(ws, "System.Collections.Generic.List`1[[App.Missing]]")
	assert.ErrorIs(t, err, ErrTypeNotFound)

	var rne *typesystem.ReflectionNameError
	_, err = Resolve(ws, "System.List`1[[System.Int32")
	assert.ErrorAs(t, err, &rne)
}
