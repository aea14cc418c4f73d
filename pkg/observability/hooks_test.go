package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Graph hooks
	g := NoopGraphHooks{}
	g.OnMerge(12, time.Second)
	g.OnStaleSweep(3)
	g.OnClone(40, time.Millisecond)

	// IO hooks
	i := NoopIOHooks{}
	i.OnSave("json", time.Second, nil)
	i.OnLoad("binary", 40, time.Second, errors.New("truncated"))

	// Store hooks
	s := NoopStoreHooks{}
	s.OnSnapshotHit(ctx, "file")
	s.OnSnapshotMiss(ctx, "badger")
	s.OnSnapshotPut(ctx, "redis", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/graph")
	h.OnResponse(ctx, "GET", "/graph", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Graph().(NoopGraphHooks); !ok {
		t.Error("Graph() should return NoopGraphHooks by default")
	}
	if _, ok := IO().(NoopIOHooks); !ok {
		t.Error("IO() should return NoopIOHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customGraph := &testGraphHooks{}
	SetGraphHooks(customGraph)
	if Graph() != customGraph {
		t.Error("SetGraphHooks should set custom hooks")
	}

	customIO := &testIOHooks{}
	SetIOHooks(customIO)
	if IO() != customIO {
		t.Error("SetIOHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Graph().(NoopGraphHooks); !ok {
		t.Error("Reset() should restore NoopGraphHooks")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Reset() should restore NoopStoreHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testGraphHooks{}
	SetGraphHooks(custom)

	SetGraphHooks(nil)

	if Graph() != custom {
		t.Error("SetGraphHooks(nil) should be ignored")
	}

	Reset()
}

type testGraphHooks struct{ NoopGraphHooks }
type testIOHooks struct{ NoopIOHooks }
type testStoreHooks struct{ NoopStoreHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
