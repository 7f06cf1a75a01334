package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/Sternrassler/arweave-whitelist/internal/config"
	"github.com/Sternrassler/arweave-whitelist/internal/testutil"
)

func testConfig(endpoint string) config.Config {
	cfg := config.Default()
	cfg.Endpoint = endpoint
	return cfg
}

func TestRun_WritesAllAddresses(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()

	mock.Enqueue(
		testutil.NewPageResponse(testutil.Edge{Cursor: "c1", Address: "A"}, testutil.Edge{Cursor: "c2", Address: "B"}),
		testutil.NewPageResponse(),
	)

	var out bytes.Buffer
	code := run(context.Background(), testConfig(mock.URL()), &out)

	if code != 0 {
		t.Errorf("run() = %d, want 0", code)
	}
	if got, want := out.String(), "A\nB\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("requests = %d, want 2", mock.GetRequestCount())
	}
}

func TestRun_PartialOnFailure(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()

	mock.Enqueue(
		testutil.NewPageResponse(testutil.Edge{Cursor: "c1", Address: "A"}),
		testutil.NewServerErrorResponse(),
	)

	var out bytes.Buffer
	code := run(context.Background(), testConfig(mock.URL()), &out)

	if code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if got := out.String(); got != "A\n" {
		t.Errorf("output = %q, want partial list", got)
	}
}

func TestRun_MaxPages(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()

	mock.Enqueue(testutil.NewPageResponse(testutil.Edge{Cursor: "c1", Address: "A"}))

	cfg := testConfig(mock.URL())
	cfg.MaxPages = 1

	var out bytes.Buffer
	if code := run(context.Background(), cfg, &out); code != 0 {
		t.Errorf("run() = %d, want 0", code)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("requests = %d, want 1", mock.GetRequestCount())
	}
}

func TestRun_InvalidEndpoint(t *testing.T) {
	var out bytes.Buffer
	if code := run(context.Background(), testConfig("not a url"), &out); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want empty", out.String())
	}
}

func TestRun_UnreachableRedisDisablesCache(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()

	cfg := testConfig(mock.URL())
	cfg.RedisURL = "127.0.0.1:1"

	var out bytes.Buffer
	if code := run(context.Background(), cfg, &out); code != 0 {
		t.Errorf("run() = %d, want 0", code)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("requests = %d, want 1", mock.GetRequestCount())
	}
}
