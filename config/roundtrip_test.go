package config_test

import (
	"testing"

	"github.com/clickgo/swrouter/config"
	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/elements"
	"github.com/clickgo/swrouter/router"
)

func testClasses() map[string]router.Factory {
	return map[string]router.Factory{
		"Source":  func() element.Element { return elements.NewSource() },
		"Discard": func() element.Element { return elements.NewDiscard() },
	}
}

func TestRoundTripParseFlatconfig(t *testing.T) {
	src := "src :: Source();\nsink :: Discard();\nsrc[0] -> [0]sink;\n"

	elems, conns, err := config.Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(elems) != 2 || len(conns) != 1 {
		t.Fatalf("expected 2 elements and 1 connection, got %d/%d", len(elems), len(conns))
	}

	r := router.New("r1", testClasses())
	if err := r.Build(elems, conns); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := r.Configure(); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	flat := r.Flatconfig()

	elems2, conns2, err := config.Parse(flat)
	if err != nil {
		t.Fatalf("re-parse of flatconfig failed: %v\n%s", err, flat)
	}
	if len(elems2) != len(elems) || len(conns2) != len(conns) {
		t.Fatalf("round trip element/connection count mismatch: %d/%d vs %d/%d",
			len(elems2), len(conns2), len(elems), len(conns))
	}

	r2 := router.New("r2", testClasses())
	if err := r2.Build(elems2, conns2); err != nil {
		t.Fatalf("rebuild from round-tripped flatconfig failed: %v", err)
	}
	if err := r2.Configure(); err != nil {
		t.Fatalf("reconfigure from round-tripped flatconfig failed: %v", err)
	}

	if r2.Flatconfig() != flat {
		t.Fatalf("flatconfig not stable across round trip:\nfirst:  %q\nsecond: %q", flat, r2.Flatconfig())
	}
}

func TestParseRejectsMalformedConnection(t *testing.T) {
	if _, _, err := config.Parse("a :: Source();\na -> b;\n"); err == nil {
		t.Fatal("expected parse error for connection missing port brackets")
	}
}

func TestParseIgnoresComments(t *testing.T) {
	src := "// a comment\nsrc :: Source(); // trailing comment\n"
	elems, _, err := config.Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(elems) != 1 || elems[0].Name != "src" {
		t.Fatalf("expected one element named src, got %+v", elems)
	}
}
