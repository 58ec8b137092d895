package problem_test

import (
	"errors"
	"testing"

	"mbank/internal/problem"
)

func TestClassify_Table(t *testing.T) {
	tests := []struct {
		name      string
		outcome   problem.Outcome
		wantKind  problem.Kind
		wantMsg   string
		temporary bool
	}{
		{"connection error", problem.Outcome{Tag: problem.TagConnection}, problem.KindCannotConnect, "Cannot connect to server", true},
		{"network error", problem.Outcome{Tag: problem.TagNetwork}, problem.KindCannotConnect, "Cannot connect to server", true},
		{"timeout", problem.Outcome{Tag: problem.TagTimeout}, problem.KindTimeout, "Timeout", true},
		{"server error", problem.Outcome{Tag: problem.TagServer, Status: 502}, problem.KindServer, "Server error", false},
		{"unknown error", problem.Outcome{Tag: problem.TagUnknown, Status: 304}, problem.KindUnknown, "Unknown error", true},
		{"401", problem.Outcome{Tag: problem.TagClient, Status: 401}, problem.KindUnauthorized, "Unauthorized", false},
		{"403", problem.Outcome{Tag: problem.TagClient, Status: 403}, problem.KindForbidden, "Forbidden", false},
		{"404", problem.Outcome{Tag: problem.TagClient, Status: 404}, problem.KindNotFound, "Not found", false},
		{"400", problem.Outcome{Tag: problem.TagClient, Status: 400}, problem.KindRejected, "Rejected", false},
		{"422", problem.Outcome{Tag: problem.TagClient, Status: 422}, problem.KindRejected, "Rejected", false},
		{"unrecognised tag", problem.Outcome{Tag: problem.Tag(99)}, problem.KindUnknown, "Unknown error", true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p, ok := problem.Classify(test.outcome)
			if !ok {
				t.Fatalf("Classify(%+v) reported no problem", test.outcome)
			}
			if p.Kind != test.wantKind {
				t.Errorf("kind = %q, want %q", p.Kind, test.wantKind)
			}
			if p.Message != test.wantMsg {
				t.Errorf("message = %q, want %q", p.Message, test.wantMsg)
			}
			if p.Temporary != test.temporary {
				t.Errorf("temporary = %v, want %v", p.Temporary, test.temporary)
			}
		})
	}
}

func TestClassify_BodyMessageWins(t *testing.T) {
	p, ok := problem.Classify(problem.Outcome{Tag: problem.TagClient, Status: 403, Message: "Account frozen"})
	if !ok {
		t.Fatal("expected a problem")
	}
	if p.Kind != problem.KindForbidden || p.Message != "Account frozen" || p.Status != 403 {
		t.Fatalf("got %+v", p)
	}
}

func TestClassify_NoProblem(t *testing.T) {
	for _, tag := range []problem.Tag{problem.TagNone, problem.TagCancelled} {
		if p, ok := problem.Classify(problem.Outcome{Tag: tag, Status: 200}); ok {
			t.Errorf("Classify(%s) = %+v, want no problem", tag, p)
		}
	}
}

// Requirement: every tag x status combination classifies without panicking.
func TestClassify_Total(t *testing.T) {
	for tag := problem.Tag(-1); tag <= problem.TagCancelled+1; tag++ {
		for status := 0; status < 600; status++ {
			p, ok := problem.Classify(problem.Outcome{Tag: tag, Status: status})
			if ok && p.Message == "" {
				t.Fatalf("Classify(%s,%d) returned empty message", tag, status)
			}
		}
	}
}

func TestFromStatus_Buckets(t *testing.T) {
	tests := []struct {
		status int
		want   problem.Tag
	}{
		{200, problem.TagNone},
		{201, problem.TagNone},
		{204, problem.TagNone},
		{301, problem.TagUnknown},
		{400, problem.TagClient},
		{499, problem.TagClient},
		{500, problem.TagServer},
		{503, problem.TagServer},
	}
	for _, test := range tests {
		if got := problem.FromStatus(test.status); got != test.want {
			t.Errorf("FromStatus(%d) = %s, want %s", test.status, got, test.want)
		}
	}
}

func TestKind_RequiresReauth(t *testing.T) {
	for _, k := range []problem.Kind{problem.KindUnauthorized, problem.KindForbidden} {
		if !k.RequiresReauth() {
			t.Errorf("%s should require reauth", k)
		}
	}
	for _, k := range []problem.Kind{problem.KindNotFound, problem.KindRejected, problem.KindTimeout, problem.KindBadData} {
		if k.RequiresReauth() {
			t.Errorf("%s should not require reauth", k)
		}
	}
}

func TestResult_Accessors(t *testing.T) {
	ok := problem.OK(42)
	if !ok.IsOK() || ok.Err() != nil || ok.Data != 42 {
		t.Fatalf("OK result = %+v", ok)
	}
	if _, has := ok.Problem(); has {
		t.Fatal("ok result must not carry a problem")
	}

	cancelled := problem.Cancelled[int]()
	if !cancelled.IsCancelled() || cancelled.Err() != nil {
		t.Fatalf("cancelled result = %+v", cancelled)
	}

	failed := problem.Fail[int](problem.New(problem.KindTimeout, ""))
	if failed.IsOK() || failed.IsCancelled() {
		t.Fatalf("failed result = %+v", failed)
	}
	var p problem.Problem
	if !errors.As(failed.Err(), &p) {
		t.Fatalf("Err() = %v, want a problem.Problem", failed.Err())
	}
	if p.Kind != problem.KindTimeout || !p.Temporary || p.Message != "Timeout" {
		t.Fatalf("problem = %+v", p)
	}
}
