package agent

import (
	"context"
	"testing"

	"github.com/louisbranch/nocturne/internal/engine/domain"
)

func TestScriptedConsumesAnswersInOrder(t *testing.T) {
	a := NewScripted(map[string][]string{
		"p1": {"p2", "", "p3"},
	})
	req := Request{GameID: "g", PlayerID: "p1", Kind: domain.KindVote}

	want := []string{"p2", "", "p3", ""}
	for i, target := range want {
		dec, err := a.Decide(context.Background(), req)
		if err != nil {
			t.Fatalf("call %d returned error: %v", i, err)
		}
		if dec.TargetID != target {
			t.Fatalf("call %d: expected %q, got %q", i, target, dec.TargetID)
		}
	}
}

func TestScriptedHonorsCancellation(t *testing.T) {
	a := NewScripted(map[string][]string{"p1": {"p2"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Decide(ctx, Request{PlayerID: "p1"}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestFuncAdapter(t *testing.T) {
	a := Func(func(ctx context.Context, req Request) (Decision, error) {
		return Decision{TargetID: req.PlayerID}, nil
	})
	dec, err := a.Decide(context.Background(), Request{PlayerID: "p9"})
	if err != nil || dec.TargetID != "p9" {
		t.Fatalf("unexpected result: %+v %v", dec, err)
	}
}
