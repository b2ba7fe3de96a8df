package booking

import (
	"testing"

	"github.com/iliyamo/service-booking/internal/model"
)

func TestCanTransition_Table(t *testing.T) {
	allowed := map[[2]model.Status]bool{
		{model.StatusRequested, model.StatusAccepted}:  true,
		{model.StatusRequested, model.StatusRejected}:  true,
		{model.StatusAccepted, model.StatusCompleted}: true,
	}
	for _, from := range model.Statuses {
		for _, to := range model.Statuses {
			want := allowed[[2]model.Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestSuccessors_TerminalAndCopy(t *testing.T) {
	for _, s := range []model.Status{model.StatusRejected, model.StatusCompleted} {
		if n := len(Successors(s)); n != 0 {
			t.Fatalf("%s should be terminal, has %d successors", s, n)
		}
		if !s.Terminal() {
			t.Fatalf("%s.Terminal() = false", s)
		}
	}
	next := Successors(model.StatusRequested)
	next[0] = model.StatusCompleted
	if CanTransition(model.StatusRequested, model.StatusCompleted) {
		t.Fatal("mutating Successors result changed the transition table")
	}
}
