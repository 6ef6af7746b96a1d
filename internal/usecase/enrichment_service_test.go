package usecase

import (
	"context"
	"testing"

	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fight"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/domain/fighter"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/infrastructure/repository/memory"
	"github.com/mikeprimak/fighting-tomatoes-sub006/internal/platform/logging"
)

func completedFight(winnerID, loserID int64, method string) fight.Fight {
	return fight.Fight{
		Fighter1ID: winnerID,
		Fighter2ID: loserID,
		Status:     fight.StatusComplete,
		Result:     &fight.Result{WinnerID: winnerID, Method: method, Round: 1, Time: "3:00"},
	}
}

func TestDeriveFighterStats(t *testing.T) {
	t.Parallel()

	const subject = int64(1)
	tests := []struct {
		name   string
		fights []fight.Fight
		want   fighter.DerivedStats
	}{
		{
			name: "streak resets on loss",
			fights: []fight.Fight{
				completedFight(subject, 2, "Decision"),
				completedFight(3, subject, "KO"),
				completedFight(subject, 4, "Submission"),
				completedFight(subject, 5, "TKO"),
			},
			want: fighter.DerivedStats{WinStreak: 2, FinishCount: 2},
		},
		{
			name: "decisions do not count as finishes",
			fights: []fight.Fight{
				completedFight(subject, 2, "Unanimous Decision"),
				completedFight(subject, 3, "Split Decision"),
			},
			want: fighter.DerivedStats{WinStreak: 2},
		},
		{
			name: "incomplete and resultless fights are ignored",
			fights: []fight.Fight{
				{Fighter1ID: subject, Fighter2ID: 2, Status: fight.StatusUpcoming},
				{Fighter1ID: subject, Fighter2ID: 3, Status: fight.StatusComplete},
				completedFight(subject, 4, "Knockout"),
			},
			want: fighter.DerivedStats{WinStreak: 1, FinishCount: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := deriveFighterStats(subject, tc.fights)
			if got != tc.want {
				t.Fatalf("deriveFighterStats() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestEnrichFightersCountsFailures(t *testing.T) {
	t.Parallel()

	fighters := memory.NewFighterRepository()
	fights := memory.NewFightRepository()
	svc := NewEnrichmentService(fighters, fights, 2, logging.NewNop())

	ctx := context.Background()
	if err := fighters.UpsertMany(ctx, []fighter.Fighter{
		{FirstName: "Alex", LastName: "Smith"},
	}); err != nil {
		t.Fatalf("seed fighter: %v", err)
	}
	ids, err := fighters.ResolveIDs(ctx, []fighter.NameKey{fighter.NewNameKey("Alex", "Smith")})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var smithID int64
	for _, id := range ids {
		smithID = id
	}

	// One real fighter, one ID that resolves nowhere.
	result, err := svc.EnrichFighters(ctx, []int64{smithID, 9999})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if result.Updated != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
