package tracker

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/gorlkit/ddpg/timestep"
)

// trackEpisode tracks a full episode of the given rewards, with the
// final reward delivered on the last timestep
func trackEpisode(t *testing.T, tr Tracker, rewards []float64) {
	t.Helper()

	obs := mat.NewVecDense(1, nil)
	tr.Track(ts.New(ts.First, 0.0, 1.0, obs, 0))
	for i, r := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		tr.Track(ts.New(stepType, r, 1.0, obs, i+1))
	}
}

func TestReturnAccumulatesEpisodes(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	tr := NewReturn(filename)

	trackEpisode(t, tr, []float64{1.0, 2.0, 3.0})
	trackEpisode(t, tr, []float64{-1.0, -1.0})

	returns := tr.(*Return).EpisodeReturns()
	if len(returns) != 2 {
		t.Fatalf("wrong number of episode returns \n\twant(%v)\n\thave(%v)",
			2, len(returns))
	}
	if returns[0] != 6.0 {
		t.Errorf("wrong first episode return \n\twant(%v)\n\thave(%v)", 6.0,
			returns[0])
	}
	if returns[1] != -2.0 {
		t.Errorf("wrong second episode return \n\twant(%v)\n\thave(%v)",
			-2.0, returns[1])
	}
}

func TestUnfinishedEpisodeNotRecorded(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	tr := NewReturn(filename)

	obs := mat.NewVecDense(1, nil)
	tr.Track(ts.New(ts.First, 0.0, 1.0, obs, 0))
	tr.Track(ts.New(ts.Mid, 1.0, 1.0, obs, 1))
	tr.Track(ts.New(ts.Mid, 1.0, 1.0, obs, 2))

	if returns := tr.(*Return).EpisodeReturns(); len(returns) != 0 {
		t.Errorf("unfinished episode should not be recorded, got %v",
			returns)
	}
}

func TestTrackPanicsOnNonSequentialTimesteps(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-sequential timesteps")
		}
	}()

	tr := NewReturn("unused.bin")
	obs := mat.NewVecDense(1, nil)
	tr.Track(ts.New(ts.First, 0.0, 1.0, obs, 0))
	tr.Track(ts.New(ts.Mid, 1.0, 1.0, obs, 5))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	tr := NewReturn(filename)

	trackEpisode(t, tr, []float64{2.0, 2.0})
	trackEpisode(t, tr, []float64{5.0})

	if err := tr.Save(); err != nil {
		t.Fatalf("could not save returns: %v", err)
	}

	data, err := LoadData(filename)
	if err != nil {
		t.Fatalf("could not load returns: %v", err)
	}

	want := []float64{4.0, 5.0}
	if len(data) != len(want) {
		t.Fatalf("wrong number of returns \n\twant(%v)\n\thave(%v)",
			len(want), len(data))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("wrong return %v \n\twant(%v)\n\thave(%v)", i, want[i],
				data[i])
		}
	}
}
