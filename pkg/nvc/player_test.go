package nvc

import "testing"

func TestPlayer_SetTime(t *testing.T) {
	d := openTestCache(t, writeTestCache(t, newTestCache(t, 10), CompressionQuantize, 4))
	p := NewPlayer(d, 3)

	if _, _, _, err := p.Current(); err == nil {
		t.Error("expected error before SetTime")
	}

	if err := p.SetTime(0.1); err != nil {
		t.Fatalf("SetTime failed: %v", err)
	}
	i, tm, f, err := p.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	// 0.1 falls exactly on frame 3 (3/30).
	if i != 3 || tm != d.FrameTime(3) {
		t.Errorf("expected frame 3, got %d at %v", i, tm)
	}
	if f.VertexCount != 4 {
		t.Errorf("expected 4 vertices, got %d", f.VertexCount)
	}
	if d.Loaded() != 3 {
		t.Errorf("expected 3 preloaded frames, got %d", d.Loaded())
	}

	// Moving forward drops frames behind the new position.
	if err := p.SetTime(0.2); err != nil {
		t.Fatalf("SetTime failed: %v", err)
	}
	if d.IsLoaded(3) || d.IsLoaded(4) {
		t.Error("expected frames behind the playhead to be dropped")
	}
	if !d.IsLoaded(6) || !d.IsLoaded(8) {
		t.Error("expected frames 6 to 8 loaded")
	}

	// Past the end the last frame stays current.
	p.SetTime(100)
	if i, _, _, _ := p.Current(); i != 9 {
		t.Errorf("expected last frame, got %d", i)
	}
}
