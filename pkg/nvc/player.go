package nvc

// Player drives a Decoder for playback. Setting the time keeps the
// current frame and the following preload frames decoded and drops
// frames that fell behind.
type Player struct {
	dec     *Decoder
	preload int
	current int
	time    float32
}

// NewPlayer creates a player over dec. preload is the number of frames
// kept decoded starting at the current one; values below one keep only
// the current frame.
func NewPlayer(dec *Decoder, preload int) *Player {
	return &Player{dec: dec, preload: max(preload, 1), current: -1}
}

// SetTime selects the frame shown at t and prefetches ahead of it.
func (p *Player) SetTime(t float32) error {
	i := p.dec.FloorIndex(t)
	if i < 0 {
		return ErrFrameIndex
	}
	p.time = t

	if i != p.current {
		for loaded := range p.dec.loaded {
			if loaded < i || loaded >= i+p.preload {
				p.dec.Drop(loaded)
			}
		}
		p.current = i
	}
	return p.dec.Prefetch(i, p.preload)
}

// Time returns the last time passed to SetTime.
func (p *Player) Time() float32 {
	return p.time
}

// Current returns the index, time and data of the selected frame.
func (p *Player) Current() (int, float32, Frame, error) {
	if p.current < 0 {
		return -1, 0, Frame{}, ErrFrameIndex
	}
	f, err := p.dec.Frame(p.current)
	return p.current, p.dec.FrameTime(p.current), f, err
}
