package feed

// Focus is a cursor over a list of focusable targets, moving past either end
// wraps around.
type Focus struct {
	index int
	count int
}

func (f *Focus) Index() int {
	return f.index
}

func (f *Focus) Count() int {
	return f.count
}

// Clamp updates number of targets and keeps cursor in range.
func (f *Focus) Clamp(count int) {
	f.count = max(count, 0)
	if f.count == 0 {
		f.index = 0
	} else if f.index >= f.count {
		f.index = f.count - 1
	}
}

func (f *Focus) Set(index int) {
	if f.count == 0 {
		f.index = 0
		return
	}
	f.index = min(max(index, 0), f.count-1)
}

func (f *Focus) Next() {
	if f.count == 0 {
		return
	}
	f.index = (f.index + 1) % f.count
}

func (f *Focus) Prev() {
	if f.count == 0 {
		return
	}
	f.index = (f.index - 1 + f.count) % f.count
}
