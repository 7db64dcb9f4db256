package barch

import (
	"fmt"
	"io"
)

// barNotifier renders a simple percentage bar to an io.Writer. It
// implements codec.Notifier. No third-party progress-bar library appears
// anywhere in the reference corpus, so this stays on fmt and os.Stdout.
type barNotifier struct {
	out   io.Writer
	label string
	min   int
	max   int
	last  int // last percentage drawn, avoids redundant writes
}

func newBarNotifier(out io.Writer, label string) *barNotifier {
	return &barNotifier{out: out, label: label, last: -1}
}

func (b *barNotifier) Init(min, max int) {
	b.min, b.max = min, max
	b.last = -1
}

func (b *barNotifier) Notify(current int) {
	span := b.max - b.min
	if span <= 0 {
		return
	}
	pct := ((current - b.min) * 100) / span
	if pct == b.last {
		return
	}
	b.last = pct
	fmt.Fprintf(b.out, "\r%s: %3d%%", b.label, pct)
	if current == b.max-1 {
		fmt.Fprintln(b.out)
	}
}
