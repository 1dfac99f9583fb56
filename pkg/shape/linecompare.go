package shape

import (
	"fmt"
	"math/bits"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/pasc"
)

// PASC chains of the shape checks run on offsets 0 and 1 with sets 0 and 1.
const (
	chainPrimary   = 0
	chainSecondary = 1
)

var (
	refValue  = bitfield.Uint{Offset: 0, Width: 16}
	refLen    = bitfield.Uint{Offset: 16, Width: 5}
	iter      = bitfield.Uint{Offset: 21, Width: 5}
	cmpResult = bitfield.Enum[amoebot.Comparison]{Offset: 26, Width: 2}
	cutoff    = bitfield.Bool{Bit: 28}
	cmpDone   = bitfield.Bool{Bit: 29}
	joined    = bitfield.Bool{Bit: 30}

	_ = bitfield.MustDisjoint(refValue, refLen, iter, cmpResult, cutoff, cmpDone, joined)
)

// MaxReference is the largest constant a LineCompare accepts.
var MaxReference = refValue.Max()

// LineCompare compares the rank of every particle on a chain with a
// constant known to all of them. The chain runs one PASC iteration per bit
// of the constant and then a cutoff round that detects ranks of 2^L and
// more. All chains comparing against the same constant finish together,
// and particles outside every chain simply wait for them.
type LineCompare struct {
	host amoebot.Host
	cell *bitfield.Cell
	rank *pasc.PASC
}

// NewLineCompare allocates the comparison state on host.
func NewLineCompare(host amoebot.Host) *LineCompare {
	return &LineCompare{host: host, cell: host.NewCell("line_compare"), rank: pasc.New(host)}
}

// Init joins the chain given by pred and succ, or waits when participating
// is false. The particle without predecessor has rank 0.
func (l *LineCompare) Init(pred, succ amoebot.Direction, ref int, participating bool) {
	if ref < 0 || ref > MaxReference {
		panic(fmt.Errorf("shape: reference %d outside [0, %d]", ref, MaxReference))
	}
	c := l.cell
	c.Set(0)
	refValue.Set(c, ref)
	refLen.Set(c, bits.Len(uint(ref)))
	joined.Set(c, participating)
	cutoff.Set(c, ref == 0)
	if participating {
		l.rank.Init(pred, succ, chainPrimary, chainSecondary, chainPrimary, chainSecondary, true)
	}
}

// SetupPC splits the line into the segments being compared.
func (l *LineCompare) SetupPC(pc *amoebot.PinConfiguration) {
	if !joined.Get(l.cell) {
		return
	}
	if cutoff.Get(l.cell) {
		l.rank.SetupCutoffCircuit(pc)
		return
	}
	l.rank.SetupPC(pc)
}

// ActivateSend beeps the current bit pair.
func (l *LineCompare) ActivateSend() {
	if !joined.Get(l.cell) {
		return
	}
	if cutoff.Get(l.cell) {
		l.rank.SendCutoffBeep()
		return
	}
	l.rank.ActivateSend()
}

// ActivateReceive records the outcome of the bit pair.
func (l *LineCompare) ActivateReceive() {
	c := l.cell
	if cutoff.Get(c) {
		if joined.Get(c) && l.rank.ReceiveCutoffBeep() {
			cmpResult.Set(c, amoebot.Greater)
		}
		cmpDone.Set(c, true)
		return
	}
	i := iter.Get(c)
	if joined.Get(c) {
		l.rank.ActivateReceive()
		refBit := refValue.Get(c)>>i&1 == 1
		cmpResult.Set(c, amoebot.NextComparison(cmpResult.Get(c), l.rank.GetReceivedBit() == 1, refBit))
	}
	iter.Set(c, i+1)
	if i+1 == refLen.Get(c) {
		cutoff.Set(c, true)
	}
}

// IsFinished reports whether the comparison has a result.
func (l *LineCompare) IsFinished() bool { return cmpDone.Get(l.cell) }

// Result compares the rank with the constant. Particles outside every
// chain report Equal.
func (l *LineCompare) Result() amoebot.Comparison { return cmpResult.Get(l.cell) }

// AtLeast reports whether the rank is not less than the constant.
func (l *LineCompare) AtLeast() bool {
	return joined.Get(l.cell) && cmpResult.Get(l.cell) != amoebot.Less
}
