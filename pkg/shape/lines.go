package shape

import (
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
	"github.com/OpenTraceLab/amoebot/pkg/pasc"
)

type lineStage uint8

const (
	lineRank lineStage = iota
	lineCheck
	lineEliminate
	lineBroadcast
	lineDone
)

var (
	lineAxis   = bitfield.Uint{Offset: 0, Width: 2}
	stage      = bitfield.Enum[lineStage]{Offset: 2, Width: 3}
	iterations = bitfield.Uint{Offset: 5, Width: 6}
	position   = bitfield.Uint{Offset: 11, Width: 6}
	racing     = bitfield.Bool{Bit: 17}
	longest    = bitfield.Bool{Bit: 18}
	linesDone  = bitfield.Bool{Bit: 19}

	_ = bitfield.MustDisjoint(lineAxis, stage, iterations, position, racing, longest, linesDone)

	lengthBits = bitfield.Bits{Offset: 0, Width: 32}
)

// LongestLines finds the longest maximal lines along one axis. Every line
// counts its particles with PASC until a global round stays silent; the
// last particle keeps the bits of the count. The line ends then compare
// their counts most significant bit first over a global circuit: in every
// round the ends still racing with a 1 beep and the ones with a 0 that
// hear them drop out. Finally each end tells its line whether it won.
type LongestLines struct {
	host   amoebot.Host
	cell   *bitfield.Cell
	length *bitfield.Cell
	rank   *pasc.PASC
}

// NewLongestLines allocates the line state on host.
func NewLongestLines(host amoebot.Host) *LongestLines {
	return &LongestLines{
		host:   host,
		cell:   host.NewCell("longest_lines"),
		length: host.NewCell("line_length"),
		rank:   pasc.New(host),
	}
}

// Init selects the axis along which lines are measured.
func (l *LongestLines) Init(axis int) {
	if axis < 0 || axis > 2 {
		panic(fmt.Errorf("shape: invalid axis %d", axis))
	}
	c := l.cell
	c.Set(0)
	l.length.Set(0)
	lineAxis.Set(c, axis)
	stage.Set(c, lineRank)
	racing.Set(c, l.isEnd())
	l.rank.Init(l.pred(), l.succ(), chainPrimary, chainSecondary, chainPrimary, chainSecondary, true)
}

func (l *LongestLines) nbr(d amoebot.Direction) amoebot.Direction {
	if l.host.HasNeighborAt(d) {
		return d
	}
	return amoebot.None
}

func (l *LongestLines) pred() amoebot.Direction {
	return l.nbr(amoebot.Cardinal(lineAxis.Get(l.cell)).Opposite())
}

func (l *LongestLines) succ() amoebot.Direction {
	return l.nbr(amoebot.Cardinal(lineAxis.Get(l.cell)))
}

func (l *LongestLines) isEnd() bool { return l.succ() == amoebot.None }

func (l *LongestLines) globalSet(pc *amoebot.PinConfiguration) int {
	return circuit.GlobalSetID(pc, broadcastOffset)
}

// SetupPC connects the particle's lines along the axis.
func (l *LongestLines) SetupPC(pc *amoebot.PinConfiguration) {
	switch stage.Get(l.cell) {
	case lineRank:
		l.rank.SetupPC(pc)
	case lineCheck, lineEliminate:
		circuit.MakeGlobalCircuit(pc, broadcastOffset, l.globalSet(pc))
	case lineBroadcast:
		circuit.MakeChainCircuit(pc, l.pred(), l.succ(), broadcastOffset, true)
	}
}

// ActivateSend beeps the bits of the current comparison.
func (l *LongestLines) ActivateSend() {
	c := l.cell
	pc := l.host.PlannedPinConfiguration()
	switch stage.Get(c) {
	case lineRank:
		l.rank.ActivateSend()
	case lineCheck:
		if l.rank.BecamePassive() {
			pc.SendBeepOnPartitionSet(l.globalSet(pc))
		}
	case lineEliminate:
		if racing.Get(c) && lengthBits.Get(l.length, position.Get(c)) {
			pc.SendBeepOnPartitionSet(l.globalSet(pc))
		}
	case lineBroadcast:
		if racing.Get(c) {
			if id := circuit.ChainPartitionSetID(pc, l.pred(), l.succ(), broadcastOffset); id >= 0 {
				pc.SendBeepOnPartitionSet(id)
			}
		}
	}
}

// ActivateReceive drops lines that lost a comparison.
func (l *LongestLines) ActivateReceive() {
	c := l.cell
	pc := l.host.CurrentPinConfiguration()
	switch stage.Get(c) {
	case lineRank:
		l.rank.ActivateReceive()
		if l.isEnd() {
			lengthBits.Set(l.length, iterations.Get(c), l.rank.GetReceivedBit() == 1)
		}
		iterations.Inc(c)
		stage.Set(c, lineCheck)
	case lineCheck:
		if pc.ReceivedBeepOnPartitionSet(l.globalSet(pc)) {
			stage.Set(c, lineRank)
			return
		}
		position.Set(c, iterations.Get(c)-1)
		stage.Set(c, lineEliminate)
	case lineEliminate:
		i := position.Get(c)
		if pc.ReceivedBeepOnPartitionSet(l.globalSet(pc)) && !lengthBits.Get(l.length, i) {
			racing.Set(c, false)
		}
		if i > 0 {
			position.Set(c, i-1)
			return
		}
		stage.Set(c, lineBroadcast)
	case lineBroadcast:
		if id := circuit.ChainPartitionSetID(pc, l.pred(), l.succ(), broadcastOffset); id >= 0 {
			longest.Set(c, pc.ReceivedBeepOnPartitionSet(id))
		} else {
			longest.Set(c, racing.Get(c))
		}
		linesDone.Set(c, true)
		stage.Set(c, lineDone)
	}
}

// IsFinished reports whether the longest lines are known.
func (l *LongestLines) IsFinished() bool { return linesDone.Get(l.cell) }

// OnLongestLine reports whether the particle's line is one of the longest.
func (l *LongestLines) OnLongestLine() bool { return longest.Get(l.cell) }

// LengthBit returns bit i of the line length minus one. Only the last
// particle of the line knows it.
func (l *LongestLines) LengthBit(i int) bool { return lengthBits.Get(l.length, i) }

// Iterations returns the number of counting iterations that were needed.
func (l *LongestLines) Iterations() int { return iterations.Get(l.cell) }
