package solver

import (
	"context"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/wrapper"
)

func (p *Processor) stateOf(w *block.Wrap) *wrapState {
	st, ok := p.wraps[w]
	if !ok {
		st = &wrapState{firstPos: -1, firstEntry: none}
		p.wraps[w] = st
	}
	return st
}

// processWrap decides whether a wrap directive breaks the line before leaf
// l. It returns true when the cursor was moved and l must not be finished.
func (p *Processor) processWrap(ctx context.Context, l int, ws *wrapper.WhiteSpace, c block.SpaceConstraint, minLF int) bool {
	// Line breaks inserted by an earlier decision are re-derived from scratch.
	if ws.ContainsLineFeeds() && !ws.ContainsLineFeedsInitially() {
		ws.RemoveLineFeeds(c, minLF)
	}
	lfPresent := ws.ContainsLineFeeds()
	if lfPresent {
		// Measure the line at the indent it gets in this pass, not at the
		// column it had in the input.
		p.adjustLineIndent(l, ws)
	}

	wraps := p.tree.Wraps(l)
	start := p.tree.LeafRange(l).Start
	for _, w := range wraps {
		if st := p.stateOf(w); st.firstPos < 0 {
			st.firstPos = start
		}
	}

	w := p.wrapToUse(l, wraps)
	if w != nil || lfPresent {
		if !lfPresent && p.candidate != l && !p.canReplaceCandidate(w) {
			return p.jump(ctx, l, p.candidate, "wrap candidate")
		}
		if w != nil {
			st := p.stateOf(w)
			if st.firstEntry != none && !st.used {
				st.used, st.active = true, true
				return p.jump(ctx, l, st.firstEntry, "chop start")
			}
			if p.isChopNeeded(l, w) {
				st.active = true
			}
		}
		ws.EnsureLineFeed()
		p.clearCandidate()
		return false
	}

	for _, w := range wraps {
		if p.isCandidate(l, w, ws) && p.canReplaceCandidate(w) {
			p.candidate, p.candidateWrap = l, w
		}
		if p.isChopNeeded(l, w) {
			if st := p.stateOf(w); st.firstEntry == none {
				st.firstEntry = l
			}
		}
	}

	if !ws.ContainsLineFeeds() && p.candidate != none && !ws.ReadOnly && p.lineOver(l) {
		return p.jump(ctx, l, p.candidate, "right margin")
	}
	return false
}

// wrapToUse picks the directive that breaks the line before leaf l, if any.
// An active directive wins over an always-wrap, which wins over a directive
// that only breaks past the right margin.
func (p *Processor) wrapToUse(l int, wraps []*block.Wrap) *block.Wrap {
	if len(wraps) == 0 {
		return nil
	}
	if p.candidate == l && p.candidateWrap != nil {
		return p.candidateWrap
	}
	for _, w := range wraps {
		if p.suitable(l, w) && p.stateOf(w).active {
			return w
		}
	}
	for _, w := range wraps {
		if p.suitable(l, w) && w.Type == block.WrapAlways {
			return w
		}
	}
	if !p.lineOver(l) {
		return nil
	}
	for _, w := range wraps {
		if p.suitable(l, w) && (w.Type == block.WrapAsNeeded || w.Type == block.ChopIfNeeded) {
			return w
		}
	}
	return nil
}

// suitable reports whether w may break before leaf l: either it applies to
// its first element, or l is not the first element w was seen at.
func (p *Processor) suitable(l int, w *block.Wrap) bool {
	if w.WrapFirstElement {
		return true
	}
	return p.stateOf(w).firstPos < p.tree.LeafRange(l).Start
}

func (p *Processor) isCandidate(l int, w *block.Wrap, ws *wrapper.WhiteSpace) bool {
	if ws.ReadOnly || !p.suitable(l, w) {
		return false
	}
	return w.Type == block.WrapAsNeeded || w.Type == block.ChopIfNeeded
}

func (p *Processor) isChopNeeded(l int, w *block.Wrap) bool {
	return w != nil && w.Type == block.ChopIfNeeded && p.suitable(l, w)
}

// canReplaceCandidate reports whether w may take over as wrap candidate. A
// directive nested in the candidate's own directive never replaces it, so
// an outer chop is not starved by an inner one.
func (p *Processor) canReplaceCandidate(w *block.Wrap) bool {
	if p.candidate == none {
		return true
	}
	if w == p.candidateWrap {
		return true
	}
	return !w.IsChildOf(p.candidateWrap)
}
