package gsg

import (
	"github.com/gogpu/gsg/driver"
	"github.com/gogpu/gsg/state"
	"github.com/gogpu/gsg/stats"
)

// GetGeomMunger returns the munger for rs. Mungers are cached by the
// fingerprint of the slots that affect vertex conversion, so every state
// with the same color, color scale, texture, render mode and shader shares
// one munger until the next reset.
func (g *Guardian) GetGeomMunger(rs *state.RenderState) driver.Munger {
	caps := g.caps.raw()
	fp := driver.MungerFingerprint(rs, caps)
	m, hit := g.mungers.GetOrCreate(fp, func() driver.Munger {
		return g.makeGeomMunger(rs)
	})
	if hit {
		g.sink.Count(stats.MungerHit, 1)
	} else {
		g.sink.Count(stats.MungerMiss, 1)
		g.logger().Debug("gsg: new munger", "fingerprint", fp, "mungers", g.mungers.Len())
	}
	return m
}

// makeGeomMunger builds a munger for rs without consulting the cache. The
// backend's own munger wins over the standard one.
func (g *Guardian) makeGeomMunger(rs *state.RenderState) driver.Munger {
	caps := g.caps.raw()
	if m := g.backend.MakeGeomMunger(rs, caps); m != nil {
		return m
	}
	return driver.NewStandardMunger(rs, caps)
}

// MungerCount returns the number of cached mungers.
func (g *Guardian) MungerCount() int { return g.mungers.Len() }

// TrimMungers evicts least recently used mungers until at most n remain
// and returns the number evicted.
func (g *Guardian) TrimMungers(n int) int { return g.mungers.Trim(n) }
